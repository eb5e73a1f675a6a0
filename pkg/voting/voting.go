package voting

type (
	Score int

	// Vote is one user's current contribution to an entity's score.
	// A user appears at most once in a vote list.
	Vote struct {
		UserID string `json:"user"`
		Score  Score  `json:"vote"`
	}
)

const (
	ScoreUp      Score = 1
	ScoreDiscard Score = 0
	ScoreDown    Score = -1
)

// Apply returns the vote list after userID casts score:
//   - no prior vote: the vote is appended;
//   - prior vote with a different direction: it is replaced;
//   - prior vote with the same direction, or ScoreDiscard: it is retracted.
//
// The input slice is not modified.
func Apply(votes []Vote, userID string, score Score) []Vote {
	out := make([]Vote, 0, len(votes)+1)
	var prior *Vote
	for _, v := range votes {
		if v.UserID == userID {
			prior = &Vote{UserID: v.UserID, Score: v.Score}
			continue
		}
		out = append(out, v)
	}

	switch {
	case score == ScoreDiscard:
		// unvote
	case prior != nil && prior.Score == score:
		// same direction again retracts the vote
	default:
		out = append(out, Vote{UserID: userID, Score: score})
	}
	return out
}

// Total is the signed sum of all current votes. It is recomputed from the
// vote list on every change, never incremented in place.
func Total(votes []Vote) int {
	total := 0
	for _, v := range votes {
		total += int(v.Score)
	}
	return total
}

// VotedBy lists the users with a current vote, in vote order.
func VotedBy(votes []Vote) []string {
	ids := make([]string, 0, len(votes))
	for _, v := range votes {
		ids = append(ids, v.UserID)
	}
	return ids
}

// ByUser returns userID's current vote, if any.
func ByUser(votes []Vote, userID string) (Vote, bool) {
	for _, v := range votes {
		if v.UserID == userID {
			return v, true
		}
	}
	return Vote{}, false
}
