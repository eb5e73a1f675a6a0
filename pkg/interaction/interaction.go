package interaction

import "time"

// Reaction is one user's current reaction on a post; a (post, user) pair
// holds at most one.
type Reaction struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"timestamp"`
}

type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusResolved ReportStatus = "resolved"
	StatusRejected ReportStatus = "rejected"
)

func ValidStatus(s ReportStatus) bool {
	switch s {
	case StatusPending, StatusResolved, StatusRejected:
		return true
	}
	return false
}

type Report struct {
	ID        string       `json:"id"`
	PostID    string       `json:"postId"`
	UserID    string       `json:"userId"`
	Reason    string       `json:"reason"`
	Status    ReportStatus `json:"status"`
	CreatedAt time.Time    `json:"timestamp"`
}

type Bookmark struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"timestamp"`
}

type Share struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"timestamp"`
}

// Analytics are derived counts over the logs for one post, recomputed on
// every query.
type Analytics struct {
	ReactionCount int `json:"reactionCount"`
	BookmarkCount int `json:"bookmarkCount"`
	ShareCount    int `json:"shareCount"`
	ReportCount   int `json:"reportCount"`
}
