package interaction

import (
	"fmt"
	"sync"
	"time"

	"forum/pkg/common"
	"forum/pkg/storage"
)

// Slot is the persistence slot holding the interaction logs.
const Slot = "post-interaction-storage"

// SessionChecker mirrors the post store's authentication boundary.
type SessionChecker interface {
	Active(userID string) bool
}

// Store keeps flat logs of reactions, reports, bookmarks and shares keyed
// by (post, user). Keeping them out of the post entity means queries like
// "all bookmarks of a user" need no denormalized copies that could drift.
// Records for deleted posts are tolerated here and skipped by readers.
type Store struct {
	mu      sync.Mutex
	session SessionChecker
	snaps   storage.Snapshotter
	bus     common.Broadcaster[State]

	st State
}

// State is both the persisted and the published shape of the logs.
type State struct {
	Reactions []Reaction `json:"reactions"`
	Reports   []Report   `json:"reports"`
	Bookmarks []Bookmark `json:"bookmarks"`
	Shares    []Share    `json:"shares"`
}

func (st State) clone() State {
	return State{
		Reactions: append([]Reaction(nil), st.Reactions...),
		Reports:   append([]Report(nil), st.Reports...),
		Bookmarks: append([]Bookmark(nil), st.Bookmarks...),
		Shares:    append([]Share(nil), st.Shares...),
	}
}

func NewStore(snaps storage.Snapshotter, session SessionChecker) (*Store, error) {
	s := &Store{snaps: snaps, session: session}

	st := State{}
	found, err := snaps.Load(Slot, &st)
	if err != nil {
		return nil, fmt.Errorf("interaction/store: can't load snapshot: %w", err)
	}
	if found {
		s.st = st
	}
	return s, nil
}

func (s *Store) Subscribe(fn func(State)) func() {
	return s.bus.Subscribe(fn)
}

// AddReaction sets the (post, user) pair's reaction. A different type
// replaces the prior reaction; the same type again removes it.
func (s *Store) AddReaction(postID, userID, reactionType string) error {
	if err := s.guard(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st.clone()
	kept := s.st.Reactions[:0]
	same := false
	for _, r := range s.st.Reactions {
		if common.SameID(r.PostID, postID) && common.SameID(r.UserID, userID) {
			same = r.Type == reactionType
			continue
		}
		kept = append(kept, r)
	}
	s.st.Reactions = kept
	if !same {
		s.st.Reactions = append(s.st.Reactions, Reaction{
			PostID:    postID,
			UserID:    userID,
			Type:      reactionType,
			CreatedAt: time.Now(),
		})
	}

	if err := s.commit(); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// RemoveReaction drops the pair's reaction if present.
func (s *Store) RemoveReaction(postID, userID string) error {
	if err := s.guard(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st.clone()
	kept := s.st.Reactions[:0]
	for _, r := range s.st.Reactions {
		if common.SameID(r.PostID, postID) && common.SameID(r.UserID, userID) {
			continue
		}
		kept = append(kept, r)
	}
	s.st.Reactions = kept

	if err := s.commit(); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// ReportPost appends a pending report.
func (s *Store) ReportPost(postID, userID, reason string) (*Report, error) {
	if err := s.guard(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := Report{
		ID:        common.NewID(),
		PostID:    postID,
		UserID:    userID,
		Reason:    reason,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	s.st.Reports = append(s.st.Reports, r)

	if err := s.commit(); err != nil {
		s.st.Reports = s.st.Reports[:len(s.st.Reports)-1]
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpdateReportStatus(reportID string, status ReportStatus) error {
	if !ValidStatus(status) {
		return fmt.Errorf("interaction/store: unknown report status %q: %w", status, common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.st.Reports {
		if common.SameID(s.st.Reports[i].ID, reportID) {
			prev := s.st.Reports[i].Status
			s.st.Reports[i].Status = status
			if err := s.commit(); err != nil {
				s.st.Reports[i].Status = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("interaction/store: no report %s: %w", reportID, common.ErrNotFound)
}

// ToggleBookmark flips the pair's presence in the bookmark log.
func (s *Store) ToggleBookmark(postID, userID string) (bookmarked bool, err error) {
	if err := s.guard(userID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st.clone()
	kept := s.st.Bookmarks[:0]
	found := false
	for _, b := range s.st.Bookmarks {
		if common.SameID(b.PostID, postID) && common.SameID(b.UserID, userID) {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	s.st.Bookmarks = kept
	if !found {
		s.st.Bookmarks = append(s.st.Bookmarks, Bookmark{
			PostID:    postID,
			UserID:    userID,
			CreatedAt: time.Now(),
		})
	}

	if err := s.commit(); err != nil {
		s.st = prev
		return false, err
	}
	return !found, nil
}

// RecordShare appends to the share log. Shares are append-only; sharing the
// same post twice is two records.
func (s *Store) RecordShare(postID, userID, platform string) error {
	if err := s.guard(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.Shares = append(s.st.Shares, Share{
		PostID:    postID,
		UserID:    userID,
		Platform:  platform,
		CreatedAt: time.Now(),
	})

	if err := s.commit(); err != nil {
		s.st.Shares = s.st.Shares[:len(s.st.Shares)-1]
		return err
	}
	return nil
}

// PostAnalytics recomputes the per-post counts from the logs.
func (s *Store) PostAnalytics(postID string) Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := Analytics{}
	for _, r := range s.st.Reactions {
		if common.SameID(r.PostID, postID) {
			a.ReactionCount++
		}
	}
	for _, b := range s.st.Bookmarks {
		if common.SameID(b.PostID, postID) {
			a.BookmarkCount++
		}
	}
	for _, sh := range s.st.Shares {
		if common.SameID(sh.PostID, postID) {
			a.ShareCount++
		}
	}
	for _, r := range s.st.Reports {
		if common.SameID(r.PostID, postID) {
			a.ReportCount++
		}
	}
	return a
}

func (s *Store) ReactionsByUser(userID string) []Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Reaction{}
	for _, r := range s.st.Reactions {
		if common.SameID(r.UserID, userID) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) BookmarksByUser(userID string) []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Bookmark{}
	for _, b := range s.st.Bookmarks {
		if common.SameID(b.UserID, userID) {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) ReportsForPost(postID string) []Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Report{}
	for _, r := range s.st.Reports {
		if common.SameID(r.PostID, postID) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) guard(userID string) error {
	if s.session == nil || !s.session.Active(userID) {
		return fmt.Errorf("interaction/store: write requires a session: %w", common.ErrUnauthenticated)
	}
	return nil
}

func (s *Store) commit() error {
	if err := s.snaps.Save(Slot, s.st); err != nil {
		return fmt.Errorf("interaction/store: can't persist state: %w", err)
	}
	s.bus.Publish(s.st.clone())
	return nil
}
