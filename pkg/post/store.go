package post

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"forum/pkg/common"
	"forum/pkg/storage"
	"forum/pkg/voting"
)

// Slot is the persistence slot holding the post collection.
const Slot = "forum-storage"

// SessionChecker is the authentication boundary: every write that needs an
// identity asks it before touching state. The user store and the session
// manager both satisfy it.
type SessionChecker interface {
	Active(userID string) bool
}

// Draft is the caller-supplied part of a new post.
type Draft struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	AuthorID string   `json:"authorId"`
}

// Patch enumerates the fields Update may change. Nil fields are untouched.
type Patch struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// CommentDraft is the caller-supplied part of a new comment.
type CommentDraft struct {
	AuthorID string `json:"authorId"`
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

// Store owns the post collection. Mutations are serialized under one lock,
// persisted after they fully succeed and then published to subscribers as a
// copied snapshot. Deleting a post does not touch the interaction logs;
// orphaned records over there are tolerated by design of the flat-log store.
type Store struct {
	mu      sync.Mutex
	posts   []*Post
	session SessionChecker
	snaps   storage.Snapshotter
	bus     common.Broadcaster[[]Post]
}

type state struct {
	Posts []*Post `json:"posts"`
}

func NewStore(snaps storage.Snapshotter, session SessionChecker) (*Store, error) {
	s := &Store{snaps: snaps, session: session}

	st := state{}
	found, err := snaps.Load(Slot, &st)
	if err != nil {
		return nil, fmt.Errorf("post/store: can't load snapshot: %w", err)
	}
	if found {
		s.posts = st.Posts
	}
	return s, nil
}

func (s *Store) Subscribe(fn func([]Post)) func() {
	return s.bus.Subscribe(fn)
}

// Add creates a post with a fresh id and zeroed counters.
func (s *Store) Add(d Draft) (*Post, error) {
	if err := s.guard(d.AuthorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Content) == "" {
		return nil, fmt.Errorf("post/store: title and content are required: %w", common.ErrValidation)
	}
	if !ValidCategory(d.Category) {
		return nil, fmt.Errorf("post/store: unknown category %q: %w", d.Category, common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := &Post{
		ID:        common.NewID(),
		Title:     d.Title,
		Content:   d.Content,
		Category:  d.Category,
		Tags:      append([]string{}, d.Tags...),
		AuthorID:  d.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
		Votes:     []voting.Vote{},
		Likes:     []string{},
		Bookmarks: []string{},
		Comments:  []Comment{},
	}
	s.posts = append(s.posts, p)

	if err := s.commit(); err != nil {
		s.posts = s.posts[:len(s.posts)-1]
		return nil, err
	}
	return p.clone(), nil
}

// Get returns the post with the given id. Lookup is exact-match but
// tolerates numeric/string id coercion.
func (s *Store) Get(id string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookup(id)
	if p == nil {
		return nil, fmt.Errorf("post/store: no post %s: %w", id, common.ErrNotFound)
	}
	return p.clone(), nil
}

// Update merges the patch into an existing post and bumps updatedAt. It
// never creates a post.
func (s *Store) Update(id string, patch Patch) (*Post, error) {
	if err := s.guard(""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(id)
	if p == nil {
		return nil, fmt.Errorf("post/store: no post %s: %w", id, common.ErrNotFound)
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("post/store: title can't be empty: %w", common.ErrValidation)
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, fmt.Errorf("post/store: content can't be empty: %w", common.ErrValidation)
	}
	if patch.Category != nil && !ValidCategory(*patch.Category) {
		return nil, fmt.Errorf("post/store: unknown category %q: %w", *patch.Category, common.ErrValidation)
	}

	prev := p.clone()
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Tags != nil {
		p.Tags = append([]string{}, (*patch.Tags)...)
	}
	p.UpdatedAt = time.Now()

	if err := s.commit(); err != nil {
		*p = *prev
		return nil, err
	}
	return p.clone(), nil
}

// Delete removes the post immediately. There is no soft delete and no
// cascade into the interaction store.
func (s *Store) Delete(id string) error {
	if err := s.guard(""); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.posts {
		if common.SameID(p.ID, id) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("post/store: no post %s: %w", id, common.ErrNotFound)
	}

	removed := s.posts[idx]
	s.posts = append(s.posts[:idx], s.posts[idx+1:]...)

	if err := s.commit(); err != nil {
		s.posts = append(s.posts[:idx], append([]*Post{removed}, s.posts[idx:]...)...)
		return err
	}
	return nil
}

// Vote records userID's vote on the post. Per user the net contribution is
// always -1, 0 or +1: a new direction replaces the prior vote, repeating
// the same direction retracts it. Score is recomputed from the vote list.
func (s *Store) Vote(postID, userID string, score voting.Score) (*Post, error) {
	if err := s.guard(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return nil, fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}

	prev := p.clone()
	p.Votes = voting.Apply(p.Votes, userID, score)
	p.Score = voting.Total(p.Votes)

	if err := s.commit(); err != nil {
		*p = *prev
		return nil, err
	}
	return p.clone(), nil
}

// VoteComment applies the same single-vote semantics to a comment.
func (s *Store) VoteComment(postID, commentID, userID string, score voting.Score) (*Comment, error) {
	if err := s.guard(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return nil, fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}
	c := p.comment(commentID)
	if c == nil {
		return nil, fmt.Errorf("post/store: no comment %s on post %s: %w", commentID, postID, common.ErrNotFound)
	}

	prev := c.clone()
	c.Votes = voting.Apply(c.Votes, userID, score)
	c.Score = voting.Total(c.Votes)

	if err := s.commit(); err != nil {
		*c = *prev
		return nil, err
	}
	return c.clone(), nil
}

// ToggleLike flips userID's presence in the post's likes set and reports
// whether the post is liked afterwards.
func (s *Store) ToggleLike(postID, userID string) (liked bool, err error) {
	if err := s.guard(userID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return false, fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}

	prev := p.clone()
	p.Likes, liked = toggle(p.Likes, userID)

	if err := s.commit(); err != nil {
		*p = *prev
		return false, err
	}
	return liked, nil
}

// ToggleBookmark flips userID's presence in the post's bookmark set.
// Applying it twice leaves the set as it was.
func (s *Store) ToggleBookmark(postID, userID string) (bookmarked bool, err error) {
	if err := s.guard(userID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return false, fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}

	prev := p.clone()
	p.Bookmarks, bookmarked = toggle(p.Bookmarks, userID)

	if err := s.commit(); err != nil {
		*p = *prev
		return false, err
	}
	return bookmarked, nil
}

// AddComment appends a comment to the post in chronological order and keeps
// commentCount in step. A reply's parent must already exist on the post.
func (s *Store) AddComment(postID string, d CommentDraft) (*Comment, error) {
	if err := s.guard(d.AuthorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Content) == "" {
		return nil, fmt.Errorf("post/store: comment content is required: %w", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return nil, fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}
	if d.ParentID != "" && p.comment(d.ParentID) == nil {
		return nil, fmt.Errorf("post/store: parent comment %s not on post %s: %w", d.ParentID, postID, common.ErrNotFound)
	}

	now := time.Now()
	c := Comment{
		ID:        common.NewID(),
		PostID:    p.ID,
		ParentID:  d.ParentID,
		AuthorID:  d.AuthorID,
		Content:   d.Content,
		CreatedAt: now,
		UpdatedAt: now,
		Votes:     []voting.Vote{},
	}
	p.Comments = append(p.Comments, c)
	p.CommentCount = len(p.Comments)

	if err := s.commit(); err != nil {
		p.Comments = p.Comments[:len(p.Comments)-1]
		p.CommentCount = len(p.Comments)
		return nil, err
	}
	return c.clone(), nil
}

func (s *Store) EditComment(postID, commentID, newContent string) (*Comment, error) {
	if err := s.guard(""); err != nil {
		return nil, err
	}
	if strings.TrimSpace(newContent) == "" {
		return nil, fmt.Errorf("post/store: comment content is required: %w", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return nil, fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}
	c := p.comment(commentID)
	if c == nil {
		return nil, fmt.Errorf("post/store: no comment %s on post %s: %w", commentID, postID, common.ErrNotFound)
	}

	prev := c.clone()
	c.Content = newContent
	c.UpdatedAt = time.Now()

	if err := s.commit(); err != nil {
		*c = *prev
		return nil, err
	}
	return c.clone(), nil
}

// DeleteComment removes one comment and decrements commentCount. Replies to
// it are kept: they stay addressable by id, just without a parent.
func (s *Store) DeleteComment(postID, commentID string) error {
	if err := s.guard(""); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}

	idx := -1
	for i := range p.Comments {
		if common.SameID(p.Comments[i].ID, commentID) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("post/store: no comment %s on post %s: %w", commentID, postID, common.ErrNotFound)
	}

	prev := p.clone()
	p.Comments = append(p.Comments[:idx], p.Comments[idx+1:]...)
	p.CommentCount = len(p.Comments)

	if err := s.commit(); err != nil {
		*p = *prev
		return err
	}
	return nil
}

// RecordView bumps the view counter. Anonymous reads count too, so there is
// no session guard here.
func (s *Store) RecordView(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(postID)
	if p == nil {
		return fmt.Errorf("post/store: no post %s: %w", postID, common.ErrNotFound)
	}
	p.Views++
	if err := s.commit(); err != nil {
		p.Views--
		return err
	}
	return nil
}

// All returns a copy of every post in insertion order.
func (s *Store) All() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) ByAuthor(authorID string) []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Post{}
	for _, p := range s.posts {
		if common.SameID(p.AuthorID, authorID) {
			out = append(out, *p.clone())
		}
	}
	return out
}

func (s *Store) ByCategory(category string) []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Post{}
	for _, p := range s.posts {
		if p.Category == category {
			out = append(out, *p.clone())
		}
	}
	return out
}

// guard rejects writes with no active session, leaving state untouched.
func (s *Store) guard(userID string) error {
	if s.session == nil || !s.session.Active(userID) {
		return fmt.Errorf("post/store: write requires a session: %w", common.ErrUnauthenticated)
	}
	return nil
}

func (s *Store) lookup(id string) *Post {
	for _, p := range s.posts {
		if common.SameID(p.ID, id) {
			return p
		}
	}
	return nil
}

func (p *Post) comment(commentID string) *Comment {
	for i := range p.Comments {
		if common.SameID(p.Comments[i].ID, commentID) {
			return &p.Comments[i]
		}
	}
	return nil
}

func (s *Store) commit() error {
	if err := s.snaps.Save(Slot, state{Posts: s.posts}); err != nil {
		return fmt.Errorf("post/store: can't persist state: %w", err)
	}
	s.bus.Publish(s.snapshot())
	return nil
}

func (s *Store) snapshot() []Post {
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p.clone())
	}
	return out
}

func toggle(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), false
		}
	}
	return append(ids, id), true
}
