package user

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"forum/pkg/common"
	"forum/pkg/storage"
)

// Slot is the persistence slot holding the user directory and session.
const Slot = "user-storage"

type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfilePatch enumerates the fields updateProfile may change. Nil fields
// are left untouched.
type ProfilePatch struct {
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
	Bio    *string `json:"bio"`
}

type PreferencesPatch struct {
	EmailNotifications *bool   `json:"emailNotifications"`
	PushNotifications  *bool   `json:"pushNotifications"`
	DigestFrequency    *string `json:"digestFrequency"`
}

type StatKind string

const (
	StatPosts         StatKind = "posts"
	StatComments      StatKind = "comments"
	StatReceivedLikes StatKind = "received_likes"
)

// Store owns the user directory, the current session and the follow graph.
// All mutations run under one lock, persist the new state on success and
// then notify subscribers with a copied snapshot.
type Store struct {
	mu      sync.Mutex
	users   []*User
	current *User
	snaps   storage.Snapshotter
	bus     common.Broadcaster[[]User]
}

// state is the persisted shape. Password hashes are kept apart from the
// users because User hides its hash from JSON on purpose.
type state struct {
	Users     []*User           `json:"users"`
	Passwords map[string][]byte `json:"passwords"`
	CurrentID string            `json:"currentUser"`
}

func NewStore(snaps storage.Snapshotter) (*Store, error) {
	s := &Store{snaps: snaps}

	st := state{}
	found, err := snaps.Load(Slot, &st)
	if err != nil {
		return nil, fmt.Errorf("user/store: can't load snapshot: %w", err)
	}
	if found {
		s.users = st.Users
		for _, u := range s.users {
			u.Password = st.Passwords[u.ID]
		}
		if st.CurrentID != "" {
			if u := s.lookup(st.CurrentID); u != nil {
				s.current = u.clone()
			}
		}
	}
	return s, nil
}

// Subscribe registers a consumer of directory snapshots. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func([]User)) func() {
	return s.bus.Subscribe(fn)
}

// Register creates a user with a fresh id and the "New Member" badge.
// Username and email must be unique across the directory.
func (s *Store) Register(c Credentials) (*User, error) {
	if err := validateCredentials(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, c.Username) {
			return nil, fmt.Errorf("user/store: username %q is taken: %w", c.Username, common.ErrConflict)
		}
		if strings.EqualFold(u.Email, c.Email) {
			return nil, fmt.Errorf("user/store: email %q is taken: %w", c.Email, common.ErrConflict)
		}
	}

	salt := common.RandStringRunes(8)
	now := time.Now()
	u := &User{
		ID:        common.NewID(),
		Username:  c.Username,
		Email:     c.Email,
		Password:  common.HashPass(c.Password, salt),
		Avatar:    "https://api.dicebear.com/7.x/avataaars/svg?seed=" + c.Username,
		Role:      RoleUser,
		JoinedAt:  now,
		Following: []string{},
		Followers: []string{},
		Badges:    []string{"New Member"},
		Stats:     Stats{},
		Preferences: Preferences{
			EmailNotifications: true,
			PushNotifications:  true,
			DigestFrequency:    "daily",
		},
	}
	s.users = append(s.users, u)

	if err := s.commit(); err != nil {
		s.users = s.users[:len(s.users)-1]
		return nil, err
	}
	return u.clone(), nil
}

// Login checks the credentials against the directory and, on success, makes
// that user the current session. The directory itself is not mutated.
func (s *Store) Login(login, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u *User
	for _, cand := range s.users {
		if strings.EqualFold(cand.Username, login) || strings.EqualFold(cand.Email, login) {
			u = cand
			break
		}
	}
	if u == nil {
		return nil, fmt.Errorf("user/store: no user %q: %w", login, common.ErrNotFound)
	}

	if len(u.Password) < 8 {
		return nil, fmt.Errorf("user/store: password is invalid: %w", common.ErrValidation)
	}
	salt := string(u.Password[0:8])
	if !bytes.Equal(common.HashPass(password, salt), u.Password) {
		return nil, fmt.Errorf("user/store: password is invalid: %w", common.ErrValidation)
	}

	s.current = u.clone()
	if err := s.commit(); err != nil {
		s.current = nil
		return nil, err
	}
	return u.clone(), nil
}

func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = nil
	if err := s.commit(); err != nil {
		s.current = prev
		return err
	}
	return nil
}

// Current returns a copy of the session user, if any.
func (s *Store) Current() (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.clone(), true
}

// Active reports whether a session exists. It satisfies the session-check
// interface the other stores guard their writes with; the userID argument
// exists so server-side checkers can verify per-user sessions.
func (s *Store) Active(_ string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Follow adds followedID to followerID's following set and followerID to
// followedID's followers set in one step. Following an already-followed
// user is a no-op; following yourself is rejected.
func (s *Store) Follow(followerID, followedID string) error {
	return s.setFollow(followerID, followedID, true)
}

// Unfollow removes the edge added by Follow, both sides at once.
func (s *Store) Unfollow(followerID, followedID string) error {
	return s.setFollow(followerID, followedID, false)
}

func (s *Store) setFollow(followerID, followedID string, follow bool) error {
	if common.SameID(followerID, followedID) {
		return fmt.Errorf("user/store: can't follow yourself: %w", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	follower := s.lookup(followerID)
	followed := s.lookup(followedID)
	if follower == nil || followed == nil {
		return fmt.Errorf("user/store: follow pair not found: %w", common.ErrNotFound)
	}

	already := contains(follower.Following, followed.ID)
	if follow == already {
		return nil
	}

	prevFollower := follower.clone()
	prevFollowed := followed.clone()
	if follow {
		follower.Following = append(follower.Following, followed.ID)
		followed.Followers = append(followed.Followers, follower.ID)
	} else {
		follower.Following = remove(follower.Following, followed.ID)
		followed.Followers = remove(followed.Followers, follower.ID)
	}
	s.syncSession(follower)
	s.syncSession(followed)
	if err := s.commit(); err != nil {
		*follower = *prevFollower
		*followed = *prevFollowed
		s.syncSession(follower)
		s.syncSession(followed)
		return err
	}
	return nil
}

// UpdateProfile merges the patch into the target user. When the target is
// the session user the session copy is updated too, so the two never
// diverge for the same id.
func (s *Store) UpdateProfile(userID string, patch ProfilePatch) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookup(userID)
	if u == nil {
		return nil, fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}

	prev := u.clone()
	if patch.Email != nil {
		for _, other := range s.users {
			if other.ID != u.ID && strings.EqualFold(other.Email, *patch.Email) {
				return nil, fmt.Errorf("user/store: email %q is taken: %w", *patch.Email, common.ErrConflict)
			}
		}
		u.Email = *patch.Email
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	s.syncSession(u)
	if err := s.commit(); err != nil {
		*u = *prev
		s.syncSession(u)
		return nil, err
	}
	return u.clone(), nil
}

func (s *Store) UpdatePreferences(userID string, patch PreferencesPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookup(userID)
	if u == nil {
		return fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}
	prev := u.Preferences
	if patch.EmailNotifications != nil {
		u.Preferences.EmailNotifications = *patch.EmailNotifications
	}
	if patch.PushNotifications != nil {
		u.Preferences.PushNotifications = *patch.PushNotifications
	}
	if patch.DigestFrequency != nil {
		u.Preferences.DigestFrequency = *patch.DigestFrequency
	}
	s.syncSession(u)
	if err := s.commit(); err != nil {
		u.Preferences = prev
		s.syncSession(u)
		return err
	}
	return nil
}

// UpdateReputation adds delta to the user's reputation. Reputation has no
// floor or ceiling.
func (s *Store) UpdateReputation(userID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookup(userID)
	if u == nil {
		return fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}
	u.Reputation += delta
	s.syncSession(u)
	if err := s.commit(); err != nil {
		u.Reputation -= delta
		s.syncSession(u)
		return err
	}
	return nil
}

func (s *Store) UpdateStats(userID string, kind StatKind, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookup(userID)
	if u == nil {
		return fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}
	prev := u.Stats
	switch kind {
	case StatPosts:
		u.Stats.Posts += delta
	case StatComments:
		u.Stats.Comments += delta
	case StatReceivedLikes:
		u.Stats.ReceivedLikes += delta
	default:
		return fmt.Errorf("user/store: unknown stat %q: %w", kind, common.ErrValidation)
	}
	s.syncSession(u)
	if err := s.commit(); err != nil {
		u.Stats = prev
		s.syncSession(u)
		return err
	}
	return nil
}

// AwardBadge adds the badge once; awarding it again is a no-op.
func (s *Store) AwardBadge(userID, badge string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookup(userID)
	if u == nil {
		return fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}
	if contains(u.Badges, badge) {
		return nil
	}
	u.Badges = append(u.Badges, badge)
	s.syncSession(u)
	if err := s.commit(); err != nil {
		u.Badges = u.Badges[:len(u.Badges)-1]
		s.syncSession(u)
		return err
	}
	return nil
}

func (s *Store) AddAchievement(userID, achievement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookup(userID)
	if u == nil {
		return fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}
	u.Achievements = append(u.Achievements, achievement)
	s.syncSession(u)
	if err := s.commit(); err != nil {
		u.Achievements = u.Achievements[:len(u.Achievements)-1]
		s.syncSession(u)
		return err
	}
	return nil
}

func (s *Store) ByID(userID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(userID)
	if u == nil {
		return nil, fmt.Errorf("user/store: no user %s: %w", userID, common.ErrNotFound)
	}
	return u.clone(), nil
}

func (s *Store) ByUsername(username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u.clone(), nil
		}
	}
	return nil, fmt.Errorf("user/store: no user %q: %w", username, common.ErrNotFound)
}

// All returns a copy of the whole directory in registration order.
func (s *Store) All() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) lookup(userID string) *User {
	for _, u := range s.users {
		if common.SameID(u.ID, userID) {
			return u
		}
	}
	return nil
}

// syncSession refreshes the session copy after u changed.
func (s *Store) syncSession(u *User) {
	if s.current != nil && s.current.ID == u.ID {
		s.current = u.clone()
	}
}

// commit persists the new state and notifies subscribers. Callers hold the
// lock and must roll their mutation back when commit fails.
func (s *Store) commit() error {
	st := state{Users: s.users, Passwords: make(map[string][]byte, len(s.users))}
	for _, u := range s.users {
		st.Passwords[u.ID] = u.Password
	}
	if s.current != nil {
		st.CurrentID = s.current.ID
	}
	if err := s.snaps.Save(Slot, st); err != nil {
		return fmt.Errorf("user/store: can't persist state: %w", err)
	}
	s.bus.Publish(s.snapshot())
	return nil
}

func (s *Store) snapshot() []User {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u.clone())
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
