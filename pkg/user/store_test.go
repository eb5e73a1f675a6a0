package user

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/pkg/common"
	"forum/pkg/storage"
)

// brokenSnaps accepts a fixed number of saves and fails afterwards.
type brokenSnaps struct {
	saves   int
	allowed int
}

func (b *brokenSnaps) Save(string, interface{}) error {
	b.saves++
	if b.saves > b.allowed {
		return errors.New("disk full")
	}
	return nil
}

func (b *brokenSnaps) Load(string, interface{}) (bool, error) { return false, nil }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(storage.NewMemory())
	require.NoError(t, err)
	return s
}

func register(t *testing.T, s *Store, username string) *User {
	t.Helper()
	u, err := s.Register(Credentials{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestStore(t)
		u := register(t, s, "alice")

		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, RoleUser, u.Role)
		assert.Equal(t, []string{"New Member"}, u.Badges)
		assert.True(t, u.Preferences.EmailNotifications)
		assert.Equal(t, "daily", u.Preferences.DigestFrequency)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		s := newTestStore(t)
		register(t, s, "alice")

		_, err := s.Register(Credentials{Username: "Alice", Email: "other@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		s := newTestStore(t)
		register(t, s, "alice")

		_, err := s.Register(Credentials{Username: "bob", Email: "alice@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("bad credentials are rejected", func(t *testing.T) {
		s := newTestStore(t)
		for _, c := range []Credentials{
			{Username: "x", Email: "x@example.com", Password: "secret1"},
			{Username: "has space", Email: "x@example.com", Password: "secret1"},
			{Username: "fine", Email: "not-an-email", Password: "secret1"},
			{Username: "fine", Email: "x@example.com", Password: "short"},
		} {
			_, err := s.Register(c)
			assert.ErrorIs(t, err, common.ErrValidation)
		}
	})
}

func TestLoginLogout(t *testing.T) {
	t.Run("login by username", func(t *testing.T) {
		s := newTestStore(t)
		register(t, s, "alice")

		u, err := s.Login("alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.True(t, s.Active(""))
	})

	t.Run("login by email", func(t *testing.T) {
		s := newTestStore(t)
		register(t, s, "alice")

		_, err := s.Login("alice@example.com", "secret1")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		s := newTestStore(t)
		register(t, s, "alice")

		_, err := s.Login("alice", "wrong-password")
		assert.ErrorIs(t, err, common.ErrValidation)
		assert.False(t, s.Active(""))
	})

	t.Run("unknown user", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Login("nobody", "secret1")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("logout clears the session", func(t *testing.T) {
		s := newTestStore(t)
		register(t, s, "alice")
		_, err := s.Login("alice", "secret1")
		require.NoError(t, err)

		require.NoError(t, s.Logout())
		_, ok := s.Current()
		assert.False(t, ok)
		assert.False(t, s.Active(""))
	})
}

func TestSessionSurvivesRestart(t *testing.T) {
	snaps := storage.NewMemory()

	s, err := NewStore(snaps)
	require.NoError(t, err)
	u, err := s.Register(Credentials{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = s.Login("alice", "secret1")
	require.NoError(t, err)

	reloaded, err := NewStore(snaps)
	require.NoError(t, err)
	cur, ok := reloaded.Current()
	require.True(t, ok)
	assert.Equal(t, u.ID, cur.ID)

	again, err := reloaded.Login("alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestFollow(t *testing.T) {
	t.Run("follow is symmetric", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		bob := register(t, s, "bob")

		require.NoError(t, s.Follow(alice.ID, bob.ID))

		a, _ := s.ByID(alice.ID)
		b, _ := s.ByID(bob.ID)
		assert.Equal(t, []string{bob.ID}, a.Following)
		assert.Equal(t, []string{alice.ID}, b.Followers)
	})

	t.Run("double follow is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		bob := register(t, s, "bob")

		require.NoError(t, s.Follow(alice.ID, bob.ID))
		require.NoError(t, s.Follow(alice.ID, bob.ID))

		a, _ := s.ByID(alice.ID)
		assert.Len(t, a.Following, 1)
	})

	t.Run("unfollow removes both sides", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		bob := register(t, s, "bob")

		require.NoError(t, s.Follow(alice.ID, bob.ID))
		require.NoError(t, s.Unfollow(alice.ID, bob.ID))

		a, _ := s.ByID(alice.ID)
		b, _ := s.ByID(bob.ID)
		assert.Empty(t, a.Following)
		assert.Empty(t, b.Followers)
	})

	t.Run("self follow is rejected", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		assert.ErrorIs(t, s.Follow(alice.ID, alice.ID), common.ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		assert.ErrorIs(t, s.Follow(alice.ID, "missing"), common.ErrNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Run("patch only touches set fields", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")

		bio := "gopher"
		u, err := s.UpdateProfile(alice.ID, ProfilePatch{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "gopher", u.Bio)
		assert.Equal(t, alice.Email, u.Email)
	})

	t.Run("session copy stays in sync", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		_, err := s.Login("alice", "secret1")
		require.NoError(t, err)

		bio := "gopher"
		_, err = s.UpdateProfile(alice.ID, ProfilePatch{Bio: &bio})
		require.NoError(t, err)

		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, "gopher", cur.Bio)
	})

	t.Run("email must stay unique", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		register(t, s, "bob")

		taken := "bob@example.com"
		_, err := s.UpdateProfile(alice.ID, ProfilePatch{Email: &taken})
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestStatsAndBadges(t *testing.T) {
	t.Run("stats accumulate per kind", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")

		require.NoError(t, s.UpdateStats(alice.ID, StatPosts, 1))
		require.NoError(t, s.UpdateStats(alice.ID, StatComments, 2))
		require.NoError(t, s.UpdateStats(alice.ID, StatReceivedLikes, 1))
		require.NoError(t, s.UpdateStats(alice.ID, StatReceivedLikes, -1))

		u, _ := s.ByID(alice.ID)
		assert.Equal(t, Stats{Posts: 1, Comments: 2, ReceivedLikes: 0}, u.Stats)
	})

	t.Run("unknown stat kind is rejected", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")
		assert.ErrorIs(t, s.UpdateStats(alice.ID, StatKind("karma"), 1), common.ErrValidation)
	})

	t.Run("reputation can go negative", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")

		require.NoError(t, s.UpdateReputation(alice.ID, -5))
		u, _ := s.ByID(alice.ID)
		assert.Equal(t, -5, u.Reputation)
	})

	t.Run("badge is awarded once", func(t *testing.T) {
		s := newTestStore(t)
		alice := register(t, s, "alice")

		require.NoError(t, s.AwardBadge(alice.ID, "First Post"))
		require.NoError(t, s.AwardBadge(alice.ID, "First Post"))

		u, _ := s.ByID(alice.ID)
		assert.Equal(t, []string{"New Member", "First Post"}, u.Badges)
	})
}

func TestCommitFailureLeavesStateIntact(t *testing.T) {
	t.Run("follow rolls back both sides", func(t *testing.T) {
		snaps := &brokenSnaps{allowed: 2}
		s, err := NewStore(snaps)
		require.NoError(t, err)
		alice := register(t, s, "alice")
		bob := register(t, s, "bob")

		require.Error(t, s.Follow(alice.ID, bob.ID))

		a, _ := s.ByID(alice.ID)
		b, _ := s.ByID(bob.ID)
		assert.Empty(t, a.Following)
		assert.Empty(t, b.Followers)

		// A later successful commit must not resurrect the failed change.
		snaps.allowed = snaps.saves + 1
		require.NoError(t, s.UpdateReputation(alice.ID, 1))
		a, _ = s.ByID(alice.ID)
		assert.Empty(t, a.Following)
	})

	t.Run("unfollow rolls back both sides", func(t *testing.T) {
		snaps := &brokenSnaps{allowed: 3}
		s, err := NewStore(snaps)
		require.NoError(t, err)
		alice := register(t, s, "alice")
		bob := register(t, s, "bob")
		require.NoError(t, s.Follow(alice.ID, bob.ID))

		require.Error(t, s.Unfollow(alice.ID, bob.ID))

		a, _ := s.ByID(alice.ID)
		b, _ := s.ByID(bob.ID)
		assert.Equal(t, []string{bob.ID}, a.Following)
		assert.Equal(t, []string{alice.ID}, b.Followers)
	})

	t.Run("profile patch rolls back, session copy included", func(t *testing.T) {
		snaps := &brokenSnaps{allowed: 2}
		s, err := NewStore(snaps)
		require.NoError(t, err)
		alice := register(t, s, "alice")
		_, err = s.Login("alice", "secret1")
		require.NoError(t, err)

		bio := "gopher"
		_, err = s.UpdateProfile(alice.ID, ProfilePatch{Bio: &bio})
		require.Error(t, err)

		u, _ := s.ByID(alice.ID)
		assert.Empty(t, u.Bio)
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Empty(t, cur.Bio)
	})

	t.Run("counters and badges roll back", func(t *testing.T) {
		snaps := &brokenSnaps{allowed: 1}
		s, err := NewStore(snaps)
		require.NoError(t, err)
		alice := register(t, s, "alice")

		require.Error(t, s.UpdateReputation(alice.ID, 5))
		require.Error(t, s.UpdateStats(alice.ID, StatPosts, 1))
		require.Error(t, s.AwardBadge(alice.ID, "First Post"))
		require.Error(t, s.AddAchievement(alice.ID, "streak"))

		disable := false
		require.Error(t, s.UpdatePreferences(alice.ID, PreferencesPatch{PushNotifications: &disable}))

		u, _ := s.ByID(alice.ID)
		assert.Equal(t, 0, u.Reputation)
		assert.Equal(t, Stats{}, u.Stats)
		assert.Equal(t, []string{"New Member"}, u.Badges)
		assert.Empty(t, u.Achievements)
		assert.True(t, u.Preferences.PushNotifications)
	})
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)

	var got []User
	unsubscribe := s.Subscribe(func(users []User) { got = users })

	register(t, s, "alice")
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)

	unsubscribe()
	register(t, s, "bob")
	assert.Len(t, got, 1)
}
