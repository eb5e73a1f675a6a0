package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/pkg/common"
	"forum/pkg/storage"
)

type sessionStub bool

func (s sessionStub) Active(string) bool { return bool(s) }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(storage.NewMemory(), sessionStub(true))
	require.NoError(t, err)
	return s
}

func TestReactions(t *testing.T) {
	t.Run("one reaction per pair", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.AddReaction("p1", "u1", "heart"))
		require.NoError(t, s.AddReaction("p1", "u1", "fire"))

		got := s.ReactionsByUser("u1")
		require.Len(t, got, 1)
		assert.Equal(t, "fire", got[0].Type)
	})

	t.Run("same type again toggles off", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.AddReaction("p1", "u1", "heart"))
		require.NoError(t, s.AddReaction("p1", "u1", "heart"))

		assert.Empty(t, s.ReactionsByUser("u1"))
	})

	t.Run("remove drops only the pair", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.AddReaction("p1", "u1", "heart"))
		require.NoError(t, s.AddReaction("p1", "u2", "heart"))
		require.NoError(t, s.RemoveReaction("p1", "u1"))

		assert.Empty(t, s.ReactionsByUser("u1"))
		assert.Len(t, s.ReactionsByUser("u2"), 1)
	})

	t.Run("requires a session", func(t *testing.T) {
		s, err := NewStore(storage.NewMemory(), sessionStub(false))
		require.NoError(t, err)
		assert.ErrorIs(t, s.AddReaction("p1", "u1", "heart"), common.ErrUnauthenticated)
	})
}

func TestReports(t *testing.T) {
	t.Run("new reports start pending", func(t *testing.T) {
		s := newTestStore(t)

		r, err := s.ReportPost("p1", "u1", "spam")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, r.Status)
		assert.NotEmpty(t, r.ID)
	})

	t.Run("status transitions", func(t *testing.T) {
		s := newTestStore(t)
		r, err := s.ReportPost("p1", "u1", "spam")
		require.NoError(t, err)

		require.NoError(t, s.UpdateReportStatus(r.ID, StatusResolved))
		got := s.ReportsForPost("p1")
		require.Len(t, got, 1)
		assert.Equal(t, StatusResolved, got[0].Status)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		s := newTestStore(t)
		r, err := s.ReportPost("p1", "u1", "spam")
		require.NoError(t, err)
		assert.ErrorIs(t, s.UpdateReportStatus(r.ID, ReportStatus("shrugged")), common.ErrValidation)
	})

	t.Run("missing report", func(t *testing.T) {
		s := newTestStore(t)
		assert.ErrorIs(t, s.UpdateReportStatus("missing", StatusResolved), common.ErrNotFound)
	})
}

func TestToggleBookmark(t *testing.T) {
	s := newTestStore(t)

	bookmarked, err := s.ToggleBookmark("p1", "u1")
	require.NoError(t, err)
	assert.True(t, bookmarked)
	assert.Len(t, s.BookmarksByUser("u1"), 1)

	bookmarked, err = s.ToggleBookmark("p1", "u1")
	require.NoError(t, err)
	assert.False(t, bookmarked)
	assert.Empty(t, s.BookmarksByUser("u1"))
}

func TestShares(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordShare("p1", "u1", "twitter"))
	require.NoError(t, s.RecordShare("p1", "u1", "twitter"))

	assert.Equal(t, 2, s.PostAnalytics("p1").ShareCount)
}

func TestPostAnalytics(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddReaction("p1", "u1", "heart"))
	require.NoError(t, s.AddReaction("p1", "u2", "fire"))
	_, err := s.ToggleBookmark("p1", "u1")
	require.NoError(t, err)
	require.NoError(t, s.RecordShare("p1", "u2", "mastodon"))
	_, err = s.ReportPost("p1", "u3", "off topic")
	require.NoError(t, err)

	// Interactions on other posts do not leak in.
	require.NoError(t, s.AddReaction("p2", "u1", "heart"))

	a := s.PostAnalytics("p1")
	assert.Equal(t, Analytics{ReactionCount: 2, BookmarkCount: 1, ShareCount: 1, ReportCount: 1}, a)
}

func TestPersistence(t *testing.T) {
	snaps := storage.NewMemory()

	s, err := NewStore(snaps, sessionStub(true))
	require.NoError(t, err)
	require.NoError(t, s.AddReaction("p1", "u1", "heart"))
	_, err = s.ToggleBookmark("p1", "u1")
	require.NoError(t, err)

	reloaded, err := NewStore(snaps, sessionStub(true))
	require.NoError(t, err)
	assert.Len(t, reloaded.ReactionsByUser("u1"), 1)
	assert.Len(t, reloaded.BookmarksByUser("u1"), 1)
}
