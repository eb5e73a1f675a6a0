package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/pkg/post"
	"forum/pkg/user"
	"forum/pkg/voting"
)

func fixturePosts() []post.Post {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []post.Post{
		{
			ID: "1", Title: "Generics in Go", Content: "type parameters", Category: "Tutorial",
			Tags: []string{"go"}, CreatedAt: base,
			Votes: []voting.Vote{{UserID: "u1", Score: voting.ScoreUp}}, Score: 1,
		},
		{
			ID: "2", Title: "Weekly thread", Content: "anything goes", Category: "Discussion",
			Tags: []string{"meta"}, CreatedAt: base.Add(time.Hour),
			Likes: []string{"u1", "u2"},
		},
		{
			ID: "3", Title: "How to test channels", Content: "select with timeout", Category: "Question",
			Tags: []string{"go", "testing"}, CreatedAt: base.Add(2 * time.Hour),
			Comments: []post.Comment{{ID: "c1"}, {ID: "c2"}},
		},
	}
}

func TestSearch(t *testing.T) {
	posts := fixturePosts()

	t.Run("matches title, content or tags", func(t *testing.T) {
		assert.Len(t, Search(posts, "generics"), 1)
		assert.Len(t, Search(posts, "TIMEOUT"), 1)
		assert.Len(t, Search(posts, "go"), 3) // "anything goes" matches too
	})

	t.Run("empty term keeps everything", func(t *testing.T) {
		assert.Len(t, Search(posts, ""), 3)
	})

	t.Run("no match yields an empty view", func(t *testing.T) {
		assert.Empty(t, Search(posts, "rust"))
	})
}

func TestFilterCategory(t *testing.T) {
	posts := fixturePosts()

	assert.Len(t, FilterCategory(posts, "Question"), 1)
	assert.Len(t, FilterCategory(posts, ""), 3)
	assert.Len(t, FilterCategory(posts, "All"), 3)
	assert.Empty(t, FilterCategory(posts, "Announcement"))
}

func TestSort(t *testing.T) {
	posts := fixturePosts()

	t.Run("newest", func(t *testing.T) {
		got := Sort(posts, SortNewest)
		assert.Equal(t, []string{"3", "2", "1"}, ids(got))
	})

	t.Run("oldest", func(t *testing.T) {
		got := Sort(posts, SortOldest)
		assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	})

	t.Run("mostVoted", func(t *testing.T) {
		got := Sort(posts, SortMostVoted)
		assert.Equal(t, "1", got[0].ID)
	})

	t.Run("mostLiked", func(t *testing.T) {
		got := Sort(posts, SortMostLiked)
		assert.Equal(t, "2", got[0].ID)
	})

	t.Run("mostCommented", func(t *testing.T) {
		got := Sort(posts, SortMostCommented)
		assert.Equal(t, "3", got[0].ID)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		got := Sort(posts, SortMostVoted)
		// posts 2 and 3 both have score 0
		assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	})

	t.Run("input is left untouched", func(t *testing.T) {
		_ = Sort(posts, SortNewest)
		assert.Equal(t, "1", posts[0].ID)
	})
}

func TestApply(t *testing.T) {
	got := Apply(fixturePosts(), Query{Search: "go", Category: "Question", Sort: SortNewest})
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestWithAuthors(t *testing.T) {
	posts := []post.Post{
		{ID: "1", AuthorID: "u1"},
		{ID: "2", AuthorID: "gone"},
	}
	lookup := func(id string) (*user.User, error) {
		if id == "u1" {
			return &user.User{ID: "u1", Username: "alice", Avatar: "a.png"}, nil
		}
		return nil, errors.New("not found")
	}

	views := WithAuthors(posts, lookup)
	require.Len(t, views, 2)
	assert.Equal(t, Author{ID: "u1", Username: "alice", Avatar: "a.png"}, views[0].Author)
	// Deleted authors leave a zero Author, the post itself stays visible.
	assert.Equal(t, Author{}, views[1].Author)
}

func TestThreads(t *testing.T) {
	comments := []post.Comment{
		{ID: "c1"},
		{ID: "c2", ParentID: "c1"},
		{ID: "c3", ParentID: "c2"},
		{ID: "c4", ParentID: "deleted"},
	}

	threads := Threads(comments)
	require.Len(t, threads, 2)

	assert.Equal(t, "c1", threads[0].ID)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "c2", threads[0].Replies[0].ID)
	require.Len(t, threads[0].Replies[0].Replies, 1)
	assert.Equal(t, "c3", threads[0].Replies[0].Replies[0].ID)

	// Orphaned reply surfaces as a root.
	assert.Equal(t, "c4", threads[1].ID)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("first page", func(t *testing.T) {
		page, hasMore := Paginate(items, 0, 2)
		assert.Equal(t, []int{1, 2}, page)
		assert.True(t, hasMore)
	})

	t.Run("last page", func(t *testing.T) {
		page, hasMore := Paginate(items, 4, 2)
		assert.Equal(t, []int{5}, page)
		assert.False(t, hasMore)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, hasMore := Paginate(items, 10, 2)
		assert.Empty(t, page)
		assert.False(t, hasMore)
	})

	t.Run("defaults apply for bad arguments", func(t *testing.T) {
		page, hasMore := Paginate(items, -1, 0)
		assert.Equal(t, items, page)
		assert.False(t, hasMore)
	})
}

func TestPager(t *testing.T) {
	views := make([]PostView, 5)
	p := NewPager(2)

	visible, hasMore := p.LoadMore(views)
	assert.Len(t, visible, 2)
	assert.True(t, hasMore)

	visible, hasMore = p.LoadMore(views)
	assert.Len(t, visible, 4)
	assert.True(t, hasMore)

	visible, hasMore = p.LoadMore(views)
	assert.Len(t, visible, 5)
	assert.False(t, hasMore)

	p.Reset()
	visible, hasMore = p.Visible(views)
	assert.Empty(t, visible)
	assert.True(t, hasMore)
}

func TestDebouncer(t *testing.T) {
	t.Run("only the last call in a burst runs", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		fired := make(chan string, 3)

		d.Do(func() { fired <- "first" })
		d.Do(func() { fired <- "second" })

		select {
		case got := <-fired:
			assert.Equal(t, "second", got)
		case <-time.After(time.Second):
			t.Fatal("debounced call never fired")
		}
		select {
		case got := <-fired:
			t.Fatalf("unexpected extra call %q", got)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("stop cancels the pending call", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		fired := make(chan struct{}, 1)

		d.Do(func() { fired <- struct{}{} })
		d.Stop()

		select {
		case <-fired:
			t.Fatal("stopped call still fired")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func ids(posts []post.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
