// Package feed derives display views over a post-store snapshot: search,
// category filter, sorting and pagination. Nothing here is persisted; every
// view is recomputed from the snapshot it is given.
package feed

import (
	"sort"
	"strings"

	"forum/pkg/post"
	"forum/pkg/user"
)

type SortOrder string

const (
	SortNewest        SortOrder = "newest"
	SortOldest        SortOrder = "oldest"
	SortMostVoted     SortOrder = "mostVoted"
	SortMostLiked     SortOrder = "mostLiked"
	SortMostCommented SortOrder = "mostCommented"
)

// Query describes one derived view: search and category compose with AND,
// then the result is ordered.
type Query struct {
	Search   string
	Category string
	Sort     SortOrder
}

// Apply computes the view. The input slice is left untouched; ties under
// any sort order keep their relative input order.
func Apply(posts []post.Post, q Query) []post.Post {
	out := Search(posts, q.Search)
	out = FilterCategory(out, q.Category)
	return Sort(out, q.Sort)
}

// Search keeps posts whose title, content or any tag contains term,
// case-insensitively. An empty term keeps everything.
func Search(posts []post.Post, term string) []post.Post {
	if term == "" {
		return append([]post.Post(nil), posts...)
	}
	needle := strings.ToLower(term)

	out := []post.Post{}
	for _, p := range posts {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p post.Post, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Content), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// FilterCategory keeps posts of one category. "" and "All" keep everything.
func FilterCategory(posts []post.Post, category string) []post.Post {
	if category == "" || category == "All" {
		return append([]post.Post(nil), posts...)
	}
	out := []post.Post{}
	for _, p := range posts {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders a copy of posts. The sort is stable so re-sorting with the
// same key never reorders equal elements.
func Sort(posts []post.Post, order SortOrder) []post.Post {
	out := append([]post.Post(nil), posts...)
	switch order {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortMostVoted:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Score > out[j].Score
		})
	case SortMostLiked:
		sort.SliceStable(out, func(i, j int) bool {
			return len(out[i].Likes) > len(out[j].Likes)
		})
	case SortMostCommented:
		sort.SliceStable(out, func(i, j int) bool {
			return len(out[i].Comments) > len(out[j].Comments)
		})
	}
	return out
}

// Author is the display snapshot of a post's author, resolved from the user
// directory at read time.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// PostView is a post with its author resolved.
type PostView struct {
	post.Post
	Author Author `json:"author"`
}

// WithAuthors resolves author display data through lookup. Posts whose
// author is gone keep a zero Author rather than being dropped.
func WithAuthors(posts []post.Post, lookup func(id string) (*user.User, error)) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		view := PostView{Post: p}
		if u, err := lookup(p.AuthorID); err == nil && u != nil {
			view.Author = Author{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
		}
		out = append(out, view)
	}
	return out
}

// Thread is a comment with its replies, rebuilt from the flat parent-keyed
// comment list.
type Thread struct {
	post.Comment
	Replies []Thread `json:"replies"`
}

// Threads groups a post's comments into reply trees. Orphaned replies
// (parent deleted) surface as top-level threads so they stay reachable.
func Threads(comments []post.Comment) []Thread {
	byParent := map[string][]post.Comment{}
	ids := map[string]bool{}
	for _, c := range comments {
		ids[c.ID] = true
	}
	roots := []post.Comment{}
	for _, c := range comments {
		if c.ParentID == "" || !ids[c.ParentID] {
			roots = append(roots, c)
			continue
		}
		byParent[c.ParentID] = append(byParent[c.ParentID], c)
	}

	var build func(c post.Comment) Thread
	build = func(c post.Comment) Thread {
		t := Thread{Comment: c, Replies: []Thread{}}
		for _, child := range byParent[c.ID] {
			t.Replies = append(t.Replies, build(child))
		}
		return t
	}

	out := make([]Thread, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	return out
}
