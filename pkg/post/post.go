package post

import (
	"time"

	"forum/pkg/voting"
)

// Categories a post may belong to.
var Categories = []string{
	"Discussion",
	"Question",
	"Tutorial",
	"Announcement",
}

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

type Post struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`

	// AuthorID references the user directory; display data is resolved
	// at the read boundary so profile edits never go stale here.
	AuthorID string `json:"authorId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Votes holds one record per voting user; Score is always the signed
	// sum of Votes, recomputed after every change.
	Votes []voting.Vote `json:"votes"`
	Score int           `json:"score"`

	Likes     []string `json:"likes"`
	Bookmarks []string `json:"bookmarks"`
	Views     int      `json:"views"`

	// CommentCount equals len(Comments) at all times.
	Comments     []Comment `json:"comments"`
	CommentCount int       `json:"commentCount"`
}

// VotedBy lists the users with a current vote on the post.
func (p *Post) VotedBy() []string {
	return voting.VotedBy(p.Votes)
}

type Comment struct {
	ID     string `json:"id"`
	PostID string `json:"postId"`

	// ParentID links a reply to another comment on the same post. Empty
	// for top-level comments; the view layer rebuilds the thread tree by
	// grouping on it.
	ParentID string `json:"parentId,omitempty"`

	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Votes []voting.Vote `json:"votes"`
	Score int           `json:"score"`
}

func (p *Post) clone() *Post {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.Votes = append([]voting.Vote(nil), p.Votes...)
	c.Likes = append([]string(nil), p.Likes...)
	c.Bookmarks = append([]string(nil), p.Bookmarks...)
	c.Comments = make([]Comment, len(p.Comments))
	for i, cm := range p.Comments {
		c.Comments[i] = *cm.clone()
	}
	return &c
}

func (c *Comment) clone() *Comment {
	out := *c
	out.Votes = append([]voting.Vote(nil), c.Votes...)
	return &out
}
