package feed

import (
	"net/http"
	"strconv"

	"forum/pkg/common"
	"forum/pkg/post"
	"forum/pkg/user"
)

type IPostSource interface {
	All() []post.Post
}

type IUserDirectory interface {
	ByID(string) (*user.User, error)
}

// FeedHandler serves the derived post views: filtered, searched, sorted and
// paginated, with authors resolved.
type FeedHandler struct {
	Posts IPostSource
	Users IUserDirectory
}

func NewFeedHandler(posts IPostSource, users IUserDirectory) *FeedHandler {
	return &FeedHandler{Posts: posts, Users: users}
}

func (fh FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	params := r.URL.Query()
	q := Query{
		Search:   params.Get("q"),
		Category: params.Get("category"),
		Sort:     SortOrder(params.Get("sort")),
	}
	offset, _ := strconv.Atoi(params.Get("offset"))
	limit, _ := strconv.Atoi(params.Get("limit"))

	views := WithAuthors(Apply(fh.Posts.All(), q), fh.Users.ByID)
	page, hasMore := Paginate(views, offset, limit)

	common.WriteRespJSON(w, struct {
		Posts   []PostView `json:"posts"`
		HasMore bool       `json:"hasMore"`
	}{page, hasMore})
}
