package post

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/notification"
	"forum/pkg/sessions"
	"forum/pkg/user"
	"forum/pkg/voting"
)

type IPostStore interface {
	All() []Post
	Get(id string) (*Post, error)
	ByAuthor(authorID string) []Post
	ByCategory(category string) []Post

	Add(Draft) (*Post, error)
	Update(id string, patch Patch) (*Post, error)
	Delete(id string) error

	Vote(postID, userID string, score voting.Score) (*Post, error)
	VoteComment(postID, commentID, userID string, score voting.Score) (*Comment, error)
	ToggleLike(postID, userID string) (bool, error)
	ToggleBookmark(postID, userID string) (bool, error)
	RecordView(postID string) error

	AddComment(postID string, d CommentDraft) (*Comment, error)
	EditComment(postID, commentID, newContent string) (*Comment, error)
	DeleteComment(postID, commentID string) error
}

type IUserDirectory interface {
	ByID(string) (*user.User, error)
	UpdateStats(string, user.StatKind, int) error
	UpdateReputation(string, int) error
}

type INotifier interface {
	Add(notification.Payload) (*notification.Notification, error)
}

// PostHandler is one consumer of the store contract; cross-store effects
// (stats, notifications) happen here, not inside the stores.
type PostHandler struct {
	Store         IPostStore
	Users         IUserDirectory
	Notifications INotifier
}

func NewPostHandler(store IPostStore, users IUserDirectory, notifier INotifier) *PostHandler {
	return &PostHandler{
		Store:         store,
		Users:         users,
		Notifications: notifier,
	}
}

func (ph PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	postID := mux.Vars(r)["post_id"]
	p, err := ph.Store.Get(postID)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get post %s: %v", postID, err)
		WriteMsg(w, "post not found", HTTPStatus(err))
		return
	}

	if err := ph.Store.RecordView(postID); err != nil {
		logger.Log(r.Context()).Errorf("can't record view for post %s: %v", postID, err)
	}

	WriteRespJSON(w, p)
}

func (ph PostHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	WriteRespJSON(w, ph.Store.ByAuthor(mux.Vars(r)["user_id"]))
}

func (ph PostHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	WriteRespJSON(w, ph.Store.ByCategory(mux.Vars(r)["category"]))
}

func (ph *PostHandler) Add(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	author, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	draft := Draft{}
	if err := ParseReqBody(r.Body, &draft); err != nil {
		logger.Log(r.Context()).Errorf("can't parse post draft: %v", err)
		WriteMsg(w, "can't parse post", http.StatusBadRequest)
		return
	}
	draft.AuthorID = author.ID

	p, err := ph.Store.Add(draft)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add post: %v", err)
		WriteMsg(w, "failed adding post", HTTPStatus(err))
		return
	}

	if err := ph.Users.UpdateStats(author.ID, user.StatPosts, 1); err != nil {
		logger.Log(r.Context()).Errorf("can't bump post stats for %s: %v", author.ID, err)
	}

	w.WriteHeader(http.StatusCreated)
	WriteRespJSON(w, p)
}

func (ph *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	postID := mux.Vars(r)["post_id"]
	if _, err := ph.requireAuthor(w, r, postID); err != nil {
		return
	}

	patch := Patch{}
	if err := ParseReqBody(r.Body, &patch); err != nil {
		logger.Log(r.Context()).Errorf("can't parse post patch: %v", err)
		WriteMsg(w, "can't parse patch", http.StatusBadRequest)
		return
	}

	p, err := ph.Store.Update(postID, patch)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't update post %s: %v", postID, err)
		WriteMsg(w, "failed updating post", HTTPStatus(err))
		return
	}
	WriteRespJSON(w, p)
}

func (ph *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	postID := mux.Vars(r)["post_id"]
	authUser, err := ph.requireAuthor(w, r, postID)
	if err != nil {
		return
	}

	if err := ph.Store.Delete(postID); err != nil {
		logger.Log(r.Context()).Errorf("can't remove post %s: %v", postID, err)
		WriteMsg(w, "removing post failed", HTTPStatus(err))
		return
	}

	if err := ph.Users.UpdateStats(authUser.ID, user.StatPosts, -1); err != nil {
		logger.Log(r.Context()).Errorf("can't drop post stats for %s: %v", authUser.ID, err)
	}

	WriteMsg(w, "success", http.StatusOK)
}

func (ph *PostHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	ph.vote(w, r, voting.ScoreUp)
}

func (ph *PostHandler) Downvote(w http.ResponseWriter, r *http.Request) {
	ph.vote(w, r, voting.ScoreDown)
}

func (ph *PostHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	ph.vote(w, r, voting.ScoreDiscard)
}

func (ph *PostHandler) vote(w http.ResponseWriter, r *http.Request, score voting.Score) {
	w.Header().Set("Content-Type", "application/json")

	voter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["post_id"]
	p, err := ph.Store.Vote(postID, voter.ID, score)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't vote for post %s: %v", postID, err)
		WriteMsg(w, "voting failed", HTTPStatus(err))
		return
	}

	WriteRespJSON(w, p)
}

func (ph *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	liker, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["post_id"]
	p, err := ph.Store.Get(postID)
	if err != nil {
		WriteMsg(w, "post not found", HTTPStatus(err))
		return
	}

	liked, err := ph.Store.ToggleLike(postID, liker.ID)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't toggle like on post %s: %v", postID, err)
		WriteMsg(w, "like failed", HTTPStatus(err))
		return
	}

	delta := -1
	if liked {
		delta = 1
	}
	if err := ph.Users.UpdateStats(p.AuthorID, user.StatReceivedLikes, delta); err != nil {
		logger.Log(r.Context()).Errorf("can't adjust like stats for %s: %v", p.AuthorID, err)
	}
	if err := ph.Users.UpdateReputation(p.AuthorID, delta); err != nil {
		logger.Log(r.Context()).Errorf("can't adjust reputation for %s: %v", p.AuthorID, err)
	}
	if liked && p.AuthorID != liker.ID {
		ph.notify(r, notification.Payload{
			RecipientID: p.AuthorID,
			ActorID:     liker.ID,
			Type:        notification.TypeLike,
			Message:     fmt.Sprintf("%s liked your post %q", liker.Username, p.Title),
		})
	}

	WriteRespJSON(w, struct {
		Liked bool `json:"liked"`
	}{liked})
}

func (ph *PostHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["post_id"]
	bookmarked, err := ph.Store.ToggleBookmark(postID, u.ID)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't toggle bookmark on post %s: %v", postID, err)
		WriteMsg(w, "bookmark failed", HTTPStatus(err))
		return
	}

	WriteRespJSON(w, struct {
		Bookmarked bool `json:"bookmarked"`
	}{bookmarked})
}

func (ph *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	commenter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	draft := CommentDraft{}
	if err := ParseReqBody(r.Body, &draft); err != nil {
		logger.Log(r.Context()).Errorf("can't parse comment draft: %v", err)
		WriteMsg(w, "can't parse comment", http.StatusBadRequest)
		return
	}
	draft.AuthorID = commenter.ID

	postID := mux.Vars(r)["post_id"]
	c, err := ph.Store.AddComment(postID, draft)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add comment to post %s: %v", postID, err)
		WriteMsg(w, "adding comment failed", HTTPStatus(err))
		return
	}

	if err := ph.Users.UpdateStats(commenter.ID, user.StatComments, 1); err != nil {
		logger.Log(r.Context()).Errorf("can't bump comment stats for %s: %v", commenter.ID, err)
	}
	if p, err := ph.Store.Get(postID); err == nil && p.AuthorID != commenter.ID {
		ph.notify(r, notification.Payload{
			RecipientID: p.AuthorID,
			ActorID:     commenter.ID,
			Type:        notification.TypeComment,
			Message:     fmt.Sprintf("%s commented on your post %q", commenter.Username, p.Title),
		})
	}

	w.WriteHeader(http.StatusCreated)
	WriteRespJSON(w, c)
}

func (ph *PostHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := sessions.GetAuthUser(r.Context()); err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	body := struct {
		Content string `json:"content"`
	}{}
	if err := ParseReqBody(r.Body, &body); err != nil {
		WriteMsg(w, "can't parse comment body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	c, err := ph.Store.EditComment(vars["post_id"], vars["comment_id"], body.Content)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't edit comment %s: %v", vars["comment_id"], err)
		WriteMsg(w, "editing comment failed", HTTPStatus(err))
		return
	}
	WriteRespJSON(w, c)
}

func (ph *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := sessions.GetAuthUser(r.Context()); err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	if err := ph.Store.DeleteComment(vars["post_id"], vars["comment_id"]); err != nil {
		logger.Log(r.Context()).Errorf("can't remove comment %s: %v", vars["comment_id"], err)
		WriteMsg(w, "removing comment failed", HTTPStatus(err))
		return
	}
	WriteMsg(w, "success", http.StatusOK)
}

func (ph *PostHandler) VoteComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	voter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	body := struct {
		Direction string `json:"direction"`
	}{}
	if err := ParseReqBody(r.Body, &body); err != nil {
		WriteMsg(w, "can't parse vote body", http.StatusBadRequest)
		return
	}
	score := voting.ScoreDiscard
	switch body.Direction {
	case "up":
		score = voting.ScoreUp
	case "down":
		score = voting.ScoreDown
	}

	vars := mux.Vars(r)
	c, err := ph.Store.VoteComment(vars["post_id"], vars["comment_id"], voter.ID, score)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't vote for comment %s: %v", vars["comment_id"], err)
		WriteMsg(w, "voting failed", HTTPStatus(err))
		return
	}
	WriteRespJSON(w, c)
}

// requireAuthor loads the post and checks the session user wrote it.
func (ph *PostHandler) requireAuthor(w http.ResponseWriter, r *http.Request, postID string) (*user.User, error) {
	authUser, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return nil, err
	}

	p, err := ph.Store.Get(postID)
	if err != nil {
		WriteMsg(w, "post not found", HTTPStatus(err))
		return nil, err
	}
	if p.AuthorID != authUser.ID && authUser.Role != user.RoleAdmin {
		err := fmt.Errorf("post/handlers: user %s is not the author of %s", authUser.ID, postID)
		WriteMsg(w, "only the author can modify the post", http.StatusForbidden)
		return nil, err
	}
	return authUser, nil
}

func (ph *PostHandler) notify(r *http.Request, p notification.Payload) {
	if _, err := ph.Notifications.Add(p); err != nil {
		logger.Log(r.Context()).Errorf("can't add notification for %s: %v", p.RecipientID, err)
	}
}
