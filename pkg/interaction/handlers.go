package interaction

import (
	"net/http"

	"github.com/gorilla/mux"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

type IInteractionStore interface {
	AddReaction(postID, userID, reactionType string) error
	RemoveReaction(postID, userID string) error
	ReportPost(postID, userID, reason string) (*Report, error)
	UpdateReportStatus(reportID string, status ReportStatus) error
	ToggleBookmark(postID, userID string) (bool, error)
	RecordShare(postID, userID, platform string) error
	PostAnalytics(postID string) Analytics
	BookmarksByUser(userID string) []Bookmark
}

type Handler struct {
	Store IInteractionStore
}

func NewHandler(store IInteractionStore) *Handler {
	return &Handler{Store: store}
}

func (h Handler) React(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	body := struct {
		Type string `json:"type"`
	}{}
	if err := common.ParseReqBody(r.Body, &body); err != nil {
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	postID := mux.Vars(r)["post_id"]
	if err := h.Store.AddReaction(postID, u.ID, body.Type); err != nil {
		logger.Log(r.Context()).Errorf("can't react to post %s: %v", postID, err)
		common.WriteMsg(w, "reaction failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (h Handler) Unreact(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["post_id"]
	if err := h.Store.RemoveReaction(postID, u.ID); err != nil {
		logger.Log(r.Context()).Errorf("can't remove reaction from post %s: %v", postID, err)
		common.WriteMsg(w, "removing reaction failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (h Handler) Bookmark(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["post_id"]
	bookmarked, err := h.Store.ToggleBookmark(postID, u.ID)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't toggle bookmark on post %s: %v", postID, err)
		common.WriteMsg(w, "bookmark failed", common.HTTPStatus(err))
		return
	}
	common.WriteRespJSON(w, struct {
		Bookmarked bool `json:"bookmarked"`
	}{bookmarked})
}

func (h Handler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}
	common.WriteRespJSON(w, h.Store.BookmarksByUser(u.ID))
}

func (h Handler) Report(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	body := struct {
		Reason string `json:"reason"`
	}{}
	if err := common.ParseReqBody(r.Body, &body); err != nil {
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	postID := mux.Vars(r)["post_id"]
	report, err := h.Store.ReportPost(postID, u.ID, body.Reason)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't report post %s: %v", postID, err)
		common.WriteMsg(w, "report failed", common.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	common.WriteRespJSON(w, report)
}

// ReportStatus lets moderators move a report out of pending.
func (h Handler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}
	if u.Role != user.RoleAdmin {
		common.WriteMsg(w, "admin role required", http.StatusForbidden)
		return
	}

	body := struct {
		Status ReportStatus `json:"status"`
	}{}
	if err := common.ParseReqBody(r.Body, &body); err != nil {
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	reportID := mux.Vars(r)["report_id"]
	if err := h.Store.UpdateReportStatus(reportID, body.Status); err != nil {
		logger.Log(r.Context()).Errorf("can't update report %s: %v", reportID, err)
		common.WriteMsg(w, "updating report failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (h Handler) Share(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	body := struct {
		Platform string `json:"platform"`
	}{}
	if err := common.ParseReqBody(r.Body, &body); err != nil {
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	postID := mux.Vars(r)["post_id"]
	if err := h.Store.RecordShare(postID, u.ID, body.Platform); err != nil {
		logger.Log(r.Context()).Errorf("can't record share of post %s: %v", postID, err)
		common.WriteMsg(w, "share failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusCreated)
}

func (h Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	common.WriteRespJSON(w, h.Store.PostAnalytics(mux.Vars(r)["post_id"]))
}
