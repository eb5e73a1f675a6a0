package notification

import (
	"net/http"

	"github.com/gorilla/mux"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
)

type INotificationStore interface {
	ForUser(recipientID string) []Notification
	UnreadCount(recipientID string) int
	MarkAsRead(id string) error
	MarkAllAsRead(recipientID string) error
	Clear(id string) error
}

type Handler struct {
	Store INotificationStore
}

func NewHandler(store INotificationStore) *Handler {
	return &Handler{Store: store}
}

func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	common.WriteRespJSON(w, struct {
		Notifications []Notification `json:"notifications"`
		Unread        int            `json:"unread"`
	}{h.Store.ForUser(u.ID), h.Store.UnreadCount(u.ID)})
}

func (h Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := sessions.GetAuthUser(r.Context()); err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["notification_id"]
	if err := h.Store.MarkAsRead(id); err != nil {
		logger.Log(r.Context()).Errorf("can't mark notification %s as read: %v", id, err)
		common.WriteMsg(w, "marking as read failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (h Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	if err := h.Store.MarkAllAsRead(u.ID); err != nil {
		logger.Log(r.Context()).Errorf("can't mark all notifications of %s as read: %v", u.ID, err)
		common.WriteMsg(w, "marking all as read failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (h Handler) Clear(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := sessions.GetAuthUser(r.Context()); err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["notification_id"]
	if err := h.Store.Clear(id); err != nil {
		logger.Log(r.Context()).Errorf("can't clear notification %s: %v", id, err)
		common.WriteMsg(w, "clearing failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}
