package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/notification"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

type (
	UserStore interface {
		Register(user.Credentials) (*user.User, error)
		Login(login, password string) (*user.User, error)
		Logout() error
		Follow(followerID, followedID string) error
		Unfollow(followerID, followedID string) error
		UpdateProfile(string, user.ProfilePatch) (*user.User, error)
		UpdatePreferences(string, user.PreferencesPatch) error
		ByID(string) (*user.User, error)
		ByUsername(string) (*user.User, error)
	}

	SessionManager interface {
		CreateToken(*user.User) (string, error)
		Cleanup(userID string)
		Revoke(userID string)
	}

	Notifier interface {
		Add(notification.Payload) (*notification.Notification, error)
	}

	UserHandler struct {
		Store          UserStore
		SessionManager SessionManager
		Notifications  Notifier
	}

	loginRequest struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
)

func NewUserHandler(s UserStore, sm SessionManager, n Notifier) *UserHandler {
	return &UserHandler{
		Store:          s,
		SessionManager: sm,
		Notifications:  n,
	}
}

func (uh UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	creds := user.Credentials{}
	if err := common.ParseReqBody(r.Body, &creds); err != nil {
		logger.Log(r.Context()).Errorf("can't parse request body as credentials: %v", err)
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	u, err := uh.Store.Register(creds)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't register user %q: %v", creds.Username, err)
		common.WriteMsg(w, "registration failed", common.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	uh.sendToken(w, r, u)
}

func (uh UserHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req := loginRequest{}
	if err := common.ParseReqBody(r.Body, &req); err != nil {
		logger.Log(r.Context()).Errorf("can't parse request body as login: %v", err)
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	u, err := uh.Store.Login(req.Login, req.Password)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't log in user %q: %v", req.Login, err)
		common.WriteMsg(w, "login failed", common.HTTPStatus(err))
		return
	}

	uh.SessionManager.Cleanup(u.ID)
	uh.sendToken(w, r, u)
}

func (uh UserHandler) LogOut(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	uh.SessionManager.Revoke(u.ID)
	if err := uh.Store.Logout(); err != nil {
		logger.Log(r.Context()).Errorf("can't log out user %s: %v", u.ID, err)
		common.WriteMsg(w, "logout failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (uh UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	username := mux.Vars(r)["username"]
	u, err := uh.Store.ByUsername(username)
	if err != nil {
		common.WriteMsg(w, "user not found", common.HTTPStatus(err))
		return
	}
	common.WriteRespJSON(w, u)
}

func (uh UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	authUser, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	patch := user.ProfilePatch{}
	if err := common.ParseReqBody(r.Body, &patch); err != nil {
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	u, err := uh.Store.UpdateProfile(authUser.ID, patch)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't update profile of %s: %v", authUser.ID, err)
		common.WriteMsg(w, "profile update failed", common.HTTPStatus(err))
		return
	}
	common.WriteRespJSON(w, u)
}

func (uh UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	authUser, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	patch := user.PreferencesPatch{}
	if err := common.ParseReqBody(r.Body, &patch); err != nil {
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	if err := uh.Store.UpdatePreferences(authUser.ID, patch); err != nil {
		logger.Log(r.Context()).Errorf("can't update preferences of %s: %v", authUser.ID, err)
		common.WriteMsg(w, "preferences update failed", common.HTTPStatus(err))
		return
	}
	common.WriteMsg(w, "success", http.StatusOK)
}

func (uh UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	uh.setFollow(w, r, true)
}

func (uh UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	uh.setFollow(w, r, false)
}

func (uh UserHandler) setFollow(w http.ResponseWriter, r *http.Request, follow bool) {
	w.Header().Set("Content-Type", "application/json")

	follower, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	followedID := mux.Vars(r)["user_id"]
	if follow {
		err = uh.Store.Follow(follower.ID, followedID)
	} else {
		err = uh.Store.Unfollow(follower.ID, followedID)
	}
	if err != nil {
		logger.Log(r.Context()).Errorf("can't change follow edge %s -> %s: %v", follower.ID, followedID, err)
		common.WriteMsg(w, "follow change failed", common.HTTPStatus(err))
		return
	}

	if follow {
		if _, err := uh.Notifications.Add(notification.Payload{
			RecipientID: followedID,
			ActorID:     follower.ID,
			Type:        notification.TypeFollow,
			Message:     fmt.Sprintf("%s started following you", follower.Username),
		}); err != nil {
			logger.Log(r.Context()).Errorf("can't add follow notification: %v", err)
		}
	}

	common.WriteMsg(w, "success", http.StatusOK)
}

func (uh *UserHandler) sendToken(w http.ResponseWriter, r *http.Request, u *user.User) {
	token, err := uh.SessionManager.CreateToken(u)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't create JWT token: %v", err)
		common.WriteMsg(w, "user authentication failed", http.StatusInternalServerError)
		return
	}

	common.WriteRespJSON(w, struct {
		Token string     `json:"token"`
		User  *user.User `json:"user"`
	}{token, u})
}
