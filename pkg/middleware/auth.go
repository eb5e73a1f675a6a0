package middleware

import (
	"context"
	"net/http"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

type (
	IUserDirectory interface {
		ByID(string) (*user.User, error)
	}
	ISessionManager interface {
		UserFromToken(string) (*user.User, error)
	}
	Auth struct {
		Users          IUserDirectory
		SessionManager ISessionManager
	}
)

func NewAuthMiddleware(sm ISessionManager, users IUserDirectory) *Auth {
	return &Auth{
		Users:          users,
		SessionManager: sm,
	}
}

// Middleware resolves the bearer token into a directory user and puts it on
// the request context. Requests without a token pass through anonymously;
// the stores reject their writes.
func (auth Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		userFromToken, err := auth.SessionManager.UserFromToken(authHeader)
		if err != nil {
			logger.Log(r.Context()).Errorf("can't get user from token: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		u, err := auth.Users.ByID(userFromToken.ID)
		if err != nil {
			logger.Log(r.Context()).Errorf("auth: can't get the user from the directory: %v", err)
			WriteMsg(w, "user not found", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), sessions.SessionKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
