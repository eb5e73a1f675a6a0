package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"forum/pkg/common"
	"forum/pkg/user"
)

type (
	sessionKey string

	// Manager issues JWT tokens for the HTTP boundary and tracks which
	// sessions are live in an in-process registry, so logout actually
	// revokes tokens that have not expired yet.
	Manager struct {
		secret []byte

		mu sync.Mutex
		// userID -> sessionID -> unix expiry
		registry map[string]map[string]int64
	}

	jwtClaims struct {
		User user.User `json:"user"`
		jwt.StandardClaims
	}
)

const SessionKey sessionKey = "authenticatedUser"

const sessionTTL = 90 * 24 * time.Hour

var ErrNoAuth = errors.New("sessions: no session found")

func NewManager(secret string) *Manager {
	return &Manager{
		secret:   []byte(secret),
		registry: make(map[string]map[string]int64),
	}
}

// CreateToken registers a session for the user and returns its JWT.
func (m *Manager) CreateToken(u *user.User) (string, error) {
	sessionID := common.RandStringRunes(10)
	exp := time.Now().Add(sessionTTL).Unix()
	data := jwtClaims{
		User: *u,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: exp,
			IssuedAt:  time.Now().Unix(),
			Id:        sessionID,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, data).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sessions: can't sign token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry[u.ID] == nil {
		m.registry[u.ID] = make(map[string]int64)
	}
	m.registry[u.ID][sessionID] = exp
	return token, nil
}

// UserFromToken returns the logged in user if the JWT is valid and its
// session is still registered.
func (m *Manager) UserFromToken(authHeader string) (*user.User, error) {
	if authHeader == "" {
		return nil, errors.New("sessions: auth header not found")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		})
	if err != nil {
		return nil, fmt.Errorf("sessions: can't parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok {
		return nil, errors.New("sessions: can't cast token to claims")
	}
	if !token.Valid {
		return nil, errors.New("sessions: token is not valid")
	}

	if err := m.check(claims.User.ID, claims.Id); err != nil {
		return nil, err
	}
	return &claims.User, nil
}

// Active reports whether the user has at least one unexpired session. This
// is the boolean the stores' write guards consult. An empty userID asks the
// weaker question "is anybody logged in", which the guards use for writes
// whose actor is checked at the handler level instead.
func (m *Manager) Active(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	if userID == "" {
		for _, sessions := range m.registry {
			for _, exp := range sessions {
				if exp > now {
					return true
				}
			}
		}
		return false
	}
	for _, exp := range m.registry[userID] {
		if exp > now {
			return true
		}
	}
	return false
}

// Revoke drops every session of the user (logout everywhere).
func (m *Manager) Revoke(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registry, userID)
}

// Cleanup removes the user's expired sessions.
func (m *Manager) Cleanup(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	for sessID, exp := range m.registry[userID] {
		if now > exp {
			delete(m.registry[userID], sessID)
		}
	}
}

func (m *Manager) check(userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.registry[userID][sessionID]
	if !ok {
		return ErrNoAuth
	}
	now := time.Now().Unix()
	if now > exp {
		return errors.New("sessions: session has expired")
	}

	// Prolong sessions about to expire so an active user is not kicked.
	if exp-now < int64((24 * time.Hour).Seconds()) {
		m.registry[userID][sessionID] = time.Now().Add(sessionTTL).Unix()
	}
	return nil
}

// GetAuthUser pulls the authenticated user the middleware put on the
// context.
func GetAuthUser(ctx context.Context) (*user.User, error) {
	u, ok := ctx.Value(SessionKey).(*user.User)
	if !ok || u == nil {
		return nil, ErrNoAuth
	}
	return u, nil
}
