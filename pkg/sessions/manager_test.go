package sessions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/pkg/user"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret")
	u := &user.User{ID: "u1", Username: "alice"}

	token, err := m.CreateToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := m.UserFromToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "alice", got.Username)
}

func TestUserFromToken(t *testing.T) {
	m := NewManager("test-secret")

	t.Run("missing header", func(t *testing.T) {
		_, err := m.UserFromToken("")
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := m.UserFromToken("Bearer not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewManager("other-secret")
		token, err := other.CreateToken(&user.User{ID: "u1"})
		require.NoError(t, err)

		_, err = m.UserFromToken("Bearer " + token)
		assert.Error(t, err)
	})
}

func TestActive(t *testing.T) {
	m := NewManager("test-secret")
	assert.False(t, m.Active("u1"))
	assert.False(t, m.Active(""))

	_, err := m.CreateToken(&user.User{ID: "u1"})
	require.NoError(t, err)

	assert.True(t, m.Active("u1"))
	assert.False(t, m.Active("u2"))
	// Empty id asks whether anyone is logged in.
	assert.True(t, m.Active(""))
}

func TestRevoke(t *testing.T) {
	m := NewManager("test-secret")
	u := &user.User{ID: "u1"}

	token, err := m.CreateToken(u)
	require.NoError(t, err)

	m.Revoke("u1")

	assert.False(t, m.Active("u1"))
	_, err = m.UserFromToken("Bearer " + token)
	assert.ErrorIs(t, err, ErrNoAuth)
}

func TestGetAuthUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, &user.User{ID: "u1"})
		u, err := GetAuthUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
	})

	t.Run("anonymous context", func(t *testing.T) {
		_, err := GetAuthUser(context.Background())
		assert.ErrorIs(t, err, ErrNoAuth)
	})
}
