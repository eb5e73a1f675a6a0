package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	t.Run("empty slot reports not found", func(t *testing.T) {
		out := fixture{}
		found, err := m.Load("nothing-here", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("round trip", func(t *testing.T) {
		in := fixture{Name: "posts", Count: 3}
		require.NoError(t, m.Save("slot", in))

		out := fixture{}
		found, err := m.Load("slot", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, in, out)
	})

	t.Run("save replaces prior state", func(t *testing.T) {
		require.NoError(t, m.Save("slot", fixture{Name: "first"}))
		require.NoError(t, m.Save("slot", fixture{Name: "second"}))

		out := fixture{}
		_, err := m.Load("slot", &out)
		require.NoError(t, err)
		assert.Equal(t, "second", out.Name)
	})
}

func TestBadgerInMemory(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	out := fixture{}
	found, err := b.Load("slot", &out)
	require.NoError(t, err)
	assert.False(t, found)

	in := fixture{Name: "users", Count: 7}
	require.NoError(t, b.Save("slot", in))

	found, err = b.Load("slot", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestEnvelope(t *testing.T) {
	t.Run("seal stamps the current version", func(t *testing.T) {
		data, err := seal(fixture{Name: "x"})
		require.NoError(t, err)

		env := envelope{}
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, Version, env.Version)
	})

	t.Run("unknown version is rejected", func(t *testing.T) {
		data, err := json.Marshal(envelope{Version: 99, State: json.RawMessage(`{}`)})
		require.NoError(t, err)

		out := fixture{}
		err = unseal(data, &out)
		assert.Error(t, err)
	})
}
