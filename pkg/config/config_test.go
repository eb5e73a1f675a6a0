package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults plus env secret", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "s3cret")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "data", cfg.DataDir)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "s3cret", cfg.SecretKey)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "s3cret")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\nlog_level: debug\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "s3cret")
		t.Setenv("FORUM_ADDR", ":7070")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Addr)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "s3cret")

		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.NoError(t, err)
	})

	t.Run("secret key is required", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "")

		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLoadBadYAML(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- nope"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
