package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_PathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9090\"\nlogging:\n  level: debug\n"), 0o644))
	t.Setenv(ConfigEnv, path)
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, _, err := Bootstrap("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestBootstrap_MissingFile(t *testing.T) {
	_, _, err := Bootstrap(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "load config")
}
