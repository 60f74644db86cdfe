package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/pkg/logger"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("PARLEY_HOME_DIR", home)
	t.Setenv("PARLEY_SERVER_URL", "")
	t.Setenv("PARLEY_WEB_URL", "")
	t.Setenv("PARLEY_DEBUG", "")
	t.Setenv("PARLEY_LOG_LEVEL", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := withHome(t)
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, DefaultServerURL, cfg.ServerURL)
	require.Equal(t, cfg.ServerURL, cfg.WebURL)
	require.Equal(t, home, cfg.ParleyHome)
	require.Equal(t, filepath.Join(home, "access.key"), cfg.AccessKey)
	require.Equal(t, 50, cfg.HistoryLimit)
	require.False(t, cfg.Debug)
}

func TestLoadConfigFile(t *testing.T) {
	home := withHome(t)
	file := `
server_url = "http://parley.internal:9000"
web_url = "https://parley.example.com"
history_limit = 200
log_level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(file), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://parley.internal:9000", cfg.ServerURL)
	require.Equal(t, "https://parley.example.com", cfg.WebURL)
	require.Equal(t, 200, cfg.HistoryLimit)
	require.Equal(t, logger.LevelDebug, cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	home := withHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"),
		[]byte(`server_url = "http://from-file:9000"`), 0600))
	t.Setenv("PARLEY_SERVER_URL", "http://from-env:9000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://from-env:9000", cfg.ServerURL)
}

func TestDebugEnvLowersLevel(t *testing.T) {
	withHome(t)
	t.Setenv("PARLEY_DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.LessOrEqual(t, cfg.LogLevel, logger.LevelDebug)
}

func TestInvalidLogLevel(t *testing.T) {
	withHome(t)
	t.Setenv("PARLEY_LOG_LEVEL", "shouty")

	_, err := Load()
	require.Error(t, err)
}

func TestMalformedConfigFile(t *testing.T) {
	home := withHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"),
		[]byte(`server_url = [broken`), 0600))

	_, err := Load()
	require.Error(t, err)
}
