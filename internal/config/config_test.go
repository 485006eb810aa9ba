package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "Sessions", cfg.SessionsTable)
		assert.Equal(t, "Pitches", cfg.PitchesTable)
		assert.Equal(t, "contracts/session_summary.schema.json", cfg.SchemaPath)
		assert.Equal(t, 5*time.Minute, cfg.RateLimitSweepInterval)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "staging")
		t.Setenv("PORT", "9090")
		t.Setenv("SESSIONS_TABLE", "SessionsStaging")
		t.Setenv("RATE_LIMIT_SWEEP_INTERVAL", "30s")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "staging", cfg.Environment)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, "SessionsStaging", cfg.SessionsTable)
		assert.Equal(t, 30*time.Second, cfg.RateLimitSweepInterval)
	})

	t.Run("yaml overlay wins over environment defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: 3000\nlogLevel: debug\n"), 0o600))
		t.Setenv("CONFIG_PATH", path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("missing config file", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("invalid environment name", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "bogus")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "trace")
		_, err := Load()
		require.Error(t, err)
	})
}
