package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "HOST", "ENV", "PUBLIC_URL",
	"ROOM_CAPACITY", "MAX_TURNS", "DEAL_SIZE", "LOCK_TIMEOUT",
	"PETITION_MIN_LENGTH", "ROOM_CODE_LENGTH", "SESSION_IDLE_TIMEOUT", "CATALOG_DIR",
	"STORAGE_DRIVER", "DATABASE_URL",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every variable Load reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	assert.Equal(t, 4, cfg.Game.RoomCapacity)
	assert.Equal(t, 10, cfg.Game.MaxTurns)
	assert.Equal(t, 3, cfg.Game.DealSize)
	assert.Equal(t, 2*time.Second, cfg.Game.LockTimeout)
	assert.Equal(t, 5, cfg.Game.PetitionMinLength)
	assert.Equal(t, 2*time.Hour, cfg.Game.SessionIdleTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.InDelta(t, 10.0, cfg.RateLimit.RequestsPerSecond, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("MAX_TURNS", "6")
	t.Setenv("LOCK_TIMEOUT", "750ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://council@localhost/council")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 6, cfg.Game.MaxTurns)
	assert.Equal(t, 750*time.Millisecond, cfg.Game.LockTimeout)
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 1e-9)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROOM_CAPACITY", "four")
	t.Setenv("LOCK_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 4, cfg.Game.RoomCapacity)
	assert.Equal(t, 2*time.Second, cfg.Game.LockTimeout)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero capacity", func(c *Config) { c.Game.RoomCapacity = 0 }, "ROOM_CAPACITY"},
		{"zero turns", func(c *Config) { c.Game.MaxTurns = 0 }, "MAX_TURNS"},
		{"zero deal size", func(c *Config) { c.Game.DealSize = 0 }, "DEAL_SIZE"},
		{"no lock timeout", func(c *Config) { c.Game.LockTimeout = 0 }, "LOCK_TIMEOUT"},
		{"postgres without url", func(c *Config) { c.Storage.Driver = "postgres" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "redis" }, "STORAGE_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := Load()
		cfg.Game.MaxTurns = 0
		cfg.Game.DealSize = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MAX_TURNS")
		assert.Contains(t, err.Error(), "DEAL_SIZE")
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COUNCIL_DOTENV_VALUE", "")
	os.Unsetenv("COUNCIL_DOTENV_VALUE")

	t.Run("missing file", func(t *testing.T) {
		assert.NoError(t, loadDotEnv(filepath.Join(dir, "absent.env")))
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.env")
		require.NoError(t, os.WriteFile(path, []byte("COUNCIL_DOTENV_VALUE=\"unterminated\n"), 0o600))
		assert.Error(t, loadDotEnv(path))
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "good.env")
		require.NoError(t, os.WriteFile(path, []byte("COUNCIL_DOTENV_VALUE=loaded\n"), 0o600))
		require.NoError(t, loadDotEnv(path))
		assert.Equal(t, "loaded", os.Getenv("COUNCIL_DOTENV_VALUE"))
	})
}
