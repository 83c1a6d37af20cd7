package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Sync.MaxRetries)
	assert.Equal(t, time.Second, cfg.Sync.RetryDelay)
	assert.Equal(t, 15*time.Second, cfg.Sync.HTTPTimeout)
	assert.False(t, cfg.Sync.EnableCompression)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Dir)
	assert.Equal(t, 24*time.Hour, cfg.Storage.MaxAge)
	assert.Equal(t, 30*time.Second, cfg.Connectivity.ProbeInterval)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SYNC_BASE_URL", "https://quiz.example.com/api")
	t.Setenv("STORAGE_DIR", "/tmp/snapshots")
	t.Setenv("REDIS_ADDRESS", "localhost:6380")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://quiz.example.com/api", cfg.Sync.BaseURL)
	assert.Equal(t, "/tmp/snapshots", cfg.Storage.Dir)
	assert.Equal(t, "localhost:6380", cfg.Storage.Redis.Address)
}
