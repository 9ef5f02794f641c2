package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()

	assert.Equal(t, EnvDevelopment, cfg.Global.Environment)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, 50*1024*1024, cfg.Cache.MaxSizeBytes)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, 1000, cfg.Hybrid.MaxLocalItems)
	assert.Equal(t, 10, cfg.Hybrid.SyncBatchSize)
	assert.True(t, cfg.Storage.DurableWrites)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "altseek.yaml")
	content := `
global:
  environment: production
  log_level: warn
cache:
  max_entries: 500
hybrid:
  max_local_items: 50
  sync_batch_size: 5
storage:
  primary: redis
  fallback: file
  redis:
    address: redis.internal:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Global.Environment)
	assert.Equal(t, "warn", cfg.Global.LogLevel)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, "redis", cfg.Storage.Primary)
	assert.Equal(t, "file", cfg.Storage.Fallback)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.Redis.Address)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ALTSEEK_ENV", "production")
	t.Setenv("ALTSEEK_REDIS_ADDR", "override:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Global.Environment)
	assert.Equal(t, "override:6379", cfg.Storage.Redis.Address)
}

func TestLoad_EphemeralPlatformDisablesDurableWrites(t *testing.T) {
	t.Setenv("ALTSEEK_EPHEMERAL", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Storage.DurableWrites)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"zero max entries", func(c *Configuration) { c.Cache.MaxEntries = 0 }},
		{"zero size budget", func(c *Configuration) { c.Cache.MaxSizeBytes = 0 }},
		{"zero local items", func(c *Configuration) { c.Hybrid.MaxLocalItems = 0 }},
		{"zero sync batch", func(c *Configuration) { c.Hybrid.SyncBatchSize = 0 }},
		{"unknown primary", func(c *Configuration) { c.Storage.Primary = "dynamo" }},
		{"unknown fallback", func(c *Configuration) { c.Storage.Fallback = "tape" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
