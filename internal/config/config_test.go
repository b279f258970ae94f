package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()
	assert.Equal(t, "shortn", cfg.AppName)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 6, cfg.DefaultBucketSizeHours)
	assert.Equal(t, 600, cfg.LinkCacheTTLSeconds)
	assert.Equal(t, filepath.Join("storage", "shortn-development.db"), cfg.DatabaseDSN())
	assert.Equal(t, 10, cfg.GetMaxOpenConns())
	assert.Same(t, cfg, GetConfig())
}

func TestGetConfigFromEnvironment(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("SHORTN_ENV", Test)
	t.Setenv("SHORTN_BASE_URL", "https://sho.rt/")
	t.Setenv("SHORTN_API_KEY", "k")
	t.Setenv("SHORTN_MAX_LINKS_PER_OWNER", "5")
	t.Setenv("SHORTN_REDIS_URL", "redis://localhost:6379/0")

	cfg := GetConfig()
	assert.True(t, cfg.IsTest())
	assert.Equal(t, "https://sho.rt", cfg.BaseURL)
	assert.Equal(t, "https://sho.rt/abc1234", cfg.ShortURL("abc1234"))
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 5, cfg.MaxLinksPerOwner)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Equal(t, 1, cfg.GetMaxIdleConns())
}

func TestValidate(t *testing.T) {
	valid := Config{Environment: Production, DatabaseType: SQLiteDatabase, DefaultBucketSizeHours: 6}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown environment", func(c *Config) { c.Environment = "staging" }},
		{"unknown database", func(c *Config) { c.DatabaseType = "postgres" }},
		{"zero bucket", func(c *Config) { c.DefaultBucketSizeHours = 0 }},
		{"bucket wider than a day", func(c *Config) { c.DefaultBucketSizeHours = 25 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.validate())
		})
	}
}
