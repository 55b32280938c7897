package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "statpay.db", cfg.DBPath)
	assert.Empty(t, cfg.RulesFile)
	assert.Equal(t, 8, cfg.Workers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, 7, cfg.Scheduler.SettleDays)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// GIVEN: A YAML file and an environment override
	path := filepath.Join(t.TempDir(), "statpay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
db: ":memory:"
redis:
  enabled: true
  addr: cache:6379
scheduler:
  interval: 15m
  settle_days: 3
`), 0o600))
	t.Setenv("STATPAY_PORT", "9191")
	t.Setenv("STATPAY_SCHEDULER_SETTLE_DAYS", "5")

	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)

	// THEN: Environment wins over the file, the file over defaults
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 5, cfg.Scheduler.SettleDays)
	assert.Equal(t, 60, cfg.Scheduler.HorizonDays)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		cfg, err := config.Load(config.New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port", func(c *config.Config) { c.Port = 0 }},
		{"db", func(c *config.Config) { c.DBPath = "" }},
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"log format", func(c *config.Config) { c.LogFormat = "xml" }},
		{"workers", func(c *config.Config) { c.Workers = 0 }},
		{"redis addr", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
		{"scheduler interval", func(c *config.Config) { c.Scheduler.Interval = time.Second }},
		{"settle days", func(c *config.Config) { c.Scheduler.SettleDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// A disabled scheduler is not checked
	cfg := valid()
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.Interval = 0
	assert.NoError(t, cfg.Validate())
}
