/*
Package config loads service configuration.

SOURCES (later wins):
  1. Defaults (SetDefaults)
  2. Optional config file (YAML, JSON or TOML, by extension)
  3. Environment: STATPAY_<KEY>, nested keys joined with "_"
     (STATPAY_REDIS_ADDR, STATPAY_SCHEDULER_SETTLE_DAYS)
  4. Command-line flags bound by cmd/statpay

KEYS:
  port                    HTTP port (8080)
  db                      SQLite path, ":memory:" for tests (statpay.db)
  rules_file              Rule table seeded into an empty store; empty means
                          the embedded Canadian table
  log_level, log_format   zerolog level (info) and console|json (console)
  allowed_origins         CORS origins
  workers                 Payroll run parallelism (8)
  redis.*                 Result cache (disabled)
  scheduler.*             Holiday payroll scheduler (hourly, 7 settle days)

SEE ALSO:
  - cmd/statpay/root.go: flag binding
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "STATPAY"

type Config struct {
	Port           int      `mapstructure:"port"`
	DBPath         string   `mapstructure:"db"`
	RulesFile      string   `mapstructure:"rules_file"`
	LogLevel       string   `mapstructure:"log_level"`
	LogFormat      string   `mapstructure:"log_format"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Workers        int      `mapstructure:"workers"`

	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SchedulerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	SettleDays  int           `mapstructure:"settle_days"`
	HorizonDays int           `mapstructure:"horizon_days"`
}

// SetDefaults registers every key, which also makes each one visible to
// AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db", "statpay.db")
	v.SetDefault("rules_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("workers", 8)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Hour)
	v.SetDefault("scheduler.settle_days", 7)
	v.SetDefault("scheduler.horizon_days", 60)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (if set) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db path is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config: log_format must be console or json, got %q", c.LogFormat)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval < time.Minute {
			return fmt.Errorf("config: scheduler.interval must be at least 1m, got %s", c.Scheduler.Interval)
		}
		if c.Scheduler.SettleDays < 0 || c.Scheduler.HorizonDays < 1 {
			return fmt.Errorf("config: scheduler.settle_days must be >= 0 and horizon_days >= 1")
		}
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}
