// Package config loads and validates the service configuration from an
// optional YAML file plus APEXVIEW_* environment overrides. The resulting
// Config is immutable after Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Provider ProviderConfig `mapstructure:"provider"`
	Warmup   WarmupConfig   `mapstructure:"warmup"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// CacheConfig holds the two-tier cache settings.
type CacheConfig struct {
	// Backend selects the persistent tier: "fs", "bolt" or "redis".
	Backend string `mapstructure:"backend"`

	// Dir is the storage root for the fs and bolt backends.
	Dir string `mapstructure:"dir"`

	// MemoCapacity bounds the in-process LRU tier (entry count).
	MemoCapacity int `mapstructure:"memo_capacity"`

	TTL TTLConfig `mapstructure:"ttl"`
}

// TTLConfig carries the per-operation-category TTL table. TTLs are attached
// to entries at creation time, so editing this table never retroactively
// affects already-stored records.
type TTLConfig struct {
	Races     time.Duration `mapstructure:"races"`
	Sessions  time.Duration `mapstructure:"sessions"`
	Drivers   time.Duration `mapstructure:"drivers"`
	Telemetry time.Duration `mapstructure:"telemetry"`
	Standings time.Duration `mapstructure:"standings"`
}

// RedisConfig holds connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProviderConfig holds settings for the upstream data provider client.
type ProviderConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	RateLimitRPS        float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst      int           `mapstructure:"rate_limit_burst"`
	RetryAttempts       int           `mapstructure:"retry_attempts"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay       time.Duration `mapstructure:"retry_max_delay"`
	BreakerThreshold    int           `mapstructure:"breaker_threshold"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
	TelemetryPointLimit int           `mapstructure:"telemetry_point_limit"`
}

// WarmupConfig controls the startup cache warm-up.
type WarmupConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Years lists the seasons whose schedules are pre-fetched at boot. The
	// most recent year additionally gets its season standings warmed.
	Years []int `mapstructure:"years"`

	// Pacing is the minimum delay between consecutive provider calls during
	// warm-up.
	Pacing time.Duration `mapstructure:"pacing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("apexview")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("APEXVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not fatal; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Cache defaults
	v.SetDefault("cache.backend", "fs")
	v.SetDefault("cache.dir", "./f1_cache")
	v.SetDefault("cache.memo_capacity", 512)
	v.SetDefault("cache.ttl.races", (7 * 24 * time.Hour).String())
	v.SetDefault("cache.ttl.sessions", (2 * 24 * time.Hour).String())
	v.SetDefault("cache.ttl.drivers", (24 * time.Hour).String())
	v.SetDefault("cache.ttl.telemetry", (24 * time.Hour).String())
	v.SetDefault("cache.ttl.standings", (7 * 24 * time.Hour).String())

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Provider defaults
	v.SetDefault("provider.base_url", "https://livetiming.apexview.dev")
	v.SetDefault("provider.timeout", "60s")
	v.SetDefault("provider.rate_limit_rps", 4.0)
	v.SetDefault("provider.rate_limit_burst", 4)
	v.SetDefault("provider.retry_attempts", 3)
	v.SetDefault("provider.retry_base_delay", "250ms")
	v.SetDefault("provider.retry_max_delay", "5s")
	v.SetDefault("provider.breaker_threshold", 5)
	v.SetDefault("provider.breaker_open_timeout", "30s")
	v.SetDefault("provider.telemetry_point_limit", 200)

	// Warmup defaults
	v.SetDefault("warmup.enabled", true)
	v.SetDefault("warmup.years", []int{2021, 2022, 2023, 2024, 2025})
	v.SetDefault("warmup.pacing", "1s")

	// Observability defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("tracing.enabled", false)
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "fs", "bolt", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q (want fs, bolt or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend != "redis" && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set for the %s backend", c.Cache.Backend)
	}
	if c.Cache.MemoCapacity <= 0 {
		return fmt.Errorf("cache.memo_capacity must be positive, got %d", c.Cache.MemoCapacity)
	}
	for name, ttl := range map[string]time.Duration{
		"races":     c.Cache.TTL.Races,
		"sessions":  c.Cache.TTL.Sessions,
		"drivers":   c.Cache.TTL.Drivers,
		"telemetry": c.Cache.TTL.Telemetry,
		"standings": c.Cache.TTL.Standings,
	} {
		if ttl <= 0 {
			return fmt.Errorf("cache.ttl.%s must be positive, got %v", name, ttl)
		}
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url must be set")
	}
	if c.Provider.TelemetryPointLimit <= 0 {
		return fmt.Errorf("provider.telemetry_point_limit must be positive, got %d", c.Provider.TelemetryPointLimit)
	}
	if c.Warmup.Enabled && c.Warmup.Pacing <= 0 {
		return fmt.Errorf("warmup.pacing must be positive, got %v", c.Warmup.Pacing)
	}
	return nil
}
