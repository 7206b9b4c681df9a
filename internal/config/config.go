package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration.
type Config struct {
	Bare    BareConfig
	Breaker BreakerConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// BareConfig holds tunnel server settings.
type BareConfig struct {
	Server         string        `envconfig:"BARE_SERVER" default:"http://localhost:8080/bare/v3/"`
	UserAgent      string        `envconfig:"BARE_USER_AGENT" default:"bareclient/3"`
	RequestTimeout time.Duration `envconfig:"BARE_REQUEST_TIMEOUT" default:"0s"`
	CloseTimeout   time.Duration `envconfig:"BARE_CLOSE_TIMEOUT" default:"5s"`
	RateLimitRPS   float64       `envconfig:"BARE_RATE_LIMIT_RPS" default:"0"`
}

// BreakerConfig holds circuit breaker settings for the HTTP endpoint.
type BreakerConfig struct {
	Enabled  bool          `envconfig:"BARE_BREAKER_ENABLED" default:"true"`
	Failures uint32        `envconfig:"BARE_BREAKER_FAILURES" default:"10"`
	Cooldown time.Duration `envconfig:"BARE_BREAKER_COOLDOWN" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds the optional Prometheus listener.
type MetricsConfig struct {
	Address string `envconfig:"METRICS_ADDR" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Bare: BareConfig{
			Server:       "http://localhost:8080/bare/v3/",
			UserAgent:    "bareclient/3",
			CloseTimeout: 5 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:  true,
			Failures: 10,
			Cooldown: 30 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Bare.Server)
	if err != nil {
		return fmt.Errorf("invalid BARE_SERVER: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BARE_SERVER %q: scheme must be http or https", c.Bare.Server)
	}
	if c.Bare.RequestTimeout < 0 || c.Bare.CloseTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}
	if c.Bare.RateLimitRPS < 0 {
		return errors.New("BARE_RATE_LIMIT_RPS cannot be negative")
	}
	if c.Breaker.Enabled && c.Breaker.Failures == 0 {
		return errors.New("BARE_BREAKER_FAILURES must be positive when the breaker is enabled")
	}
	return nil
}
