// Package config provides 12-factor configuration for the Bare client.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables.
//
// Configuration Sections:
//   - Bare: tunnel server address, user agent, timeouts, rate limit
//   - Breaker: circuit breaker on the tunnel's HTTP endpoint
//   - Logging: log level and output format
//   - Metrics: optional Prometheus listener
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	client, err := v3.New(cfg.Bare.Server)
//
// Environment Variables:
//   - BARE_SERVER, BARE_USER_AGENT, BARE_REQUEST_TIMEOUT, BARE_CLOSE_TIMEOUT, BARE_RATE_LIMIT_RPS
//   - BARE_BREAKER_ENABLED, BARE_BREAKER_FAILURES, BARE_BREAKER_COOLDOWN
//   - LOG_LEVEL, LOG_DEV
//   - METRICS_ADDR
package config
