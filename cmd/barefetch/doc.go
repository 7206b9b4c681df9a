// Package main is barefetch, a command line client for Bare v3 tunnels.
//
// It fetches one URL through the tunnel and writes the remote body to
// stdout, or opens a tunneled WebSocket that relays stdin lines as text
// frames and prints every frame it receives.
//
// Configuration:
//   - Environment variables (BARE_SERVER, LOG_LEVEL, METRICS_ADDR, ...)
//   - CLI flags (override env vars)
//
// Usage:
//
//	barefetch -server http://localhost:8080/bare/v3/ https://example.com/
//	barefetch -method POST -H 'Content-Type: application/json' -d '{}' https://api.example/items
//	barefetch -ws -protocol chat wss://echo.example/
//
// Exit codes:
//   - 0: remote response received (any remote status)
//   - 1: usage, configuration or transport error
//   - 2: the tunnel rejected the request
//
// Signals:
//   - SIGINT, SIGTERM: close the socket with 1000, or abort the request
package main
