// Package server runs the optional diagnostics listener: Prometheus metrics
// at /metrics and a JSON health document at /health.
package server
