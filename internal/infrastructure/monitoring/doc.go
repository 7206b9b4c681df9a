/*
Package monitoring provides Prometheus metrics for the Bare client.

# Features

- Tunneled HTTP requests by method and outcome, with latency
- Tunnel faults by tunnel status
- Requests that needed header chunking
- Tunneled WebSocket sockets by state, handshake outcomes, frame counts

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	client, err := v3.New(server, v3.WithMetrics(metrics))

	http.Handle("/metrics", metrics.Handler())

A nil *Metrics is accepted everywhere and records nothing.
*/
package monitoring
