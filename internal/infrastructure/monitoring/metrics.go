package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for tunneled requests and handshakes.
const (
	OutcomeOK        = "ok"
	OutcomeFault     = "fault"
	OutcomeTransport = "transport_error"
	OutcomeProtocol  = "protocol_error"
	OutcomeCanceled  = "canceled"
)

// Metrics holds all Prometheus metrics of the client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP tunnel metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TunnelFaults    *prometheus.CounterVec
	ChunkedHeaders  prometheus.Counter

	// WebSocket tunnel metrics
	SocketsActive *prometheus.GaugeVec
	Handshakes    *prometheus.CounterVec
	Frames        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers the client metrics on reg. A nil reg uses a fresh
// private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bare_http_requests_total",
				Help: "Total number of tunneled HTTP requests",
			},
			[]string{"method", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bare_http_request_duration_seconds",
				Help:    "Time until the tunnel response headers arrived",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		TunnelFaults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bare_tunnel_faults_total",
				Help: "Requests rejected by the tunnel endpoint, by tunnel status",
			},
			[]string{"status"},
		),
		ChunkedHeaders: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bare_chunked_requests_total",
				Help: "Requests whose headers were split into numbered chunks",
			},
		),

		SocketsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bare_ws_sockets",
				Help: "Tunneled WebSocket connections by state",
			},
			[]string{"state"},
		),
		Handshakes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bare_ws_handshakes_total",
				Help: "Tunneled WebSocket handshakes by outcome",
			},
			[]string{"outcome"},
		),
		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bare_ws_frames_total",
				Help: "Pass-through WebSocket frames",
			},
			[]string{"direction", "type"},
		),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordRequest records a finished tunnel exchange
func (m *Metrics) RecordRequest(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordFault records a tunnel fault
func (m *Metrics) RecordFault(status int) {
	if m == nil {
		return
	}
	m.TunnelFaults.WithLabelValues(strconv.Itoa(status)).Inc()
}

// IncChunked counts a request that needed header chunking
func (m *Metrics) IncChunked() {
	if m == nil {
		return
	}
	m.ChunkedHeaders.Inc()
}

// SocketTransition moves one socket between state gauges. Empty from or
// to means the socket is entering or leaving tracking.
func (m *Metrics) SocketTransition(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.SocketsActive.WithLabelValues(from).Dec()
	}
	if to != "" {
		m.SocketsActive.WithLabelValues(to).Inc()
	}
}

// RecordHandshake records the outcome of a tunnel handshake
func (m *Metrics) RecordHandshake(outcome string) {
	if m == nil {
		return
	}
	m.Handshakes.WithLabelValues(outcome).Inc()
}

// RecordFrame records a pass-through frame
func (m *Metrics) RecordFrame(direction, msgType string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(direction, msgType).Inc()
}
