package v3

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/GriffinCanCode/bareclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bareclient/internal/logging"
	"github.com/GriffinCanCode/bareclient/internal/transport/httpclient"
	"github.com/GriffinCanCode/bareclient/internal/transport/wsconn"
	"go.uber.org/zap"
)

// DefaultCloseTimeout bounds how long Close waits for the peer's close frame.
const DefaultCloseTimeout = 5 * time.Second

var _ bare.Transport = (*Client)(nil)

// Client speaks Bare v3 to one server.
type Client struct {
	endpoints    Endpoints
	http         *httpclient.Client
	dialer       wsconn.Dialer
	logger       *logging.Logger
	metrics      *monitoring.Metrics
	closeTimeout time.Duration
	ready        atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records tunnel metrics on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient replaces the HTTP transport.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d wsconn.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithCloseTimeout sets how long a closing socket waits for the peer.
func WithCloseTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.closeTimeout = d
		}
	}
}

// New creates a client for the tunnel server at server.
func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse server address: %w", err)
	}
	endpoints, err := DeriveEndpoints(u)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoints:    endpoints,
		logger:       logging.NewNop(),
		closeTimeout: DefaultCloseTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewClient(httpclient.Options{})
	}
	if c.dialer == nil {
		c.dialer = wsconn.NewDialer()
	}
	return c, nil
}

// Init marks the client ready. Version 3 needs no server round trip.
func (c *Client) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.ready.Store(true)
	c.logger.Info("bare client ready",
		zap.String("http", c.endpoints.HTTP.String()),
		zap.String("ws", c.endpoints.WebSocket.String()))
	return nil
}

// Endpoints returns the derived tunnel addresses.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Connect opens a tunneled WebSocket. See Open.
func (c *Client) Connect(ctx context.Context, opts bare.ConnectOptions, handlers bare.SocketHandlers) (bare.Socket, error) {
	s, err := c.Open(ctx, opts, handlers)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) checkReady() error {
	if !c.ready.Load() {
		return bare.ErrNotReady
	}
	return nil
}

func validRemote(u *url.URL) bool {
	return u != nil && u.IsAbs() && u.Host != ""
}
