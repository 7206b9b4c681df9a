package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/bareclient/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client wraps resty with rate limiting and an optional circuit breaker.
// It never retries and never sends cookies or ambient credentials.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	mu      sync.RWMutex
}

// Options configures a Client.
type Options struct {
	UserAgent string
	// Timeout bounds a whole exchange including the body. Zero means none.
	Timeout time.Duration
	// RateLimit is requests per second. Zero or less means unlimited.
	RateLimit float64
	// Breaker enables the circuit breaker when non-nil.
	Breaker *BreakerOptions
}

// BreakerOptions configures the circuit breaker.
type BreakerOptions struct {
	Failures uint32
	Cooldown time.Duration
	// OnStateChange is forwarded to the breaker.
	OnStateChange func(name string, from, to resilience.State)
}

// NewClient creates the HTTP transport used for tunnel requests
func NewClient(opts Options) *Client {
	// Pooled transport only; retries stay off.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	transport := retryClient.HTTPClient.Transport
	if t, ok := transport.(*http.Transport); ok {
		// Bodies are the tunnel's bytes; Content-Encoding belongs to the remote.
		t.DisableCompression = true
	}

	restyClient := resty.New()
	restyClient.
		SetTransport(transport).
		SetRetryCount(0).
		SetCookieJar(nil).
		SetAllowGetMethodPayload(true).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	if opts.UserAgent != "" {
		restyClient.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		restyClient.SetTimeout(opts.Timeout)
	}

	c := &Client{Resty: restyClient}
	c.SetRateLimit(opts.RateLimit)

	if opts.Breaker != nil {
		failures := opts.Breaker.Failures
		c.Breaker = resilience.New("bare-http", resilience.Settings{
			Probes:   1,
			Window:   60 * time.Second,
			Cooldown: opts.Breaker.Cooldown,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: opts.Breaker.OnStateChange,
		})
	}
	return c
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Request creates a new request after the breaker and rate limiter admit it
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker != nil && c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.mu.RLock()
	limiter := c.Limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.Resty.R().SetContext(ctx), nil
}

// Execute runs one exchange through the circuit breaker, if enabled
func (c *Client) Execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	if c.Breaker == nil {
		return fn()
	}
	report, err := c.Breaker.Allow()
	if err != nil {
		return nil, err
	}
	res, err := fn()
	report(Classify(res, err))
	return res, err
}

// Classify decides how an exchange counts against the tunnel. Any reply
// from the Bare server is an answer, faults included. Gateway statuses mean
// something in front of it could not reach it.
func Classify(res *resty.Response, err error) resilience.Outcome {
	switch {
	case errors.Is(err, context.Canceled):
		return resilience.OutcomeIgnored
	case err != nil:
		return resilience.OutcomeFailure
	case res == nil:
		return resilience.OutcomeSuccess
	}
	switch res.StatusCode() {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return resilience.OutcomeFailure
	}
	return resilience.OutcomeSuccess
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	if c.Breaker == nil {
		return resilience.StateClosed
	}
	return c.Breaker.State()
}
