package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talentscout/backend/internal/infrastructure/monitoring"
	"github.com/talentscout/backend/internal/infrastructure/resilience"
	"github.com/talentscout/backend/internal/infrastructure/tracing"
)

// Config configures one upstream client.
type Config struct {
	// Name labels metrics and the circuit breaker.
	Name      string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// RequestsPerSecond <= 0 disables client-side rate limiting.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns production settings for an upstream API.
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:         name,
		BaseURL:      baseURL,
		Timeout:      30 * time.Second,
		UserAgent:    "TalentScout/1.0",
		RetryMax:     3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 30 * time.Second,
	}
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Status, body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}

// Client wraps resty with rate limiting, retries and a circuit breaker.
type Client struct {
	name    string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every call as a service call.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for retries and breaker transitions.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the retrying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.resty = resty.NewWithClient(hc) }
}

// New creates a client for one upstream.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		name:   cfg.Name,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.resty == nil {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = cfg.RetryMax
		retryClient.RetryWaitMin = cfg.RetryWaitMin
		retryClient.RetryWaitMax = cfg.RetryWaitMax
		retryClient.Logger = leveledLogger{c.logger.Sugar().With("upstream", cfg.Name)}
		c.resty = resty.NewWithClient(retryClient.StandardClient())
	}

	c.resty.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	c.limiter = rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	c.breaker = resilience.New(cfg.Name, resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return c
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// SetHeader adds a default header to every request.
func (c *Client) SetHeader(key, value string) *Client {
	c.resty.SetHeader(key, value)
	return c
}

// SetAuthToken sets a default bearer token.
func (c *Client) SetAuthToken(token string) *Client {
	c.resty.SetAuthToken(token)
	return c
}

// Do waits for the limiter, then runs the request built by build through the
// breaker. 5xx responses count as breaker failures, and any non-2xx
// response is returned as a *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, build func(*resty.Request)) (*resty.Response, error) {
	timer := monitoring.NewTimer(c.metrics, c.name, method+" "+path)

	if err := c.limiter.Wait(ctx); err != nil {
		timer.Stop("rate_limited")
		return nil, fmt.Errorf("%s: rate limit: %w", c.name, err)
	}

	var resp *resty.Response
	var statusErr *StatusError
	err := c.breaker.Execute(func() error {
		req := c.resty.R().SetContext(ctx)
		tracing.Inject(ctx, req.Header)
		if build != nil {
			build(req)
		}
		r, err := req.Execute(method, path)
		if err != nil {
			return err
		}
		resp = r
		if r.IsError() {
			statusErr = &StatusError{Service: c.name, Status: r.StatusCode(), Body: r.String()}
			if r.StatusCode() >= http.StatusInternalServerError {
				return statusErr
			}
		}
		return nil
	})

	switch {
	case err != nil:
		status := "error"
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			status = "circuit_open"
		}
		timer.Stop(status)
		if statusErr != nil {
			return resp, statusErr
		}
		return resp, fmt.Errorf("%s: %w", c.name, err)
	case statusErr != nil:
		timer.Stop(strconv.Itoa(statusErr.Status))
		return resp, statusErr
	}

	timer.Stop("ok")
	return resp, nil
}

// Get is Do with GET.
func (c *Client) Get(ctx context.Context, path string, build func(*resty.Request)) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodGet, path, build)
}

// Post is Do with POST.
func (c *Client) Post(ctx context.Context, path string, build func(*resty.Request)) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodPost, path, build)
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
