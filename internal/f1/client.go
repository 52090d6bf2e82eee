package f1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/apexview/apexview/internal/breaker"
	"github.com/apexview/apexview/internal/config"
	"github.com/apexview/apexview/internal/observability"
	"github.com/apexview/apexview/internal/retry"
)

// upstreamError reports a non-2xx, non-404 response from the provider.
type upstreamError struct {
	status int
	path   string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("f1: upstream returned %d for %s", e.status, e.path)
}

// Client implements Provider over the upstream timing provider's JSON API.
// Every request passes through a rate limiter, the circuit breaker, and a
// bounded retry loop; 404 responses map to ErrNotFound and are never retried.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config
	breaker    *breaker.Breaker
	pointLimit int

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger attaches a logger to the client.
func WithLogger(logger *observability.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics attaches upstream request metrics to the client.
func WithMetrics(metrics *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = metrics }
}

// WithHTTPClient replaces the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a Client from the provider configuration.
func NewClient(cfg config.ProviderConfig, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		retryCfg: retry.Config{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Jitter:      0.2,
			Retryable:   transient,
		},
		breaker: breaker.New(breaker.Config{
			FailureThreshold:   cfg.BreakerThreshold,
			OpenTimeout:        cfg.BreakerOpenTimeout,
			HalfOpenMaxSuccess: 1,
		}),
		pointLimit: cfg.TelemetryPointLimit,
		tracer:     observability.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transient reports whether an upstream failure is worth retrying: server
// errors and throttling are, missing data and cancelled contexts are not.
func transient(err error) bool {
	var ue *upstreamError
	if errors.As(err, &ue) {
		return ue.status >= http.StatusInternalServerError || ue.status == http.StatusTooManyRequests
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, breaker.ErrOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Remaining cases are transport-level faults (connection refused, reset).
	return true
}

// Schedule returns the event calendar for a season.
func (c *Client) Schedule(ctx context.Context, year int) ([]Event, error) {
	var payload struct {
		Events []Event `json:"events"`
	}
	path := "/v1/schedule/" + strconv.Itoa(year)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

// Session returns a handle on one session of one event.
func (c *Client) Session(year int, event, code string) Session {
	return &remoteSession{client: c, year: year, event: event, code: code}
}

type remoteSession struct {
	client *Client
	year   int
	event  string
	code   string
}

func (s *remoteSession) path(suffix string) string {
	return fmt.Sprintf("/v1/session/%d/%s/%s%s",
		s.year, url.PathEscape(s.event), url.PathEscape(s.code), suffix)
}

func (s *remoteSession) Load(ctx context.Context, opts LoadOptions) (*SessionData, error) {
	query := url.Values{}
	if opts.Drivers {
		query.Set("drivers", "1")
	}
	if opts.Results {
		query.Set("results", "1")
	}
	path := s.path("")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var payload struct {
		Drivers []Driver `json:"drivers"`
		Results []Result `json:"results"`
	}
	if err := s.client.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return &SessionData{Drivers: payload.Drivers, Results: payload.Results}, nil
}

func (s *remoteSession) Telemetry(ctx context.Context, driver string) (*LapTelemetry, error) {
	path := s.path("/telemetry/" + url.PathEscape(strings.ToUpper(driver)))

	var payload struct {
		LapTime string           `json:"lap_time"`
		Points  []TelemetryPoint `json:"points"`
	}
	if err := s.client.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return &LapTelemetry{
		LapTime: payload.LapTime,
		Points:  Downsample(payload.Points, s.client.pointLimit),
	}, nil
}

// getJSON performs one logical upstream GET with rate limiting, breaker
// accounting and retries, decoding the response body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	_, err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) (struct{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return struct{}{}, err
		}
		if !c.breaker.Allow() {
			return struct{}{}, breaker.ErrOpen
		}

		err := c.doRequest(ctx, path, out)
		// A 404 is a valid upstream answer, not a provider fault.
		if err == nil || errors.Is(err, ErrNotFound) {
			c.breaker.OnSuccess()
		} else {
			c.breaker.OnFailure()
		}
		return struct{}{}, err
	})
	return err
}

func (c *Client) doRequest(ctx context.Context, path string, out any) error {
	ctx, span := c.tracer.Start(ctx, "provider.request",
		trace.WithAttributes(attribute.String("provider.path", path)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ProviderRequest("error", elapsed)
		span.RecordError(err)
		c.logWarn(ctx, "upstream request failed", slog.String("path", path), slog.Any("error", err))
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.ProviderRequest("not_found", elapsed)
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.metrics.ProviderRequest("error", elapsed)
		err := &upstreamError{status: resp.StatusCode, path: path}
		span.RecordError(err)
		c.logWarn(ctx, "upstream request failed", slog.String("path", path), slog.Any("error", err))
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ProviderRequest("error", elapsed)
		span.RecordError(err)
		return fmt.Errorf("f1: decoding %s: %w", path, err)
	}

	c.metrics.ProviderRequest("ok", elapsed)
	c.logDebug(ctx, "upstream request",
		slog.String("path", path),
		slog.Duration("elapsed", elapsed))
	return nil
}

func (c *Client) logDebug(ctx context.Context, msg string, fields ...any) {
	if c.logger == nil {
		return
	}
	c.logger.WithTrace(ctx).Debug(msg, fields...)
}

func (c *Client) logWarn(ctx context.Context, msg string, fields ...any) {
	if c.logger == nil {
		return
	}
	c.logger.WithTrace(ctx).Warn(msg, fields...)
}
