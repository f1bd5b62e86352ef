package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/city-explorer-service/internal/observability"
	"github.com/kjstillabower/city-explorer-service/internal/requestctx"
)

// Gateway performs outbound GET requests to third-party providers and decodes JSON bodies.
type Gateway interface {
	FetchJSON(ctx context.Context, req Request, out interface{}) error
}

// Request describes one outbound call. Query is merged into any query already on URL.
type Request struct {
	Provider string
	URL      string
	Query    url.Values
	Header   http.Header
}

var (
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrNotFound          = errors.New("not found")
	ErrUpstreamFailure   = errors.New("upstream failure")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("malformed response")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

const maxBodyBytes = 4 << 20

// BreakerConfig configures one sony/gobreaker circuit per provider.
type BreakerConfig struct {
	FailureThreshold uint32
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	OnStateChange    func(provider string, from, to gobreaker.State)
}

// Options configures an HTTPGateway. Zero values fall back to single-attempt, 5s timeout.
type Options struct {
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Breaker        *BreakerConfig // nil disables circuit breaking
	Transport      http.RoundTripper
}

// HTTPGateway is the net/http implementation of Gateway. Safe for concurrent use;
// the underlying http.Client is shared by all requests.
type HTTPGateway struct {
	client         *http.Client
	timeout        time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration

	breakerCfg *BreakerConfig
	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker
}

// New returns an HTTPGateway configured by opts.
func New(opts Options) *HTTPGateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 1
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 100 * time.Millisecond
	}
	if opts.RetryMaxDelay < opts.RetryBaseDelay {
		opts.RetryMaxDelay = 2 * time.Second
	}
	return &HTTPGateway{
		client:         &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		timeout:        opts.Timeout,
		retryAttempts:  opts.RetryAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		retryMaxDelay:  opts.RetryMaxDelay,
		breakerCfg:     opts.Breaker,
		breakers:       make(map[string]*gobreaker.CircuitBreaker),
	}
}

// FetchJSON issues GET req and decodes the JSON body into out.
// Retries (when configured) apply only to rate limiting, 5xx and timeouts.
func (g *HTTPGateway) FetchJSON(ctx context.Context, req Request, out interface{}) error {
	provider := req.Provider
	if provider == "" {
		provider = "unknown"
	}

	var lastErr error
	for attempt := 0; attempt < g.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.WithLabelValues(provider).Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.calculateBackoff(attempt)):
			}
		}

		err := g.callThroughBreaker(ctx, provider, req, out)
		if err == nil {
			return nil
		}
		observability.UpstreamErrorsTotal.WithLabelValues(provider, string(CategorizeError(err))).Inc()

		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}

	if g.retryAttempts > 1 {
		return fmt.Errorf("exhausted retries: %w", lastErr)
	}
	return lastErr
}

func (g *HTTPGateway) callThroughBreaker(ctx context.Context, provider string, req Request, out interface{}) error {
	cb := g.breaker(provider)
	if cb == nil {
		return g.callAPI(ctx, provider, req, out)
	}
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, g.callAPI(ctx, provider, req, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, provider)
	}
	return err
}

// breaker returns the provider's circuit, creating it on first use. Nil when disabled.
func (g *HTTPGateway) breaker(provider string) *gobreaker.CircuitBreaker {
	if g.breakerCfg == nil {
		return nil
	}
	g.breakersMu.Lock()
	defer g.breakersMu.Unlock()
	if cb, ok := g.breakers[provider]; ok {
		return cb
	}
	cfg := g.breakerCfg
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.CircuitBreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	})
	g.breakers[provider] = cb
	return cb
}

func (g *HTTPGateway) callAPI(ctx context.Context, provider string, req Request, out interface{}) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := buildRequest(reqCtx, req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(provider, "error").Inc()
		return fmt.Errorf("build request: %w", err)
	}
	if corrID := requestctx.CorrelationID(ctx); corrID != "" {
		httpReq.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(provider, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(provider, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s request timeout: %w", provider, err)
		}
		return fmt.Errorf("%s http request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(provider, status).Inc()
	observability.UpstreamDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(resp); err != nil {
		return fmt.Errorf("%s: %w", provider, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s read response body: %w", provider, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s parse response: %v", ErrMalformedResponse, provider, err)
	}
	return nil
}

func buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrInvalidAPIKey, resp.StatusCode)
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded")
}

func (g *HTTPGateway) calculateBackoff(attempt int) time.Duration {
	delay := float64(g.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(g.retryMaxDelay) {
		delay = float64(g.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
