// Package httpclient is the outbound HTTP layer shared by the geocoding and
// routing adapters: retry with exponential backoff, an optional rate limit and
// a circuit breaker per provider.
package httpclient

import (
	"context"
	"errors"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/platform/metrics"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 200 * time.Millisecond
	maxErrorBody       = 512
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Client issues JSON requests to one provider.
// It is safe for concurrent use.
type Client struct {
	name        string
	session     *http.Client
	header      http.Header
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
}

type Option func(*Client)

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithRateLimit spaces requests to at most r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithRetry overrides the attempt count and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.session = h }
}

// New returns a client for the named provider. Per-call deadlines come from
// the caller's context.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name:        name,
		session:     &http.Client{Timeout: 30 * time.Second},
		header:      http.Header{"Accept": []string{"application/json"}},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		log:         logging.Named("httpclient").With().Str("provider", name).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics.BreakerState.WithLabelValues(name).Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client mistakes and caller cancellation say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || (!retryable(err) && !errors.Is(err, context.DeadlineExceeded))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			c.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return c
}

func (c *Client) Name() string { return c.name }

// GetJSON fetches url and decodes the 2xx response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, func() (*http.Request, error) {
			return c.newRequest(ctx, http.MethodGet, url, nil)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequests.WithLabelValues(c.name, "rejected").Inc()
		}
		return fmt.Errorf("%s request: %w", c.name, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode response: %w", c.name, err)
	}
	return nil
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range c.header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) ([]byte, error) {
	backoff := c.backoff

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt == c.maxAttempts {
			return nil, lastErr
		}

		c.log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying provider request")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
