package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

// Client implements ports.Backend against the RatLogger REST API.
//
// Reads go through a circuit breaker and are retried on transient
// failures; writes are sent once. Any 401 on an authenticated endpoint
// is reported to the unauthorized hook before the error is returned.
//
// The client is safe for concurrent use.
type Client struct {
	session     *http.Client
	baseURL     string
	maxAttempts int
	backoff     time.Duration
	breaker     *gobreaker.CircuitBreaker[[]byte]

	onUnauthorized func(ctx context.Context)
}

type Options struct {
	Timeout         time.Duration
	MaxAttempts     int
	BreakerFailures uint32
	BreakerCooldown time.Duration
	// Initial retry delay, doubled after every attempt.
	Backoff time.Duration
	// Overrides the default http.Client; Timeout is ignored when set.
	HTTPClient *http.Client
	// Called on any 401 from an authenticated endpoint.
	OnUnauthorized func(ctx context.Context)
}

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func NewClient(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base url is empty")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}

	session := opts.HTTPClient
	if session == nil {
		session = &http.Client{Timeout: opts.Timeout}
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "ratlogger-backend",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l := logging.Logger()
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Client{
		session:        session,
		baseURL:        baseURL,
		maxAttempts:    opts.MaxAttempts,
		backoff:        opts.Backoff,
		breaker:        breaker,
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// SetUnauthorizedHook replaces the 401 hook. It must be called before the
// client is shared.
func (c *Client) SetUnauthorizedHook(fn func(ctx context.Context)) {
	c.onUnauthorized = fn
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	path string,
	token string,
	body io.Reader,
	contentType string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := c.backoff

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == c.maxAttempts {
			return nil, lastErr
		}

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

// getBody performs an authenticated GET through the breaker and returns
// the raw response body.
func (c *Client) getBody(ctx context.Context, path string, token string, query map[string]string) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
			req, err := c.newRequest(ctx, http.MethodGet, path, token, nil, "")
			if err != nil {
				return nil, err
			}
			if len(query) > 0 {
				q := req.URL.Query()
				for k, v := range query {
					q.Set(k, v)
				}
				req.URL.RawQuery = q.Encode()
			}
			return req, nil
		})
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return b, nil
	})
	if err != nil {
		return nil, c.authFailure(ctx, token, err)
	}

	return body, nil
}

// getJSON decodes an authenticated GET response into out.
func (c *Client) getJSON(ctx context.Context, path string, token string, out any) error {
	body, err := c.getBody(ctx, path, token, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", path, err, domain.ErrMalformedResponse)
	}
	return nil
}

// postJSON sends payload once and decodes the response into out when out is non-nil.
func (c *Client) postJSON(ctx context.Context, path string, token string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, token, bytes.NewReader(b), "application/json")
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return c.authFailure(ctx, token, err)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", path, err, domain.ErrMalformedResponse)
	}
	return nil
}

// authFailure fires the unauthorized hook for 401s on bearer requests.
func (c *Client) authFailure(ctx context.Context, token string, err error) error {
	if token != "" && errors.Is(err, domain.ErrUnauthorized) && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Unwrap maps 401 to domain.ErrUnauthorized.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	return nil
}
