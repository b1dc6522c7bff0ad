// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
)

const (
	// maxErrorBodySize bounds how much of a failed response is kept.
	maxErrorBodySize = 64 * 1024

	// maxBodySize bounds a successful response body.
	maxBodySize = 32 << 20
)

var (
	// ErrRateLimited is returned once HTTP 429 retries are exhausted.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrCircuitOpen is returned when the circuit breaker rejects a request.
	ErrCircuitOpen = errors.New("upstream circuit breaker open")
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Result is the tagged outcome of one upstream request. Failures are
// reported here rather than returned as a Go error, so every caller has to
// inspect OK before using Body.
type Result struct {
	OK         bool
	StatusCode int
	Body       []byte
	Err        error
}

// Failure builds a failed Result.
func Failure(statusCode int, err error) *Result {
	return &Result{StatusCode: statusCode, Err: err}
}

// Decode unmarshals Body into v, or returns Err when the request failed.
func (r *Result) Decode(v interface{}) error {
	if r == nil {
		return errors.New("nil upstream result")
	}
	if !r.OK {
		if r.Err != nil {
			return r.Err
		}
		return fmt.Errorf("upstream request failed with HTTP %d", r.StatusCode)
	}
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}

// Message returns a human-readable failure message, empty on success.
func (r *Result) Message() string {
	if r == nil || r.OK {
		return ""
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return fmt.Sprintf("HTTP %d", r.StatusCode)
}

func (r *Result) outcome() string {
	var se *StatusError
	switch {
	case r.OK:
		return "ok"
	case errors.Is(r.Err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(r.Err, ErrCircuitOpen):
		return "circuit_open"
	case errors.As(r.Err, &se):
		return "http_error"
	default:
		return "network_error"
	}
}

// Requester issues authenticated GET requests against the event service.
// *Client and *CircuitBreakerClient both satisfy it.
type Requester interface {
	Request(ctx context.Context, path string, query url.Values) *Result
}

// Client talks to the upstream event-management API.
type Client struct {
	baseURL    string
	token      string
	siteID     string
	siteHeader string
	client     *http.Client
	limiter    *rate.Limiter

	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient builds a client from upstream configuration.
func NewClient(cfg *config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	header := cfg.SiteHeader
	if header == "" {
		header = "X-Site-Id"
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		siteID:         cfg.SiteID,
		siteHeader:     header,
		client:         &http.Client{Timeout: timeout},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: baseDelay,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// Request performs GET {baseURL}{path}?{query}.
func (c *Client) Request(ctx context.Context, path string, query url.Values) *Result {
	start := time.Now()
	res := c.request(ctx, path, query)
	metrics.RecordUpstreamRequest(resourceName(path), res.outcome(), time.Since(start))
	return res
}

func (c *Client) request(ctx context.Context, path string, query url.Values) *Result {
	reqURL := c.buildURL(path, query)

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return Failure(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return Failure(resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Failure(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	return &Result{OK: true, StatusCode: resp.StatusCode, Body: body}
}

// doRequestWithRateLimit retries HTTP 429 responses with a linearly
// increasing delay. Any other response, including other errors, is
// returned to the caller on the first attempt.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		retryAfter := resp.Header.Get("Retry-After")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, fmt.Errorf("%w after %d retries (HTTP 429)", ErrRateLimited, c.maxRetries)
		}

		delay := c.retryDelay(attempt, retryAfter)
		metrics.UpstreamRetries.Inc()
		logging.Ctx(ctx).Warn().
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Dur("delay", delay).
			Str("path", req.URL.Path).
			Msg("upstream rate limited, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w after %d retries (HTTP 429)", ErrRateLimited, c.maxRetries)
}

// retryDelay is base*(attempt+1), raised to a numeric Retry-After when the
// server asks for longer.
func (c *Client) retryDelay(attempt int, retryAfter string) time.Duration {
	delay := c.retryBaseDelay * time.Duration(attempt+1)
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			if ra := time.Duration(secs) * time.Second; ra > delay {
				delay = ra
			}
		}
	}
	return delay
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set(c.siteHeader, c.siteID)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// resourceName reduces a request path to a low-cardinality metric label:
// "/events" -> "events", "/events/123/rsvps" -> "rsvps".
func resourceName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "root"
	}
	if len(parts) >= 3 {
		return parts[len(parts)-1]
	}
	return parts[0]
}
