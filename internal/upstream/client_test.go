// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
)

func newTestConfig(baseURL string) *config.UpstreamConfig {
	return &config.UpstreamConfig{
		BaseURL:        baseURL,
		Token:          "test-token",
		SiteID:         "site-1",
		SiteHeader:     "X-Site-Id",
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}
}

func TestClientSendsAuthHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Site-Id"); got != "site-1" {
			t.Errorf("X-Site-Id = %q", got)
		}
		if r.URL.Path != "/v1/events" {
			t.Errorf("path = %q, want /v1/events", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "100" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[],"total":0}`))
	}))
	defer server.Close()

	client := NewClient(newTestConfig(server.URL + "/v1/"))
	res := client.Request(context.Background(), "/events", url.Values{"limit": {"100"}})
	if !res.OK {
		t.Fatalf("Request() failed: %s", res.Message())
	}

	var body struct {
		Total int `json:"total"`
	}
	if err := res.Decode(&body); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
}

func TestClientRateLimitRetry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"events":[]}`))
	}))
	defer server.Close()

	client := NewClient(newTestConfig(server.URL))
	res := client.Request(context.Background(), "/events", nil)
	if !res.OK {
		t.Fatalf("expected success after retries, got %s", res.Message())
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClientRateLimitExhausted(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(newTestConfig(server.URL))
	res := client.Request(context.Background(), "/events/1/rsvps", nil)
	if res.OK {
		t.Fatal("expected failure when rate limit persists")
	}
	if !errors.Is(res.Err, ErrRateLimited) {
		t.Errorf("Err = %v, want ErrRateLimited", res.Err)
	}
	if !strings.Contains(res.Message(), "after 3 retries") {
		t.Errorf("Message() = %q", res.Message())
	}
	if got := attempts.Load(); got != 4 {
		t.Errorf("attempts = %d, want 4 (1 + 3 retries)", got)
	}
}

func TestClientNonRetryableStatus(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("database unavailable"))
	}))
	defer server.Close()

	client := NewClient(newTestConfig(server.URL))
	res := client.Request(context.Background(), "/events", nil)
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", res.StatusCode)
	}
	var se *StatusError
	if !errors.As(res.Err, &se) {
		t.Fatalf("Err = %T, want *StatusError", res.Err)
	}
	if se.Body != "database unavailable" {
		t.Errorf("StatusError.Body = %q", se.Body)
	}
	if attempts.Load() != 1 {
		t.Errorf("500 should not be retried, attempts = %d", attempts.Load())
	}
	if err := res.Decode(&struct{}{}); err == nil {
		t.Error("Decode() on failed result should return error")
	}
}

func TestClientNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	client := NewClient(newTestConfig(addr))
	res := client.Request(context.Background(), "/events", nil)
	if res.OK {
		t.Fatal("expected network failure")
	}
	if res.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", res.StatusCode)
	}
	if res.outcome() != "network_error" {
		t.Errorf("outcome = %q, want network_error", res.outcome())
	}
}

func TestClientContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.RetryBaseDelay = time.Minute
	client := NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := client.Request(ctx, "/events", nil)
	if res.OK {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", res.Err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff did not respect context cancellation")
	}
}

func TestClientInvalidJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := NewClient(newTestConfig(server.URL))
	res := client.Request(context.Background(), "/events", nil)
	if !res.OK {
		t.Fatalf("transport should succeed: %s", res.Message())
	}
	var v map[string]interface{}
	if err := res.Decode(&v); err == nil {
		t.Error("expected decode error")
	}
}

func TestClientRequestsPerSecond(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.RequestsPerSecond = 20
	cfg.Burst = 1
	client := NewClient(cfg)
	if client.limiter == nil {
		t.Fatal("limiter should be configured")
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if res := client.Request(context.Background(), "/events", nil); !res.OK {
			t.Fatalf("request %d failed: %s", i, res.Message())
		}
	}
	// Burst 1 at 20/s: the 2nd and 3rd requests wait ~50ms each.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("requests were not paced, elapsed %v", elapsed)
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	c := &Client{retryBaseDelay: time.Second}
	tests := []struct {
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{0, "", time.Second},
		{1, "", 2 * time.Second},
		{2, "", 3 * time.Second},
		{0, "5", 5 * time.Second},
		{2, "1", 3 * time.Second},
		{0, "soon", time.Second},
	}
	for _, tt := range tests {
		if got := c.retryDelay(tt.attempt, tt.retryAfter); got != tt.want {
			t.Errorf("retryDelay(%d, %q) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
		}
	}
}

func TestResourceName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/events":             "events",
		"events":              "events",
		"/events/abc/rsvps":   "rsvps",
		"/events/abc/tickets": "tickets",
		"/":                   "root",
	}
	for in, want := range tests {
		if got := resourceName(in); got != want {
			t.Errorf("resourceName(%q) = %q, want %q", in, got, want)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReadBodyForError(t *testing.T) {
	t.Parallel()

	if got := string(readBodyForError(strings.NewReader("oops"))); got != "oops" {
		t.Errorf("readBodyForError() = %q", got)
	}
	if got := string(readBodyForError(failingReader{})); got != "(failed to read response body)" {
		t.Errorf("readBodyForError(failing) = %q", got)
	}
}
