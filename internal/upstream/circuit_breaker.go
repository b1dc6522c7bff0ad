// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
)

// errBreakerFailure marks a Result that should count against the breaker.
var errBreakerFailure = errors.New("upstream failure")

// CircuitBreakerClient wraps a Requester with a gobreaker circuit breaker.
// Server errors, exhausted rate limits and network failures count as
// failures. Client errors such as 404 pass through without tripping it.
type CircuitBreakerClient struct {
	next Requester
	cb   *gobreaker.CircuitBreaker[*Result]
	name string
}

// NewCircuitBreakerClient wraps next using the breaker settings in cfg.
func NewCircuitBreakerClient(next Requester, cfg config.CircuitBreakerConfig) *CircuitBreakerClient {
	name := "events-api"

	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 3
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 10
	}
	ratio := cfg.FailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= ratio {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening upstream circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb, name: name}
}

// Request runs the wrapped request through the breaker.
func (c *CircuitBreakerClient) Request(ctx context.Context, path string, query url.Values) *Result {
	res, err := c.cb.Execute(func() (*Result, error) {
		r := c.next.Request(ctx, path, query)
		if countsAsFailure(r) {
			return r, errBreakerFailure
		}
		return r, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("upstream request rejected by circuit breaker")
		return Failure(0, fmt.Errorf("%w: %v", ErrCircuitOpen, err))
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	}
	return res
}

// State exposes the breaker state for health reporting.
func (c *CircuitBreakerClient) State() string {
	return stateToString(c.cb.State())
}

func countsAsFailure(r *Result) bool {
	if r == nil {
		return true
	}
	if r.OK {
		return false
	}
	if errors.Is(r.Err, context.Canceled) {
		return false
	}
	if r.StatusCode == 0 || r.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return r.StatusCode >= 500
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
