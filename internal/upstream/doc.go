// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

/*
Package upstream is the HTTP client for the third-party event-management API.

Every request carries the bearer token and site id headers. HTTP 429 is
retried a bounded number of times with linearly increasing delay; every
other failure comes back on the first attempt as a Result with OK=false.
Callers inspect the Result rather than receiving a Go error:

	res := client.Request(ctx, "/events", url.Values{"limit": {"100"}})
	if !res.OK {
		return fmt.Errorf("list events: %s", res.Message())
	}

Optional layers:

  - outbound pacing with golang.org/x/time/rate (upstream.requests_per_second)
  - CircuitBreakerClient, a gobreaker decorator (upstream.circuit_breaker)
*/
package upstream
