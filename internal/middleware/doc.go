// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

/*
Package middleware provides the infrastructure HTTP middleware of the
dashboard server. Every middleware has the chi signature
func(http.Handler) http.Handler.

  - RequestID: X-Request-ID propagation into the response and the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge labelled by route pattern
  - PerformanceMonitor: sliding-window latency stats and slow request warnings
  - Compression: gzip for report downloads and the dashboard page

Route patterns are only known once chi has matched the route, so the
metrics middleware must be mounted with r.Use on the router, not wrapped
around it:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/", h.Dashboard)
*/
package middleware
