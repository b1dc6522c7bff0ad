// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booth_pipeline_runs_total",
			Help: "Total report pipeline runs by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: schedule, manual, cli, fresh
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booth_pipeline_duration_seconds",
			Help:    "Duration of complete pipeline runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ReportEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booth_report_events",
			Help: "Number of events in the most recently cached report",
		},
	)

	ReportLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booth_report_last_success_timestamp_seconds",
			Help: "Unix time of the last successfully cached report",
		},
	)

	// Upstream API

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booth_upstream_requests_total",
			Help: "Upstream API requests by resource and outcome",
		},
		[]string{"resource", "outcome"}, // outcome: ok, http_error, network_error, rate_limited
	)

	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booth_upstream_rate_limit_retries_total",
			Help: "Retries performed after HTTP 429 responses",
		},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booth_upstream_request_duration_seconds",
			Help:    "Upstream request latency including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booth_enrichment_failures_total",
			Help: "Per-event enrichment fetches that degraded to unknown",
		},
		[]string{"source"},
	)

	// Circuit breaker

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Delivery and live clients

	EmailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booth_email_deliveries_total",
			Help: "Digest email deliveries by kind and result",
		},
		[]string{"kind", "result"}, // kind: digest, test
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booth_websocket_clients",
			Help: "Connected live dashboard clients",
		},
	)
)

// RecordPipelineRun records the outcome of one pipeline execution.
func RecordPipelineRun(trigger string, duration time.Duration, err error) {
	PipelineDuration.Observe(duration.Seconds())
	if err != nil {
		PipelineRuns.WithLabelValues(trigger, "error").Inc()
		return
	}
	PipelineRuns.WithLabelValues(trigger, "success").Inc()
}

// RecordReportCached updates the cached report gauges.
func RecordReportCached(events int, at time.Time) {
	ReportEvents.Set(float64(events))
	ReportLastSuccess.Set(float64(at.Unix()))
}

// RecordUpstreamRequest records one logical upstream call (after retries).
func RecordUpstreamRequest(resource, outcome string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(resource, outcome).Inc()
	UpstreamDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordEnrichmentFailure counts a degraded enrichment source.
func RecordEnrichmentFailure(source string) {
	EnrichmentFailures.WithLabelValues(source).Inc()
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEmailDelivery counts one email delivery attempt. result is
// "success", "failure" or "transient_failure".
func RecordEmailDelivery(kind, result string) {
	EmailDeliveries.WithLabelValues(kind, result).Inc()
}
