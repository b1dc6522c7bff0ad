// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package models

import (
	"time"
)

// APIResponse is the envelope returned by every JSON endpoint.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{
//	  "status": "error",
//	  "error": {"code": "NO_CACHED_REPORT", "message": "No report has been generated yet"},
//	  "metadata": {"timestamp": "2026-10-14T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and cache information.
type Metadata struct {
	Timestamp   time.Time  `json:"timestamp"`
	QueryTimeMS int64      `json:"query_time_ms,omitempty"`
	Cached      bool       `json:"cached,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status         string     `json:"status"`
	Version        string     `json:"version"`
	Uptime         float64    `json:"uptime_seconds"`
	ReportCached   bool       `json:"report_cached"`
	LastRefresh    *time.Time `json:"last_refresh,omitempty"`
	LastRefreshErr string     `json:"last_refresh_error,omitempty"`
	ReportAge      float64    `json:"report_age_seconds,omitempty"`
	CacheBackend   string     `json:"cache_backend"`
	CacheError     string     `json:"cache_error,omitempty"`
	CircuitBreaker string     `json:"circuit_breaker,omitempty"`
	SchedulerOn    bool       `json:"scheduler_running"`
	Jobs           []JobInfo  `json:"jobs,omitempty"`
	LiveClients    int        `json:"live_clients"`
}

// JobInfo describes one scheduled job in the health response.
type JobInfo struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	NextRun   time.Time  `json:"next_run"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// EmailTestRequest is the body of the test digest endpoint.
type EmailTestRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Fresh     bool   `json:"fresh"`
}

// EmailTestResult reports the outcome of a test digest delivery.
type EmailTestResult struct {
	Recipient   string     `json:"recipient"`
	Success     bool       `json:"success"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ErrorCode   string     `json:"error_code,omitempty"`
	Error       string     `json:"error,omitempty"`
	RunID       string     `json:"run_id"`
}
