// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/store"
)

const healthPingTimeout = 2 * time.Second

// Health reports process and cache state. It never calls the upstream API.
//
// Status is "healthy", or "degraded" when the cache backend is unreachable
// or the last refresh failed. Degraded still answers 200 so load balancers
// keep routing to an instance that can serve its cached report.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	status := models.HealthStatus{
		Status:       "healthy",
		Version:      h.version,
		Uptime:       now.Sub(h.startTime).Seconds(),
		CacheBackend: h.store.Backend(),
		LiveClients:  h.hub.ClientCount(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.CacheError = err.Error()
	} else if rep, err := h.store.Load(ctx); err == nil {
		status.ReportCached = true
		status.ReportAge = now.Sub(rep.GeneratedAt).Seconds()
	} else if !errors.Is(err, store.ErrNotFound) {
		status.Status = "degraded"
		status.CacheError = err.Error()
	}

	if h.refresher != nil {
		rs := h.refresher.Status()
		if !rs.LastSuccess.IsZero() {
			t := rs.LastSuccess
			status.LastRefresh = &t
		}
		if rs.LastError != "" {
			status.Status = "degraded"
			status.LastRefreshErr = rs.LastError
		}
	}

	if br, ok := h.runner.(breakerReporter); ok {
		status.CircuitBreaker = br.BreakerState()
	}

	if h.jobs != nil {
		status.SchedulerOn = h.jobs.Running()
		for _, js := range h.jobs.Status() {
			info := models.JobInfo{
				Name:      js.Name,
				Schedule:  js.Schedule,
				NextRun:   js.NextRun,
				LastError: js.LastError,
			}
			if !js.LastRun.IsZero() {
				t := js.LastRun
				info.LastRun = &t
			}
			status.Jobs = append(status.Jobs, info)
		}
	}

	respondSuccess(w, status, models.Metadata{Timestamp: now.UTC()})
}

// Stats returns request latency per route from the performance monitor.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, h.monitor.Stats(), models.Metadata{})
}
