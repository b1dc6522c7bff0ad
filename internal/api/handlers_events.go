// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/presenter"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
	"github.com/marissalerer/listening-booth-dashboard/internal/store"
)

// EventsQuery holds the parameters of GET /api/events.
type EventsQuery struct {
	Mode string `query:"mode" validate:"omitempty,report_mode"`
}

// CachedQuery holds the parameters of GET /api/events/cached.
type CachedQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=json csv html"`
}

// Events runs the pipeline on demand. The cache is not read or written, so
// a slow or failing upstream here never disturbs the dashboard.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	q := EventsQuery{Mode: r.URL.Query().Get("mode")}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	mode, _ := models.ParseReportMode(q.Mode)

	start := time.Now()
	rep, err := h.runner.Run(r.Context(), mode, report.TriggerAPI)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodePipelineFailed, "Failed to build report", err)
		return
	}

	respondSuccess(w, rep, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		GeneratedAt: generatedAt(rep),
	})
}

// CachedEvents serves the last cached report as JSON, CSV or static HTML.
func (h *Handler) CachedEvents(w http.ResponseWriter, r *http.Request) {
	q := CachedQuery{Format: r.URL.Query().Get("format")}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	rep, ok := h.loadCached(w, r)
	if !ok {
		return
	}

	switch q.Format {
	case "csv":
		respondRendered(w, r, presenter.CSV{}, rep, "events.csv")
	case "html":
		respondRendered(w, r, &presenter.HTML{}, rep, "")
	default:
		respondSuccess(w, rep, models.Metadata{Cached: true, GeneratedAt: generatedAt(rep)})
	}
}

// Refresh re-runs the pipeline and replaces the cached report. Connected
// dashboards are notified by the refresher.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rep, err := h.refresher.Refresh(r.Context(), report.TriggerRefresh)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeRefreshFailed, "Failed to refresh report", err)
		return
	}
	respondSuccess(w, rep, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		GeneratedAt: generatedAt(rep),
	})
}

// loadCached writes the error response itself and reports false when no
// report can be served.
func (h *Handler) loadCached(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	rep, err := h.store.Load(r.Context())
	switch {
	case err == nil:
		return rep, true
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, CodeNoCachedReport, "No report has been generated yet", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeCacheError, "Failed to read cached report", err)
	}
	return nil, false
}
