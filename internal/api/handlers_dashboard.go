// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/marissalerer/listening-booth-dashboard/internal/presenter"
	"github.com/marissalerer/listening-booth-dashboard/internal/store"
)

// Dashboard serves the live HTML page for the cached report. Before the
// first refresh it serves a placeholder that reloads on report_updated.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := &presenter.HTML{Live: true, RefreshPath: "/api/refresh", SocketPath: "/ws"}

	rep, err := h.store.Load(r.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusInternalServerError, CodeCacheError, "Failed to read cached report", err)
		return
	}
	if rep != nil {
		respondRendered(w, r, page, rep, "")
		return
	}

	var buf bytes.Buffer
	if err := page.RenderPlaceholder(&buf); err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeRenderFailed, "Failed to render dashboard", err)
		return
	}
	writeRendered(w, r, page.ContentType(), &buf, "")
}
