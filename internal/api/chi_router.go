// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marissalerer/listening-booth-dashboard/internal/middleware"
)

// Router builds the chi router for every endpoint. A nil mw uses the
// defaults.
func (h *Handler) Router(mw *ChiMiddleware) http.Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.monitor.Middleware)
	r.Use(SecurityHeaders)

	r.With(middleware.Compression).Get("/", h.Dashboard)
	r.Get("/ws", h.WebSocket)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.Get("/stats", h.Stats)
			r.Get("/events", h.Events)
			r.With(middleware.Compression).Get("/events/cached", h.CachedEvents)
			r.Post("/refresh", h.Refresh)
			r.Post("/email/test", h.EmailTest)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}
