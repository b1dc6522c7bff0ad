// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

import (
	"context"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/delivery"
	"github.com/marissalerer/listening-booth-dashboard/internal/middleware"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
	"github.com/marissalerer/listening-booth-dashboard/internal/scheduler"
	"github.com/marissalerer/listening-booth-dashboard/internal/store"
	"github.com/marissalerer/listening-booth-dashboard/internal/websocket"
)

// ReportRunner produces a fresh report without touching the cache.
type ReportRunner interface {
	Run(ctx context.Context, mode models.ReportMode, trigger report.Trigger) (*models.Report, error)
}

// ReportRefresher replaces the cached report.
type ReportRefresher interface {
	Refresh(ctx context.Context, trigger report.Trigger) (*models.Report, error)
	CachedOrFresh(ctx context.Context, trigger report.Trigger) (*models.Report, error)
	Status() scheduler.RefreshStatus
}

// TestMailer sends the digest to a single address.
type TestMailer interface {
	SendTest(ctx context.Context, rep *models.Report, recipient string) *delivery.Result
}

// JobLister exposes scheduler state to the health endpoint.
type JobLister interface {
	Running() bool
	Status() []scheduler.JobStatus
}

// breakerReporter is implemented by runners with a circuit breaker.
type breakerReporter interface {
	BreakerState() string
}

// Deps are the collaborators of a Handler. Mailer and Jobs may be nil when
// email or scheduling is disabled.
type Deps struct {
	Config    *config.Config
	Runner    ReportRunner
	Refresher ReportRefresher
	Store     store.Store
	Hub       *websocket.Hub
	Mailer    TestMailer
	Jobs      JobLister
	Monitor   *middleware.PerformanceMonitor
	Version   string
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	cfg       *config.Config
	runner    ReportRunner
	refresher ReportRefresher
	store     store.Store
	hub       *websocket.Hub
	mailer    TestMailer
	jobs      JobLister
	monitor   *middleware.PerformanceMonitor
	version   string
	startTime time.Time
	now       func() time.Time
}

func NewHandler(d Deps) *Handler {
	if d.Version == "" {
		d.Version = "dev"
	}
	if d.Monitor == nil {
		d.Monitor = middleware.NewPerformanceMonitor(0, 0)
	}
	if d.Hub == nil {
		d.Hub = websocket.NewHub()
	}
	return &Handler{
		cfg:       d.Config,
		runner:    d.Runner,
		refresher: d.Refresher,
		store:     d.Store,
		hub:       d.Hub,
		mailer:    d.Mailer,
		jobs:      d.Jobs,
		monitor:   d.Monitor,
		version:   d.Version,
		startTime: time.Now(),
		now:       time.Now,
	}
}
