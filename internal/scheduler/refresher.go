// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
	"github.com/marissalerer/listening-booth-dashboard/internal/store"
)

// Runner builds a report. *report.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, mode models.ReportMode, trigger report.Trigger) (*models.Report, error)
}

// Notifier is told about every newly cached report.
type Notifier interface {
	BroadcastReportUpdated(rep *models.Report)
}

// RefreshStatus describes the most recent refresh attempt.
type RefreshStatus struct {
	LastAttempt  time.Time     `json:"last_attempt,omitempty"`
	LastSuccess  time.Time     `json:"last_success,omitempty"`
	LastRunID    string        `json:"last_run_id,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns,omitempty"`
}

// Refresher runs the pipeline and replaces the cached report. Refreshes are
// serialized: a trigger that arrives during a run waits for it and then
// performs its own run.
type Refresher struct {
	runner Runner
	store  store.Store
	mode   models.ReportMode

	runMu sync.Mutex

	mu       sync.RWMutex
	notifier Notifier
	status   RefreshStatus
}

func NewRefresher(runner Runner, st store.Store, mode models.ReportMode) *Refresher {
	if mode == "" {
		mode = models.ModeUpcoming
	}
	return &Refresher{runner: runner, store: st, mode: mode}
}

// SetNotifier installs the receiver of report_updated notifications.
func (r *Refresher) SetNotifier(n Notifier) {
	r.mu.Lock()
	r.notifier = n
	r.mu.Unlock()
}

// Mode is the report mode every refresh uses.
func (r *Refresher) Mode() models.ReportMode { return r.mode }

// Refresh runs the pipeline, saves the result and notifies listeners. On a
// pipeline failure the previously cached report is left untouched.
func (r *Refresher) Refresh(ctx context.Context, trigger report.Trigger) (*models.Report, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now()
	rep, err := r.runner.Run(ctx, r.mode, trigger)
	if err == nil {
		if saveErr := r.store.Save(ctx, rep); saveErr != nil {
			err = fmt.Errorf("cache report: %w", saveErr)
		}
	}

	r.mu.Lock()
	r.status.LastAttempt = start
	r.status.LastDuration = time.Since(start)
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
		r.status.LastSuccess = rep.GeneratedAt
		r.status.LastRunID = rep.RunID
	}
	notifier := r.notifier
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}

	metrics.RecordReportCached(rep.Summary.TotalEvents, rep.GeneratedAt)
	if notifier != nil {
		notifier.BroadcastReportUpdated(rep)
	}
	logging.Ctx(ctx).Debug().Str("trigger", string(trigger)).Str("run_id", rep.RunID).Msg("Cached report replaced")
	return rep, nil
}

// CachedOrFresh returns the cached report, refreshing first when nothing
// has been cached yet.
func (r *Refresher) CachedOrFresh(ctx context.Context, trigger report.Trigger) (*models.Report, error) {
	rep, err := r.store.Load(ctx)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return r.Refresh(ctx, trigger)
}

// Status returns a copy of the last refresh state.
func (r *Refresher) Status() RefreshStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Job wraps Refresh as a scheduled job.
func (r *Refresher) Job(schedule *CronSchedule, runOnStart bool, timeout time.Duration) Job {
	return Job{
		Name:       "report-refresh",
		Schedule:   schedule,
		RunOnStart: runOnStart,
		Timeout:    timeout,
		Run: func(ctx context.Context) error {
			_, err := r.Refresh(ctx, report.TriggerSchedule)
			return err
		},
	}
}
