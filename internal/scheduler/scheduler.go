// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package scheduler runs the server's background jobs on cron schedules.
//
// Two jobs exist today: the periodic report refresh and the email digest.
// The loop wakes every CheckInterval, runs each job whose next fire time
// has passed, then computes its following fire time. Jobs run one at a
// time on the loop goroutine; a job that overruns delays the others but is
// never run twice concurrently.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
)

// Job is one scheduled unit of work.
type Job struct {
	Name     string
	Schedule *CronSchedule

	// RunOnStart fires the job once as soon as the scheduler starts.
	RunOnStart bool

	// Timeout bounds a single run. Zero means no bound.
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// Config holds loop settings.
type Config struct {
	// CheckInterval is how often due jobs are evaluated (default: 30s).
	CheckInterval time.Duration

	// Location evaluates cron expressions. Nil means UTC.
	Location *time.Location
}

// JobStatus is a point-in-time view of a job for the health endpoint.
type JobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	NextRun   time.Time `json:"next_run"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

type jobState struct {
	job     Job
	next    time.Time
	lastRun time.Time
	lastErr error
}

// Scheduler owns the job loop.
type Scheduler struct {
	config Config
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	jobs    []*jobState
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a scheduler. Jobs are added with Add before Start.
func New(cfg Config) *Scheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		config: cfg,
		logger: logging.Component("scheduler"),
		now:    time.Now,
	}
}

// Add registers a job. It fails when the scheduler is running or the job
// is incomplete.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Schedule == nil || job.Run == nil {
		return errors.New("scheduler: job needs a name, a schedule and a run func")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler: cannot add job %q while running", job.Name)
	}
	for _, st := range s.jobs {
		if st.job.Name == job.Name {
			return fmt.Errorf("scheduler: duplicate job %q", job.Name)
		}
	}
	s.jobs = append(s.jobs, &jobState{job: job})
	return nil
}

// Start begins the loop and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	now := s.now()
	for _, st := range s.jobs {
		st.next = st.job.Schedule.Next(now, s.config.Location)
	}
	n := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info().
		Int("jobs", n).
		Dur("check_interval", s.config.CheckInterval).
		Str("timezone", s.config.Location.String()).
		Msg("Starting scheduler")

	go s.run(ctx)
	return nil
}

// Stop ends the loop and waits for an in-flight job to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot of every job in registration order.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, st := range s.jobs {
		js := JobStatus{
			Name:     st.job.Name,
			Schedule: st.job.Schedule.String(),
			NextRun:  st.next,
			LastRun:  st.lastRun,
		}
		if st.lastErr != nil {
			js.LastError = st.lastErr.Error()
		}
		out = append(out, js)
	}
	return out
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	// stopCh also cancels a job that is still running
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for _, st := range s.snapshot() {
		if st.job.RunOnStart {
			s.execute(runCtx, st)
		}
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDue(runCtx)
		case <-runCtx.Done():
			return
		}
	}
}

func (s *Scheduler) snapshot() []*jobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*jobState(nil), s.jobs...)
}

func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()
	for _, st := range s.snapshot() {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		due := !st.next.IsZero() && !now.Before(st.next)
		s.mu.Unlock()
		if !due {
			continue
		}
		s.execute(ctx, st)

		s.mu.Lock()
		st.next = st.job.Schedule.Next(s.now(), s.config.Location)
		s.mu.Unlock()
	}
}

func (s *Scheduler) execute(ctx context.Context, st *jobState) {
	jobCtx := ctx
	if st.job.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, st.job.Timeout)
		defer cancel()
	}

	start := s.now()
	err := runJob(jobCtx, st.job)

	s.mu.Lock()
	st.lastRun = start
	st.lastErr = err
	s.mu.Unlock()

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.Str("job", st.job.Name).Dur("duration", time.Since(start)).Msg("Scheduled job finished")
}

// runJob converts a panic in a job into an error so the loop survives.
func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}
