// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestScheduler(clock *fakeClock) *Scheduler {
	s := New(Config{CheckInterval: 5 * time.Millisecond})
	s.now = clock.Now
	return s
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestAddValidation(t *testing.T) {
	t.Parallel()

	s := New(Config{})
	noop := func(context.Context) error { return nil }

	if err := s.Add(Job{Name: "x", Run: noop}); err == nil {
		t.Error("job without schedule should be rejected")
	}
	if err := s.Add(Job{Name: "x", Schedule: MustParseCron("* * * * *"), Run: noop}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add(Job{Name: "x", Schedule: MustParseCron("* * * * *"), Run: noop}); err == nil {
		t.Error("duplicate job should be rejected")
	}
}

func TestSchedulerRunsDueJob(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 30, 0, time.UTC)}
	s := newTestScheduler(clock)

	ran := make(chan struct{}, 1)
	var calls atomic.Int32
	err := s.Add(Job{
		Name:     "tick",
		Schedule: MustParseCron("*/5 * * * *"),
		Run: func(context.Context) error {
			if calls.Add(1) == 1 {
				ran <- struct{}{}
			}
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	// not due before 10:05
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("job ran early: %d calls", calls.Load())
	}

	clock.Set(time.Date(2026, 1, 15, 10, 5, 0, 0, time.UTC))
	waitFor(t, ran, "due job")

	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 until the next fire time", got)
	}

	st := s.Status()
	if len(st) != 1 || !st[0].NextRun.Equal(time.Date(2026, 1, 15, 10, 10, 0, 0, time.UTC)) {
		t.Errorf("Status() = %+v", st)
	}
}

func TestSchedulerRunOnStart(t *testing.T) {
	t.Parallel()

	s := New(Config{CheckInterval: time.Hour})
	ran := make(chan struct{})
	_ = s.Add(Job{
		Name:       "boot",
		Schedule:   MustParseCron("0 0 1 1 *"),
		RunOnStart: true,
		Run: func(context.Context) error {
			close(ran)
			return errors.New("upstream down")
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ran, "run on start")
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}

	st := s.Status()
	if st[0].LastError != "upstream down" {
		t.Errorf("LastError = %q", st[0].LastError)
	}
	if st[0].LastRun.IsZero() {
		t.Error("LastRun not recorded")
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	t.Parallel()

	s := New(Config{CheckInterval: time.Hour})
	started := make(chan struct{})
	var sawCancel atomic.Bool
	_ = s.Add(Job{
		Name:       "slow",
		Schedule:   MustParseCron("* * * * *"),
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			sawCancel.Store(true)
			return ctx.Err()
		},
	})

	_ = s.Start(context.Background())
	waitFor(t, started, "job start")
	_ = s.Stop()

	if !sawCancel.Load() {
		t.Error("job context was not cancelled by Stop")
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestJobTimeout(t *testing.T) {
	t.Parallel()

	s := New(Config{CheckInterval: time.Hour})
	done := make(chan error, 1)
	_ = s.Add(Job{
		Name:       "bounded",
		Schedule:   MustParseCron("* * * * *"),
		RunOnStart: true,
		Timeout:    10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		},
	})
	_ = s.Start(context.Background())
	defer s.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job timeout not applied")
	}
}

func TestStartTwice(t *testing.T) {
	t.Parallel()

	s := New(Config{CheckInterval: time.Hour})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	if err := s.Add(Job{Name: "late", Schedule: MustParseCron("* * * * *"), Run: func(context.Context) error { return nil }}); err == nil {
		t.Error("Add while running should fail")
	}
}

func TestRunJobRecoversPanic(t *testing.T) {
	t.Parallel()

	err := runJob(context.Background(), Job{Name: "boom", Run: func(context.Context) error { panic("nil map") }})
	if err == nil || !strings.Contains(err.Error(), "job boom panicked: nil map") {
		t.Errorf("runJob() error = %v", err)
	}
}
