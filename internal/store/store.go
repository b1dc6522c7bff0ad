// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package store holds the most recently built report.
//
// The store has exactly one slot. Save replaces the slot as a whole, so a
// concurrent Load observes either the previous report or the new one and
// never a partially built value.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

// ErrNotFound is returned by Load when no report has been saved yet.
var ErrNotFound = errors.New("store: no cached report")

// Store is the single-slot report holder shared by the API and the scheduler.
type Store interface {
	// Load returns the cached report or ErrNotFound.
	Load(ctx context.Context) (*models.Report, error)

	// Save replaces the cached report.
	Save(ctx context.Context, rep *models.Report) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Backend names the implementation, e.g. "memory".
	Backend() string

	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
