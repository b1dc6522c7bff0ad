// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package store

import (
	"context"
	"sync/atomic"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Memory keeps the report in-process behind an atomic pointer.
type Memory struct {
	slot atomic.Pointer[models.Report]
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (*models.Report, error) {
	rep := m.slot.Load()
	if rep == nil {
		return nil, ErrNotFound
	}
	return rep, nil
}

// Save stores rep. Callers must not mutate rep afterwards.
func (m *Memory) Save(ctx context.Context, rep *models.Report) error {
	m.slot.Store(rep)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Backend() string { return BackendMemory }

func (m *Memory) Close() error { return nil }
