// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package services adapts server components to suture.Service.
//
// Each wrapper depends on a small interface rather than the concrete type,
// so the package imports neither net/http servers nor the scheduler and can
// be tested with fakes:
//
//   - HTTPServerService: ListenAndServe / Shutdown
//   - SchedulerService: Start / Stop
//   - WebSocketHubService: RunWithContext
//
// Serve returns ctx.Err() after a requested shutdown and a wrapped error
// otherwise, which suture treats as a failure and restarts.
package services
