// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

/*
Package websocket pushes report notifications to open dashboards.

The hub keeps the set of connected clients and fans out typed messages.
Each client runs two goroutines: readPump answers application pings and
detects disconnects, writePump drains the client's send queue and keeps
the connection alive with protocol pings.

	┌──────────┐
	│   Hub    │ ← BroadcastReportUpdated
	└────┬─────┘
	     │
	┌────┴─────┬─────────┐
	│ Client1  │ Client2 │ ...
	└──────────┴─────────┘

Message types:

  - report_updated: a refreshed report was cached; dashboards reload
  - ping / pong: application-level keepalive initiated by the browser

A client whose send queue is full is dropped rather than allowed to stall
the broadcast.
*/
package websocket
