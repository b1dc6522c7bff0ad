// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package report builds Report snapshots from enriched events and runs the
// end-to-end pipeline shared by the CLI and the server.
package report
