// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package delivery mails report digests over SMTP.
//
// A digest carries the console rendering of a report as its text part and
// the static HTML rendering as its HTML part. Failures are classified into
// stable error codes and split into transient (connection, timeout, 4xx
// replies) and permanent failures.
//
// Credentials are never logged.
package delivery
