// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package events fetches, enriches and classifies upstream events.
//
// Fetcher pages the events collection and Partition splits it into
// upcoming, past and undated sets. Enricher fans out per-event Source
// fetches (rsvps, tickets, orders) with a concurrency cap and merges the
// results by index. Classifier tags each enriched event with a type and a
// sales or popularity status.
package events
