// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a single event record as returned by the upstream event service.
// Start is nil when the upstream record carries no parsable start timestamp.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Start       *time.Time `json:"start,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	URL         string     `json:"url,omitempty"`
}

// HasStart reports whether the event has a usable start timestamp.
func (e Event) HasStart() bool {
	return e.Start != nil && !e.Start.IsZero()
}

// Location returns the venue name, falling back to the address.
func (e Event) Location() string {
	if e.Venue != "" {
		return e.Venue
	}
	return e.Address
}

// Count is a non-negative count that remembers whether it was actually
// observed. A failed enrichment fetch yields an unknown count, which is
// distinct from a count that is genuinely zero.
type Count struct {
	N     int  `json:"n"`
	Known bool `json:"known"`
}

// KnownCount returns an observed count.
func KnownCount(n int) Count {
	if n < 0 {
		n = 0
	}
	return Count{N: n, Known: true}
}

// UnknownCount returns a count whose fetch failed.
func UnknownCount() Count {
	return Count{}
}

// Value returns the count for arithmetic, treating unknown as zero.
func (c Count) Value() int {
	if !c.Known {
		return 0
	}
	return c.N
}

// EnrichedEvent is an Event with attendance and sales counts attached.
type EnrichedEvent struct {
	Event

	RSVPs       Count           `json:"rsvps"`
	Tickets     Count           `json:"tickets"`
	PaidTickets int             `json:"paid_tickets"`
	FreeTickets int             `json:"free_tickets"`
	Orders      Count           `json:"orders"`
	Revenue     decimal.Decimal `json:"revenue"`

	// Failed lists the enrichment sources that could not be fetched.
	Failed []string `json:"failed,omitempty"`
}

// Degraded reports whether any enrichment source failed for this event.
func (e EnrichedEvent) Degraded() bool {
	return len(e.Failed) > 0
}
