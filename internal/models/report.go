// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportMode selects which slice of the event collection a report covers.
type ReportMode string

const (
	ModeUpcoming ReportMode = "upcoming"
	ModePast     ReportMode = "past"
	ModeAll      ReportMode = "all"
)

// ParseReportMode converts a user-supplied mode, defaulting to upcoming.
func ParseReportMode(s string) (ReportMode, bool) {
	switch ReportMode(s) {
	case "", ModeUpcoming:
		return ModeUpcoming, true
	case ModePast:
		return ModePast, true
	case ModeAll:
		return ModeAll, true
	default:
		return "", false
	}
}

// VenueInfo is static venue metadata copied into every report.
type VenueInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	URL     string `json:"url,omitempty"`
}

// PresentedEvent is one presenter-ready row of a report.
type PresentedEvent struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Start       *time.Time      `json:"start,omitempty"`
	Location    string          `json:"location"`
	Type        EventType       `json:"type"`
	Status      Status          `json:"status"`
	SalesStatus Status          `json:"sales_status"`
	RSVPCount   int             `json:"rsvp_count"`
	TicketsSold int             `json:"tickets_sold"`
	PaidTickets int             `json:"paid_tickets"`
	FreeTickets int             `json:"free_tickets"`
	OrderCount  int             `json:"order_count"`
	Revenue     decimal.Decimal `json:"revenue"`
	DaysUntil   *int            `json:"days_until,omitempty"`
	RSVPOnly    bool            `json:"rsvp_only"`
	Recurring   bool            `json:"recurring"`
	URL         string          `json:"url,omitempty"`

	// Degraded names enrichment sources whose counts are unknown and
	// reported as zero.
	Degraded []string `json:"degraded,omitempty"`
}

// Summary is the aggregate block of a report.
type Summary struct {
	TotalEvents            int             `json:"total_events"`
	TotalRSVPs             int             `json:"total_rsvps"`
	TotalTicketsSold       int             `json:"total_tickets_sold"`
	PaidTickets            int             `json:"paid_tickets"`
	FreeTickets            int             `json:"free_tickets"`
	TotalOrders            int             `json:"total_orders"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TicketedEvents         int             `json:"ticketed_events"`
	AverageTicketsPerEvent float64         `json:"average_tickets_per_event"`
	DegradedEvents         int             `json:"degraded_events"`

	ByType   map[string]int `json:"by_type"`
	ByVenue  map[string]int `json:"by_venue"`
	ByStatus map[string]int `json:"by_status"`

	ThisWeek         []PresentedEvent `json:"this_week"`
	UrgentEvents     []PresentedEvent `json:"urgent_events"`
	TopSellingEvents []PresentedEvent `json:"top_selling_events"`
}

// Report is the immutable snapshot produced by one pipeline run.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Mode        ReportMode       `json:"mode"`
	Venue       VenueInfo        `json:"venue"`
	Summary     Summary          `json:"summary"`
	Events      []PresentedEvent `json:"events"`
}
