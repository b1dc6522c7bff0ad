// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package models

// EventType is the closed set of event categories derived from titles.
type EventType string

const (
	EventTypeConcert    EventType = "Concert"
	EventTypeOpenMic    EventType = "Open Mic"
	EventTypeJamSession EventType = "Jam Session"
	EventTypeWorkshop   EventType = "Workshop"
	EventTypeFundraiser EventType = "Fundraiser"
)

// EventTypes lists every valid EventType in display order.
var EventTypes = []EventType{
	EventTypeConcert,
	EventTypeOpenMic,
	EventTypeJamSession,
	EventTypeWorkshop,
	EventTypeFundraiser,
}

// IsValid reports whether t is one of the known event types.
func (t EventType) IsValid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Status is the sales or popularity status of an event.
type Status string

const (
	StatusHigh      Status = "high"
	StatusMedium    Status = "medium"
	StatusLow       Status = "low"
	StatusUrgent    Status = "urgent"
	StatusRecurring Status = "recurring"
)

// Classification holds the derived tags for an enriched event. It is
// computed per report build and never persisted.
type Classification struct {
	Type EventType `json:"type"`

	// SalesStatus is the threshold-based status used for aggregation and urgency.
	SalesStatus Status `json:"sales_status"`

	// DisplayStatus is SalesStatus after the recurring override.
	DisplayStatus Status `json:"display_status"`

	RSVPOnly  bool `json:"rsvp_only"`
	Recurring bool `json:"recurring"`

	// DaysUntil is nil for undated events.
	DaysUntil *int `json:"days_until,omitempty"`
}
