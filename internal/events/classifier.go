// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package events

import (
	"math"
	"strings"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

// DefaultTypeRules is used when the classifier config carries no rules.
var DefaultTypeRules = []config.TypeRule{
	{Type: string(models.EventTypeOpenMic), Keywords: []string{"open mic"}},
	{Type: string(models.EventTypeJamSession), Keywords: []string{"jam"}},
	{Type: string(models.EventTypeWorkshop), Keywords: []string{"lessons", "songwriting"}},
	{Type: string(models.EventTypeFundraiser), Keywords: []string{"fundraiser"}},
}

var (
	defaultRecurringKeywords = []string{"open mic", "jam", "weekly", "monthly", "every"}
	defaultRSVPOnlyKeywords  = []string{"open mic", "jam", "free", "rsvp"}
)

const (
	defaultHighThreshold   = 25
	defaultMediumThreshold = 10
	defaultUrgentDays      = 7
)

type typeRule struct {
	eventType models.EventType
	keywords  []string
}

// Classifier derives event type and status from titles and counts. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	rules     []typeRule
	recurring []string
	rsvpOnly  []string

	high       int
	medium     int
	urgentDays int
}

// NewClassifier builds a Classifier, substituting defaults for empty tables
// and non-positive thresholds.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	rules := cfg.TypeRules
	if len(rules) == 0 {
		rules = DefaultTypeRules
	}
	c := &Classifier{
		recurring:  lowerAll(cfg.RecurringKeywords, defaultRecurringKeywords),
		rsvpOnly:   lowerAll(cfg.RSVPOnlyKeywords, defaultRSVPOnlyKeywords),
		high:       positiveOr(cfg.HighThreshold, defaultHighThreshold),
		medium:     positiveOr(cfg.MediumThreshold, defaultMediumThreshold),
		urgentDays: positiveOr(cfg.UrgentDays, defaultUrgentDays),
	}
	for _, r := range rules {
		c.rules = append(c.rules, typeRule{
			eventType: models.EventType(r.Type),
			keywords:  lowerAll(r.Keywords, nil),
		})
	}
	return c
}

// ClassifyType returns the type of the first rule with a keyword contained
// in the lower-cased title, or Concert.
func (c *Classifier) ClassifyType(title string) models.EventType {
	t := strings.ToLower(title)
	for _, r := range c.rules {
		if containsAny(t, r.keywords) {
			return r.eventType
		}
	}
	return models.EventTypeConcert
}

// ClassifySalesStatus is urgent when the event is at most urgentDays away
// with nothing sold, otherwise a threshold bucket of ticketsSold.
func (c *Classifier) ClassifySalesStatus(ticketsSold, daysUntil int) models.Status {
	d := daysUntil
	return c.salesStatus(ticketsSold, &d)
}

// ClassifyPopularity buckets an RSVP count on the same thresholds. It has
// no urgent state.
func (c *Classifier) ClassifyPopularity(rsvps int) models.Status {
	switch {
	case rsvps >= c.high:
		return models.StatusHigh
	case rsvps >= c.medium:
		return models.StatusMedium
	default:
		return models.StatusLow
	}
}

// IsRecurring reports whether the title matches a recurring keyword.
func (c *Classifier) IsRecurring(title string) bool {
	return containsAny(strings.ToLower(title), c.recurring)
}

// IsRSVPOnly reports whether the event tracks no paid sales: either its
// title marks it as free or RSVP-only, or its tickets are all free.
func (c *Classifier) IsRSVPOnly(ev models.EnrichedEvent) bool {
	if containsAny(strings.ToLower(ev.Title), c.rsvpOnly) {
		return true
	}
	return ev.Tickets.Known && ev.FreeTickets > 0 && ev.PaidTickets == 0
}

// Classify derives every tag for ev relative to now.
func (c *Classifier) Classify(ev models.EnrichedEvent, now time.Time) models.Classification {
	cl := models.Classification{
		Type:      c.ClassifyType(ev.Title),
		RSVPOnly:  c.IsRSVPOnly(ev),
		Recurring: c.IsRecurring(ev.Title),
	}
	if ev.HasStart() {
		d := DaysUntil(*ev.Start, now)
		cl.DaysUntil = &d
	}

	switch {
	case cl.RSVPOnly:
		cl.SalesStatus = c.ClassifyPopularity(ev.RSVPs.Value())
	case !ev.Tickets.Known:
		// An unknown ticket count is never urgent.
		cl.SalesStatus = c.salesStatus(0, nil)
	default:
		cl.SalesStatus = c.salesStatus(ev.Tickets.Value(), cl.DaysUntil)
	}

	cl.DisplayStatus = cl.SalesStatus
	if cl.Recurring {
		cl.DisplayStatus = models.StatusRecurring
	}
	return cl
}

// salesStatus treats an event that has already started, or has no date, as
// never urgent.
func (c *Classifier) salesStatus(sold int, daysUntil *int) models.Status {
	if daysUntil != nil && *daysUntil >= 0 && *daysUntil <= c.urgentDays && sold == 0 {
		return models.StatusUrgent
	}
	switch {
	case sold >= c.high:
		return models.StatusHigh
	case sold >= c.medium:
		return models.StatusMedium
	default:
		return models.StatusLow
	}
}

// DaysUntil counts whole days from now to start, rounding future partial
// days up and past partial days down, so an event that has started is
// negative.
func DaysUntil(start, now time.Time) int {
	days := start.Sub(now).Hours() / 24
	if start.After(now) {
		return int(math.Ceil(days))
	}
	if days == 0 {
		return 0
	}
	return int(math.Floor(days))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(values, fallback []string) []string {
	if len(values) == 0 {
		values = fallback
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
