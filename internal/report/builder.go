// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package report

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/events"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

const (
	// TBD is shown for a missing date, time or venue.
	TBD = "TBD"

	// VenueTBD keys events without a location in the venue breakdown.
	VenueTBD = "Venue TBD"

	dateLayout = "Mon, Jan 2, 2006"
	timeLayout = "3:04 PM"

	defaultTopN         = 5
	defaultThisWeekDays = 7
)

// Options are the static inputs of a report build.
type Options struct {
	TopN         int
	ThisWeekDays int
	Venue        models.VenueInfo

	// Location formats dates and times. Nil means time.Local.
	Location *time.Location
}

// OptionsFromConfig maps report configuration onto build options.
func OptionsFromConfig(cfg config.ReportConfig) Options {
	return Options{
		TopN:         cfg.TopN,
		ThisWeekDays: cfg.ThisWeekDays,
		Venue: models.VenueInfo{
			Name:    cfg.VenueName,
			Address: cfg.VenueAddress,
			URL:     cfg.VenueURL,
		},
		Location: cfg.Location(),
	}
}

// Builder turns enriched events into a Report. Build performs no I/O.
type Builder struct {
	classifier *events.Classifier
	opts       Options
	newID      func() string
}

// NewBuilder returns a Builder using classifier for every event.
func NewBuilder(classifier *events.Classifier, opts Options) *Builder {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.ThisWeekDays <= 0 {
		opts.ThisWeekDays = defaultThisWeekDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Builder{
		classifier: classifier,
		opts:       opts,
		newID:      func() string { return uuid.New().String() },
	}
}

type presentedWithClass struct {
	row models.PresentedEvent
	cl  models.Classification
}

// Build aggregates evs, which must already be in report order, into a new
// Report. The same input yields the same report apart from RunID.
func (b *Builder) Build(now time.Time, mode models.ReportMode, evs []models.EnrichedEvent) *models.Report {
	rows := make([]presentedWithClass, len(evs))
	for i, ev := range evs {
		cl := b.classifier.Classify(ev, now)
		rows[i] = presentedWithClass{row: b.present(ev, cl), cl: cl}
	}

	presented := make([]models.PresentedEvent, len(rows))
	for i := range rows {
		presented[i] = rows[i].row
	}

	return &models.Report{
		RunID:       b.newID(),
		GeneratedAt: now,
		Mode:        mode,
		Venue:       b.opts.Venue,
		Summary:     b.summarize(evs, rows),
		Events:      presented,
	}
}

func (b *Builder) summarize(evs []models.EnrichedEvent, rows []presentedWithClass) models.Summary {
	s := models.Summary{
		TotalEvents:      len(evs),
		TotalRevenue:     decimal.Zero,
		ByType:           make(map[string]int),
		ByVenue:          make(map[string]int),
		ByStatus:         make(map[string]int),
		ThisWeek:         []models.PresentedEvent{},
		UrgentEvents:     []models.PresentedEvent{},
		TopSellingEvents: []models.PresentedEvent{},
	}

	ticketedSold := 0
	var top []models.PresentedEvent

	for i, ev := range evs {
		row, cl := rows[i].row, rows[i].cl

		s.TotalRSVPs += ev.RSVPs.Value()
		s.TotalTicketsSold += ev.Tickets.Value()
		s.PaidTickets += ev.PaidTickets
		s.FreeTickets += ev.FreeTickets
		s.TotalOrders += ev.Orders.Value()
		s.TotalRevenue = s.TotalRevenue.Add(ev.Revenue)
		if ev.Degraded() {
			s.DegradedEvents++
		}

		s.ByType[string(cl.Type)]++
		s.ByVenue[row.Location]++
		s.ByStatus[string(cl.DisplayStatus)]++

		if cl.DaysUntil != nil && *cl.DaysUntil >= 0 && *cl.DaysUntil <= b.opts.ThisWeekDays {
			s.ThisWeek = append(s.ThisWeek, row)
		}

		if cl.RSVPOnly || !ev.Tickets.Known {
			continue
		}
		s.TicketedEvents++
		ticketedSold += ev.Tickets.Value()
		if cl.SalesStatus == models.StatusUrgent {
			s.UrgentEvents = append(s.UrgentEvents, row)
		}
		if ev.Tickets.Value() > 0 {
			top = append(top, row)
		}
	}

	s.AverageTicketsPerEvent = average(ticketedSold, s.TicketedEvents)

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].TicketsSold > top[j].TicketsSold
	})
	if len(top) > b.opts.TopN {
		top = top[:b.opts.TopN]
	}
	s.TopSellingEvents = append(s.TopSellingEvents, top...)

	return s
}

func (b *Builder) present(ev models.EnrichedEvent, cl models.Classification) models.PresentedEvent {
	row := models.PresentedEvent{
		ID:          ev.ID,
		Title:       ev.Title,
		Date:        TBD,
		Time:        TBD,
		Location:    ev.Location(),
		Type:        cl.Type,
		Status:      cl.DisplayStatus,
		SalesStatus: cl.SalesStatus,
		RSVPCount:   ev.RSVPs.Value(),
		TicketsSold: ev.Tickets.Value(),
		PaidTickets: ev.PaidTickets,
		FreeTickets: ev.FreeTickets,
		OrderCount:  ev.Orders.Value(),
		Revenue:     ev.Revenue,
		DaysUntil:   cl.DaysUntil,
		RSVPOnly:    cl.RSVPOnly,
		Recurring:   cl.Recurring,
		URL:         ev.URL,
	}
	if row.Location == "" {
		row.Location = VenueTBD
	}
	if ev.HasStart() {
		local := ev.Start.In(b.opts.Location)
		row.Start = &local
		row.Date = local.Format(dateLayout)
		row.Time = local.Format(timeLayout)
	}
	if len(ev.Failed) > 0 {
		row.Degraded = append([]string(nil), ev.Failed...)
	}
	return row
}

// average is sold/count rounded to two decimals, or 0 with no events.
func average(sold, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sold)/float64(count)*100) / 100
}
