// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/upstream"
)

// Enrichment source names accepted in enrichment.sources.
const (
	SourceRSVPs   = "rsvps"
	SourceTickets = "tickets"
	SourceOrders  = "orders"
)

// Contribution applies one source's result to an enriched event.
type Contribution func(ev *models.EnrichedEvent)

// Source fetches one kind of per-event secondary data.
type Source interface {
	Name() string
	Fetch(ctx context.Context, eventID string) (Contribution, error)

	// Degrade marks the source's fields unknown after a failed fetch.
	Degrade(ev *models.EnrichedEvent)
}

// NewSource builds a built-in source by name.
func NewSource(name string, client upstream.Requester) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SourceRSVPs:
		return &rsvpSource{client: client}, nil
	case SourceTickets:
		return &ticketSource{client: client}, nil
	case SourceOrders:
		return &orderSource{client: client}, nil
	default:
		return nil, fmt.Errorf("unknown enrichment source %q", name)
	}
}

// NewSources builds every named source, failing on the first unknown name.
func NewSources(names []string, client upstream.Requester) ([]Source, error) {
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		src, err := NewSource(name, client)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func fetchSubResource(ctx context.Context, client upstream.Requester, eventID, resource string, v interface{}) error {
	path := "/events/" + url.PathEscape(eventID) + "/" + resource
	res := client.Request(ctx, path, nil)
	if !res.OK {
		return fmt.Errorf("fetch %s for event %s: %w", resource, eventID, resultError(res))
	}
	if err := res.Decode(v); err != nil {
		return fmt.Errorf("fetch %s for event %s: %w", resource, eventID, err)
	}
	return nil
}

type rsvpSource struct {
	client upstream.Requester
}

func (s *rsvpSource) Name() string { return SourceRSVPs }

func (s *rsvpSource) Fetch(ctx context.Context, eventID string) (Contribution, error) {
	var body struct {
		RSVPs []json.RawMessage `json:"rsvps"`
		Total int               `json:"total"`
	}
	if err := fetchSubResource(ctx, s.client, eventID, SourceRSVPs, &body); err != nil {
		return nil, err
	}
	n := body.Total
	if n <= 0 {
		n = len(body.RSVPs)
	}
	return func(ev *models.EnrichedEvent) {
		ev.RSVPs = models.KnownCount(n)
	}, nil
}

func (s *rsvpSource) Degrade(ev *models.EnrichedEvent) {
	ev.RSVPs = models.UnknownCount()
}

type ticketRecord struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type ticketSource struct {
	client upstream.Requester
}

func (s *ticketSource) Name() string { return SourceTickets }

// Fetch counts tickets sold. A record without a quantity stands for one
// ticket. Tickets priced above zero are paid, the rest are free.
func (s *ticketSource) Fetch(ctx context.Context, eventID string) (Contribution, error) {
	var body struct {
		Tickets []ticketRecord `json:"tickets"`
		Total   int            `json:"total"`
	}
	if err := fetchSubResource(ctx, s.client, eventID, SourceTickets, &body); err != nil {
		return nil, err
	}

	var paid, free, sum int
	for _, t := range body.Tickets {
		qty := t.Quantity
		if qty <= 0 {
			qty = 1
		}
		sum += qty
		if t.Price.IsPositive() {
			paid += qty
		} else {
			free += qty
		}
	}
	sold := body.Total
	if sold <= 0 {
		sold = sum
	}
	return func(ev *models.EnrichedEvent) {
		ev.Tickets = models.KnownCount(sold)
		ev.PaidTickets = paid
		ev.FreeTickets = free
	}, nil
}

func (s *ticketSource) Degrade(ev *models.EnrichedEvent) {
	ev.Tickets = models.UnknownCount()
	ev.PaidTickets = 0
	ev.FreeTickets = 0
}

type orderRecord struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
}

// excludedOrderStatuses never contribute revenue.
var excludedOrderStatuses = map[string]bool{
	"cancelled": true,
	"canceled":  true,
	"refunded":  true,
}

type orderSource struct {
	client upstream.Requester
}

func (s *orderSource) Name() string { return SourceOrders }

func (s *orderSource) Fetch(ctx context.Context, eventID string) (Contribution, error) {
	var body struct {
		Orders []orderRecord `json:"orders"`
		Total  int           `json:"total"`
	}
	if err := fetchSubResource(ctx, s.client, eventID, SourceOrders, &body); err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	for _, o := range body.Orders {
		if excludedOrderStatuses[strings.ToLower(o.Status)] {
			continue
		}
		revenue = revenue.Add(o.TotalAmount)
	}
	n := body.Total
	if n <= 0 {
		n = len(body.Orders)
	}
	return func(ev *models.EnrichedEvent) {
		ev.Orders = models.KnownCount(n)
		ev.Revenue = revenue
	}, nil
}

func (s *orderSource) Degrade(ev *models.EnrichedEvent) {
	ev.Orders = models.UnknownCount()
	ev.Revenue = decimal.Zero
}
