// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

const defaultConcurrency = 5

// Enricher attaches secondary counts to events by querying each configured
// source for each event.
type Enricher struct {
	sources     []Source
	concurrency int
}

// NewEnricher returns an Enricher that keeps at most concurrency source
// fetches outstanding.
func NewEnricher(sources []Source, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Enricher{sources: sources, concurrency: concurrency}
}

// Sources returns the names of the configured sources.
func (e *Enricher) Sources() []string {
	names := make([]string, len(e.sources))
	for i, s := range e.sources {
		names[i] = s.Name()
	}
	return names
}

type fetchOutcome struct {
	apply Contribution
	err   error
}

// Enrich returns one EnrichedEvent per input event, in input order. A failed
// source fetch degrades only that source's fields on that event; it never
// stops enrichment of the others.
func (e *Enricher) Enrich(ctx context.Context, evs []models.Event) []models.EnrichedEvent {
	out := make([]models.EnrichedEvent, len(evs))
	for i := range evs {
		out[i] = models.EnrichedEvent{Event: evs[i], Revenue: decimal.Zero}
	}
	if len(evs) == 0 || len(e.sources) == 0 {
		return out
	}

	start := time.Now()

	// Each (event, source) slot is written by exactly one goroutine and
	// merged after Wait, so arrival order does not matter.
	outcomes := make([][]fetchOutcome, len(evs))
	for i := range outcomes {
		outcomes[i] = make([]fetchOutcome, len(e.sources))
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range evs {
		for j, src := range e.sources {
			g.Go(func() error {
				apply, err := src.Fetch(ctx, evs[i].ID)
				outcomes[i][j] = fetchOutcome{apply: apply, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	failures := 0
	for i := range out {
		for j, src := range e.sources {
			o := outcomes[i][j]
			if o.err != nil {
				failures++
				src.Degrade(&out[i])
				out[i].Failed = append(out[i].Failed, src.Name())
				metrics.RecordEnrichmentFailure(src.Name())
				logging.Ctx(ctx).Warn().
					Err(o.err).
					Str("event_id", out[i].ID).
					Str("source", src.Name()).
					Msg("enrichment fetch failed, count degraded to unknown")
				continue
			}
			if o.apply != nil {
				o.apply(&out[i])
			}
		}
	}

	logging.Ctx(ctx).Debug().
		Int("events", len(evs)).
		Int("sources", len(e.sources)).
		Int("failures", failures).
		Dur("duration", time.Since(start)).
		Msg("enrichment complete")

	return out
}
