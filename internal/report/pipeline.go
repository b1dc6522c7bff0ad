// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/events"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/upstream"
)

// Trigger labels what started a pipeline run.
type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerSchedule Trigger = "schedule"
	TriggerRefresh  Trigger = "refresh"
	TriggerAPI      Trigger = "api"
	TriggerEmail    Trigger = "email"
)

// EventLister returns the full upstream event collection.
type EventLister interface {
	FetchAll(ctx context.Context) ([]models.Event, error)
}

// Pipeline runs fetch, select, enrich and build for one report.
type Pipeline struct {
	lister   EventLister
	enricher *events.Enricher
	builder  *Builder
	breaker  *upstream.CircuitBreakerClient
	now      func() time.Time
}

// NewPipeline assembles a pipeline from its stages.
func NewPipeline(lister EventLister, enricher *events.Enricher, builder *Builder) *Pipeline {
	return &Pipeline{
		lister:   lister,
		enricher: enricher,
		builder:  builder,
		now:      time.Now,
	}
}

// New wires the upstream client, optional circuit breaker, fetcher,
// enrichment sources, classifier and builder from cfg.
func New(cfg *config.Config) (*Pipeline, error) {
	var client upstream.Requester = upstream.NewClient(&cfg.Upstream)
	var breaker *upstream.CircuitBreakerClient
	if cfg.Upstream.CircuitBreaker.Enabled {
		breaker = upstream.NewCircuitBreakerClient(client, cfg.Upstream.CircuitBreaker)
		client = breaker
	}

	sources, err := events.NewSources(cfg.Enrichment.Sources, client)
	if err != nil {
		return nil, fmt.Errorf("enrichment sources: %w", err)
	}

	enricher := events.NewEnricher(sources, cfg.Enrichment.Concurrency)
	logging.Debug().
		Strs("sources", enricher.Sources()).
		Bool("circuit_breaker", breaker != nil).
		Msg("Pipeline configured")

	loc := cfg.Report.Location()
	p := NewPipeline(
		events.NewFetcher(client, cfg.Upstream, loc),
		enricher,
		NewBuilder(events.NewClassifier(cfg.Classifier), OptionsFromConfig(cfg.Report)),
	)
	p.breaker = breaker
	return p, nil
}

// BreakerState returns the circuit breaker state, or "" when disabled.
func (p *Pipeline) BreakerState() string {
	if p.breaker == nil {
		return ""
	}
	return p.breaker.State()
}

// Run produces a fresh report. A failure listing events aborts the run and
// returns no report; enrichment failures only degrade counts.
func (p *Pipeline) Run(ctx context.Context, mode models.ReportMode, trigger Trigger) (*models.Report, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	start := time.Now()

	rep, err := p.run(ctx, mode)
	metrics.RecordPipelineRun(string(trigger), time.Since(start), err)
	if err != nil {
		log.Error().Err(err).Str("trigger", string(trigger)).Str("mode", string(mode)).Msg("report pipeline failed")
		return nil, err
	}

	log.Info().
		Str("trigger", string(trigger)).
		Str("mode", string(mode)).
		Str("run_id", rep.RunID).
		Int("events", rep.Summary.TotalEvents).
		Int("degraded", rep.Summary.DegradedEvents).
		Dur("duration", time.Since(start)).
		Msg("report built")
	return rep, nil
}

func (p *Pipeline) run(ctx context.Context, mode models.ReportMode) (*models.Report, error) {
	all, err := p.lister.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: fetch events: %w", err)
	}

	now := p.now()
	selected := events.Select(now, mode, all)
	enriched := p.enricher.Enrich(ctx, selected)
	return p.builder.Build(now, mode, enriched), nil
}
