// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Command server runs the live event dashboard.
//
// Components are initialized in this order:
//
//  1. Configuration (koanf: defaults, optional YAML file, environment)
//  2. Logging
//  3. Report store (memory or redis)
//  4. Pipeline and refresher
//  5. WebSocket hub
//  6. Email digester, when email is enabled
//  7. Scheduler, when scheduling is enabled
//  8. HTTP router and server
//  9. Supervisor tree
//
// SIGINT and SIGTERM cancel the root context. The supervisor then stops the
// HTTP server gracefully, finishes or cancels an in-flight scheduled run and
// closes every WebSocket client.
//
// Minimal setup:
//
//	export EVENTS_API_URL=https://api.example.com/v1
//	export EVENTS_API_TOKEN=...
//	export EVENTS_SITE_ID=...
//	./server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/marissalerer/listening-booth-dashboard/internal/api"
	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/delivery"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/middleware"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
	"github.com/marissalerer/listening-booth-dashboard/internal/scheduler"
	"github.com/marissalerer/listening-booth-dashboard/internal/store"
	"github.com/marissalerer/listening-booth-dashboard/internal/supervisor"
	"github.com/marissalerer/listening-booth-dashboard/internal/supervisor/services"
	ws "github.com/marissalerer/listening-booth-dashboard/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("version", version).
		Str("upstream", cfg.Upstream.BaseURL).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("schedule_enabled", cfg.Schedule.Enabled).
		Bool("email_enabled", cfg.Email.Enabled).
		Msg("Starting listening booth dashboard")

	reportStore, err := store.New(cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize report store")
	}
	defer func() {
		logging.Err(reportStore.Close()).Str("backend", reportStore.Backend()).Msg("Report store closed")
	}()

	pipeline, err := report.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build pipeline")
	}

	mode, _ := models.ParseReportMode(cfg.Report.Mode)
	refresher := scheduler.NewRefresher(pipeline, reportStore, mode)

	hub := ws.NewHub()
	refresher.SetNotifier(hub)

	// Interface values stay nil unless the feature is enabled.
	var (
		digestSender scheduler.DigestSender
		testMailer   api.TestMailer
	)
	if cfg.Email.Enabled {
		digester := delivery.NewDigester(cfg.Email)
		digestSender = digester
		testMailer = digester
	}

	var (
		sched *scheduler.Scheduler
		jobs  api.JobLister
	)
	if cfg.Schedule.Enabled {
		sched, err = scheduler.FromConfig(cfg, refresher, digestSender)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to configure scheduler")
		}
		jobs = sched
	}

	handler := api.NewHandler(api.Deps{
		Config:    cfg,
		Runner:    pipeline,
		Refresher: refresher,
		Store:     reportStore,
		Hub:       hub,
		Mailer:    testMailer,
		Jobs:      jobs,
		Monitor:   middleware.NewPerformanceMonitor(1000, 0),
		Version:   version,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Router(api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security))),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	if sched != nil {
		tree.AddDataService(services.NewSchedulerService(sched))
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Server stopped")
}
