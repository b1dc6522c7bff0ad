// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

/*
Package supervisor runs the long-lived parts of the dashboard server under
a suture/v4 supervisor tree.

	listening-booth (root)
	├── data-layer       report refresh and digest scheduler
	├── messaging-layer  WebSocket hub
	└── api-layer        HTTP server

A service that returns an error or panics is restarted by its layer with
exponential backoff. A crash in the scheduler does not take down the HTTP
server, which keeps serving the last cached report.

Supervisor events are logged through sutureslog, fed by the zerolog-backed
slog handler from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewSchedulerService(sched))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
