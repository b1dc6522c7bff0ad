// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

/*
Package api serves the dashboard and the report HTTP API on a chi router.

Endpoints:

	GET  /                    live dashboard, or a placeholder before the first refresh
	GET  /ws                  WebSocket stream of report_updated messages
	GET  /metrics             Prometheus exposition
	GET  /api/health          liveness and cache state, never calls upstream
	GET  /api/stats           per-route latency from the performance monitor
	GET  /api/events          fresh pipeline run (?mode=upcoming|past|all), cache untouched
	GET  /api/events/cached   cached report (?format=json|csv|html)
	POST /api/refresh         re-run, replace the cache and notify dashboards
	POST /api/email/test      send the digest to one recipient

JSON responses use the models.APIResponse envelope. Errors carry a stable
machine-readable code:

	{"status":"error","data":null,"metadata":{...},"error":{"code":"NO_CACHED_REPORT","message":"..."}}

Middleware order on the root router is request ID, real IP, panic
recovery, CORS, Prometheus, performance monitor, security headers. The
/api group is additionally rate limited per client IP.
*/
package api
