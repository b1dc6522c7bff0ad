// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

// Error codes returned in APIError.Code.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeNoCachedReport   = "NO_CACHED_REPORT"
	CodePipelineFailed   = "PIPELINE_FAILED"
	CodeRefreshFailed    = "REFRESH_FAILED"
	CodeCacheError       = "CACHE_ERROR"
	CodeRenderFailed     = "RENDER_FAILED"
	CodeEmailDisabled    = "EMAIL_DISABLED"
	CodeEmailFailed      = "EMAIL_DELIVERY_FAILED"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)
