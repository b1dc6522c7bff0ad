// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package api

import (
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
)

const maxEmailTestBody = 4 << 10

// EmailTest mails the digest to one recipient. It uses the cached report
// unless the body sets "fresh", or nothing has been cached yet.
func (h *Handler) EmailTest(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeEmailDisabled, "Email delivery is not configured", nil)
		return
	}

	var req models.EmailTestRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEmailTestBody))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Failed to read request body", err)
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	var rep *models.Report
	if req.Fresh {
		rep, err = h.refresher.Refresh(r.Context(), report.TriggerEmail)
	} else {
		rep, err = h.refresher.CachedOrFresh(r.Context(), report.TriggerEmail)
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodePipelineFailed, "Failed to build report for email", err)
		return
	}

	res := h.mailer.SendTest(r.Context(), rep, req.Recipient)
	result := models.EmailTestResult{
		Recipient:   res.Recipient,
		Success:     res.Success,
		DeliveredAt: res.DeliveredAt,
		ErrorCode:   res.ErrorCode,
		Error:       res.ErrorMessage,
		RunID:       rep.RunID,
	}
	meta := models.Metadata{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: time.Since(start).Milliseconds(),
		GeneratedAt: generatedAt(rep),
	}

	if !res.Success {
		respondJSON(w, http.StatusBadGateway, &models.APIResponse{
			Status:   "error",
			Data:     result,
			Metadata: meta,
			Error: &models.APIError{
				Code:    CodeEmailFailed,
				Message: "Email delivery failed",
				Details: map[string]interface{}{"reason": res.ErrorCode, "transient": res.IsTransient},
			},
		})
		return
	}
	respondSuccess(w, result, meta)
}
