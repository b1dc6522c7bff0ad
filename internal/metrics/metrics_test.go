// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordPipelineRun(t *testing.T) {
	beforeOK := testutil.ToFloat64(PipelineRuns.WithLabelValues("schedule", "success"))
	beforeErr := testutil.ToFloat64(PipelineRuns.WithLabelValues("schedule", "error"))

	RecordPipelineRun("schedule", 2*time.Second, nil)
	RecordPipelineRun("schedule", time.Second, errors.New("fetch events: boom"))

	if got := testutil.ToFloat64(PipelineRuns.WithLabelValues("schedule", "success")); got != beforeOK+1 {
		t.Errorf("success runs = %v, want %v", got, beforeOK+1)
	}
	if got := testutil.ToFloat64(PipelineRuns.WithLabelValues("schedule", "error")); got != beforeErr+1 {
		t.Errorf("error runs = %v, want %v", got, beforeErr+1)
	}

	var m dto.Metric
	if err := PipelineDuration.Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if m.GetHistogram().GetSampleCount() < 2 {
		t.Errorf("histogram sample count = %d, want >= 2", m.GetHistogram().GetSampleCount())
	}
}

func TestRecordReportCached(t *testing.T) {
	at := time.Unix(1_800_000_000, 0)
	RecordReportCached(17, at)

	if got := testutil.ToFloat64(ReportEvents); got != 17 {
		t.Errorf("ReportEvents = %v, want 17", got)
	}
	if got := testutil.ToFloat64(ReportLastSuccess); got != float64(at.Unix()) {
		t.Errorf("ReportLastSuccess = %v, want %v", got, at.Unix())
	}
}

func TestRecordUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequests.WithLabelValues("events", "rate_limited"))
	RecordUpstreamRequest("events", "rate_limited", 10*time.Millisecond)
	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("events", "rate_limited")); got != before+1 {
		t.Errorf("UpstreamRequests = %v, want %v", got, before+1)
	}
}

func TestRecordEnrichmentFailure(t *testing.T) {
	before := testutil.ToFloat64(EnrichmentFailures.WithLabelValues("rsvps"))
	RecordEnrichmentFailure("rsvps")
	RecordEnrichmentFailure("rsvps")
	if got := testutil.ToFloat64(EnrichmentFailures.WithLabelValues("rsvps")); got != before+2 {
		t.Errorf("EnrichmentFailures = %v, want %v", got, before+2)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordEmailDelivery(t *testing.T) {
	before := testutil.ToFloat64(EmailDeliveries.WithLabelValues("test", "failure"))
	RecordEmailDelivery("test", "failure")
	if got := testutil.ToFloat64(EmailDeliveries.WithLabelValues("test", "failure")); got != before+1 {
		t.Errorf("EmailDeliveries = %v, want %v", got, before+1)
	}
}
