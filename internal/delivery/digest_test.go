// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package delivery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

func digestReport() *models.Report {
	start := time.Date(2026, 6, 3, 20, 0, 0, 0, time.UTC)
	quiet := models.PresentedEvent{
		ID: "4", Title: "Quiet Tuesday", Date: "Tue, Jun 2, 2026", Time: "9:00 PM", Start: &start,
		Location: "Back Bar", Type: models.EventTypeConcert, Status: models.StatusUrgent, SalesStatus: models.StatusUrgent,
	}
	return &models.Report{
		RunID:       "run-digest",
		GeneratedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		Mode:        models.ModeUpcoming,
		Venue:       models.VenueInfo{Name: "The Listening Booth"},
		Summary: models.Summary{
			TotalEvents:  1,
			ByType:       map[string]int{"Concert": 1},
			ByVenue:      map[string]int{"Back Bar": 1},
			ByStatus:     map[string]int{"urgent": 1},
			UrgentEvents: []models.PresentedEvent{quiet},
		},
		Events: []models.PresentedEvent{quiet},
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()

	rep := digestReport()
	if got := Subject("[Booth]", rep); got != "[Booth] The Listening Booth: 1 upcoming event, 1 urgent" {
		t.Errorf("Subject() = %q", got)
	}

	rep.Mode = models.ModeAll
	rep.Summary.TotalEvents = 4
	rep.Summary.UrgentEvents = nil
	rep.Venue.Name = ""
	if got := Subject("", rep); got != "Event report: 4 events" {
		t.Errorf("Subject() = %q", got)
	}
}

func TestBuildDigest(t *testing.T) {
	t.Parallel()

	msg, err := BuildDigest("", digestReport())
	if err != nil {
		t.Fatalf("BuildDigest() error = %v", err)
	}
	if !strings.Contains(msg.BodyText, "! Quiet Tuesday") {
		t.Errorf("text body missing urgent line:\n%s", msg.BodyText)
	}
	if !strings.Contains(msg.BodyHTML, "<title>The Listening Booth - Upcoming Events</title>") {
		t.Error("html body missing title")
	}
	if strings.Contains(msg.BodyHTML, "new WebSocket") {
		t.Error("digest html must be the static rendering")
	}
}

func TestSendDigestPartialFailure(t *testing.T) {
	stub := newSMTPStub(t, func(s *smtpStub) {
		s.rejected["gone@example.com"] = "550 5.1.1 mailbox unavailable"
	})

	success := metrics.EmailDeliveries.WithLabelValues(KindDigest, "success")
	failure := metrics.EmailDeliveries.WithLabelValues(KindDigest, "failure")
	beforeOK, beforeFail := testutil.ToFloat64(success), testutil.ToFloat64(failure)

	d := NewDigester(stub.config())
	err := d.SendDigest(context.Background(), digestReport(), []string{"booker@example.com", "gone@example.com"})
	if err == nil || !strings.Contains(err.Error(), "gone@example.com") {
		t.Fatalf("SendDigest() error = %v", err)
	}
	if strings.Contains(err.Error(), "booker@example.com") {
		t.Error("successful recipient reported as failed")
	}
	if n := len(stub.received()); n != 1 {
		t.Errorf("received %d messages, want 1", n)
	}
	if got := testutil.ToFloat64(success) - beforeOK; got != 1 {
		t.Errorf("success deliveries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failure) - beforeFail; got != 1 {
		t.Errorf("failed deliveries = %v, want 1", got)
	}
}

func TestSendTest(t *testing.T) {
	stub := newSMTPStub(t)
	cfg := stub.config()
	cfg.SubjectPrefix = "[Booth]"

	res := NewDigester(cfg).SendTest(context.Background(), digestReport(), "booker@example.com")
	if !res.Success {
		t.Fatalf("SendTest() = %+v", res)
	}
	got := stub.received()
	if len(got) != 1 || !strings.Contains(got[0].Data, "Subject: [Booth] [test] The Listening Booth") {
		t.Errorf("received = %+v", got)
	}
}
