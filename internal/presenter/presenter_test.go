// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package presenter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

func intPtr(i int) *int { return &i }

func sampleReport() *models.Report {
	start := time.Date(2026, 6, 3, 20, 0, 0, 0, time.UTC)
	gala := models.PresentedEvent{
		ID: "3", Title: "Fundraiser Gala", Date: "Wed, Jun 3, 2026", Time: "8:00 PM", Start: &start,
		Location: "Main Room", Type: models.EventTypeFundraiser, Status: models.StatusHigh, SalesStatus: models.StatusHigh,
		RSVPCount: 2, TicketsSold: 30, PaidTickets: 30, OrderCount: 12, Revenue: decimal.RequireFromString("1250.5"),
		DaysUntil: intPtr(2), URL: "https://example.com/gala",
	}
	openMic := models.PresentedEvent{
		ID: "1", Title: "Open Mic, Vol. 3", Date: "Thu, Jun 4, 2026", Time: "7:00 PM",
		Location: "Venue TBD", Type: models.EventTypeOpenMic, Status: models.StatusRecurring, SalesStatus: models.StatusLow,
		RSVPCount: 14, DaysUntil: intPtr(3), RSVPOnly: true, Recurring: true, Degraded: []string{"orders"},
	}
	quiet := models.PresentedEvent{
		ID: "4", Title: "Quiet Tuesday", Date: "Tue, Jun 2, 2026", Time: "9:00 PM",
		Location: "Back Bar", Type: models.EventTypeConcert, Status: models.StatusUrgent, SalesStatus: models.StatusUrgent,
		DaysUntil: intPtr(1),
	}
	return &models.Report{
		RunID:       "run-abc",
		GeneratedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Mode:        models.ModeUpcoming,
		Venue:       models.VenueInfo{Name: "The Listening Booth", Address: "1 High St"},
		Summary: models.Summary{
			TotalEvents:            3,
			TotalRSVPs:             16,
			TotalTicketsSold:       30,
			PaidTickets:            30,
			TotalOrders:            12,
			TotalRevenue:           decimal.RequireFromString("1250.5"),
			TicketedEvents:         2,
			AverageTicketsPerEvent: 15,
			DegradedEvents:         1,
			ByType:                 map[string]int{"Fundraiser": 1, "Open Mic": 1, "Concert": 1},
			ByVenue:                map[string]int{"Main Room": 1, "Venue TBD": 1, "Back Bar": 1},
			ByStatus:               map[string]int{"high": 1, "recurring": 1, "urgent": 1},
			ThisWeek:               []models.PresentedEvent{quiet, gala, openMic},
			UrgentEvents:           []models.PresentedEvent{quiet},
			TopSellingEvents:       []models.PresentedEvent{gala},
		},
		Events: []models.PresentedEvent{quiet, gala, openMic},
	}
}

func TestByName(t *testing.T) {
	t.Parallel()

	for _, name := range Names {
		p, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) error = %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, p.Name())
		}
	}
	if _, err := ByName("pdf"); err == nil {
		t.Error("expected error for unknown presenter")
	}
}

func TestJSONRendersReportVerbatim(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (JSON{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"run_id\": \"run-abc\"") {
		t.Errorf("output not indented or missing run_id:\n%s", buf.String())
	}

	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Summary.TotalTicketsSold != 30 || len(decoded.Events) != 3 {
		t.Errorf("decoded = %+v", decoded.Summary)
	}
	if !decoded.Summary.TotalRevenue.Equal(decimal.RequireFromString("1250.5")) {
		t.Errorf("revenue = %s", decoded.Summary.TotalRevenue)
	}
}

func TestCSVFixedHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (CSV{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Title,Date,Time,Location,Status,RSVP Count" {
		t.Errorf("header = %q", lines[0])
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4", len(records))
	}
	want := []string{"Open Mic, Vol. 3", "Thu, Jun 4, 2026", "7:00 PM", "Venue TBD", "recurring", "14"}
	for i, v := range want {
		if records[3][i] != v {
			t.Errorf("row 3 col %d = %q, want %q", i, records[3][i], v)
		}
	}
}

func TestCSVEmptyReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (CSV{}).Render(&buf, &models.Report{}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != strings.Join(CSVHeader, ",") {
		t.Errorf("got %q", buf.String())
	}
}

func TestConsoleRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&Console{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"The Listening Booth - Upcoming Events Report",
		"Tickets sold:       30 (paid 30, free 0)",
		"Revenue:            $1,250.50",
		"Avg tickets/event:  15.00 (over 2 ticketed events)",
		"URGENT (1)",
		"! Quiet Tuesday, tomorrow, no tickets sold",
		"1. Fundraiser Gala: 30 tickets",
		"[RECURRING] Open Mic, Vol. 3",
		"RSVPs:    14 (RSVP only)",
		"Unavailable: orders",
		"Link:     https://example.com/gala",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colour codes present with Color=false")
	}
}

func TestConsoleColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&Console{Color: true}).Render(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), ansiRed+"URGENT"+ansiReset) {
		t.Error("urgent status should be red")
	}
	if !strings.Contains(buf.String(), ansiGreen+"HIGH"+ansiReset) {
		t.Error("high status should be green")
	}
}

func TestHTMLStatic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&HTML{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>The Listening Booth - Upcoming Events</title>",
		`<a href="https://example.com/gala">Fundraiser Gala</a>`,
		`class="status status-urgent"`,
		"$1,250.50",
		"missing: orders",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(out, "WebSocket") || strings.Contains(out, `id="refresh"`) {
		t.Error("static html should not include live controls")
	}
}

func TestHTMLEscapesTitles(t *testing.T) {
	t.Parallel()

	rep := sampleReport()
	rep.Events[0].Title = `<script>alert("x")</script>`
	var buf bytes.Buffer
	if err := (&HTML{}).Render(&buf, rep); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `<script>alert("x")</script>`) {
		t.Error("event title was not escaped")
	}
}

func TestHTMLLiveDashboard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := &HTML{Live: true}
	if err := h.Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`id="refresh"`, "new WebSocket", "report_updated", `var refreshPath = "`, `refresh";`, "fetch(refreshPath"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestHTMLPlaceholder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&HTML{Live: true}).RenderPlaceholder(&buf); err != nil {
		t.Fatalf("RenderPlaceholder() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No report has been generated yet.") {
		t.Error("placeholder text missing")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriteErrors(t *testing.T) {
	t.Parallel()

	rep := sampleReport()
	for _, name := range Names {
		p, _ := ByName(name)
		if err := p.Render(failingWriter{}, rep); err == nil {
			t.Errorf("%s: expected write error", name)
		}
	}
}

func TestRelativeDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   *int
		want string
	}{
		{nil, "date TBD"},
		{intPtr(0), "today"},
		{intPtr(1), "tomorrow"},
		{intPtr(5), "in 5 days"},
		{intPtr(-1), "yesterday"},
		{intPtr(-4), "4 days ago"},
	}
	for _, tt := range tests {
		if got := relativeDays(tt.in); got != tt.want {
			t.Errorf("relativeDays() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"0":           "$0.00",
		"12.5":        "$12.50",
		"1234567.891": "$1,234,567.89",
		"-3":          "-$3.00",
	}
	for in, want := range tests {
		if got := formatMoney(decimal.RequireFromString(in)); got != want {
			t.Errorf("formatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestSortedCounts(t *testing.T) {
	t.Parallel()

	got := sortedCounts(map[string]int{"b": 2, "a": 2, "c": 5})
	if len(got) != 3 || got[0].Key != "c" || got[1].Key != "a" || got[2].Key != "b" {
		t.Errorf("sortedCounts() = %+v", got)
	}
}
