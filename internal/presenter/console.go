// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package presenter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// Console renders a report as human-readable lines.
type Console struct {
	// Color enables ANSI colour for urgent and high-selling events.
	Color bool
}

func (c *Console) Name() string        { return "console" }
func (c *Console) ContentType() string { return "text/plain; charset=utf-8" }

// Render writes the report summary followed by one block per event.
func (c *Console) Render(w io.Writer, rep *models.Report) error {
	bw := bufio.NewWriter(w)
	s := rep.Summary

	title := fmt.Sprintf("%s - %s Report", venueName(rep), modeTitle(rep.Mode))
	fmt.Fprintln(bw, c.paint(ansiBold, title))
	fmt.Fprintln(bw, strings.Repeat("=", len(title)))
	fmt.Fprintf(bw, "Generated %s\n\n", rep.GeneratedAt.Format("Mon, Jan 2, 2006 3:04 PM"))

	fmt.Fprintln(bw, c.paint(ansiBold, "SUMMARY"))
	fmt.Fprintf(bw, "  Total events:       %s\n", formatCount(s.TotalEvents))
	fmt.Fprintf(bw, "  Total RSVPs:        %s\n", formatCount(s.TotalRSVPs))
	fmt.Fprintf(bw, "  Tickets sold:       %s (paid %s, free %s)\n",
		formatCount(s.TotalTicketsSold), formatCount(s.PaidTickets), formatCount(s.FreeTickets))
	fmt.Fprintf(bw, "  Orders:             %s\n", formatCount(s.TotalOrders))
	fmt.Fprintf(bw, "  Revenue:            %s\n", formatMoney(s.TotalRevenue))
	fmt.Fprintf(bw, "  Avg tickets/event:  %.2f (over %d ticketed events)\n", s.AverageTicketsPerEvent, s.TicketedEvents)
	if s.DegradedEvents > 0 {
		fmt.Fprintf(bw, "  %s\n", c.paint(ansiYellow, fmt.Sprintf("Incomplete data:    %d events", s.DegradedEvents)))
	}

	c.breakdown(bw, "BY TYPE", s.ByType)
	c.breakdown(bw, "BY VENUE", s.ByVenue)
	c.breakdown(bw, "BY STATUS", s.ByStatus)

	fmt.Fprintf(bw, "\n%s (%d)\n", c.paint(ansiBold, "THIS WEEK"), len(s.ThisWeek))
	for _, ev := range s.ThisWeek {
		fmt.Fprintf(bw, "  - %s, %s (%s)\n", ev.Title, ev.Date, relativeDays(ev.DaysUntil))
	}

	fmt.Fprintf(bw, "\n%s (%d)\n", c.paint(ansiBold, "URGENT"), len(s.UrgentEvents))
	for _, ev := range s.UrgentEvents {
		fmt.Fprintf(bw, "  %s\n", c.paint(ansiRed, fmt.Sprintf("! %s, %s, no tickets sold", ev.Title, relativeDays(ev.DaysUntil))))
	}

	fmt.Fprintf(bw, "\n%s\n", c.paint(ansiBold, "TOP SELLING"))
	if len(s.TopSellingEvents) == 0 {
		fmt.Fprintln(bw, "  none")
	}
	for i, ev := range s.TopSellingEvents {
		fmt.Fprintf(bw, "  %d. %s: %s tickets\n", i+1, ev.Title, formatCount(ev.TicketsSold))
	}

	fmt.Fprintf(bw, "\n%s\n", c.paint(ansiBold, "EVENTS"))
	if len(rep.Events) == 0 {
		fmt.Fprintln(bw, "  No events found.")
	}
	for _, ev := range rep.Events {
		c.event(bw, ev)
	}

	return bw.Flush()
}

func (c *Console) breakdown(w io.Writer, heading string, m map[string]int) {
	fmt.Fprintf(w, "\n%s\n", c.paint(ansiBold, heading))
	if len(m) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, e := range sortedCounts(m) {
		fmt.Fprintf(w, "  %-20s %s\n", e.Key+":", formatCount(e.Count))
	}
}

func (c *Console) event(w io.Writer, ev models.PresentedEvent) {
	status := strings.ToUpper(string(ev.Status))
	fmt.Fprintf(w, "\n  [%s] %s\n", c.statusColor(ev, status), ev.Title)
	fmt.Fprintf(w, "      When:     %s %s (%s)\n", ev.Date, ev.Time, relativeDays(ev.DaysUntil))
	fmt.Fprintf(w, "      Where:    %s\n", ev.Location)
	fmt.Fprintf(w, "      Type:     %s\n", ev.Type)
	if ev.RSVPOnly {
		fmt.Fprintf(w, "      RSVPs:    %s (RSVP only)\n", formatCount(ev.RSVPCount))
	} else {
		fmt.Fprintf(w, "      Tickets:  %s sold (paid %s, free %s), RSVPs %s\n",
			formatCount(ev.TicketsSold), formatCount(ev.PaidTickets), formatCount(ev.FreeTickets), formatCount(ev.RSVPCount))
	}
	if ev.OrderCount > 0 {
		fmt.Fprintf(w, "      Orders:   %s, %s\n", formatCount(ev.OrderCount), formatMoney(ev.Revenue))
	}
	if len(ev.Degraded) > 0 {
		fmt.Fprintf(w, "      %s\n", c.paint(ansiYellow, "Unavailable: "+strings.Join(ev.Degraded, ", ")))
	}
	if ev.URL != "" {
		fmt.Fprintf(w, "      Link:     %s\n", ev.URL)
	}
}

func (c *Console) statusColor(ev models.PresentedEvent, label string) string {
	switch {
	case ev.SalesStatus == models.StatusUrgent && !ev.RSVPOnly:
		return c.paint(ansiRed, label)
	case ev.SalesStatus == models.StatusHigh:
		return c.paint(ansiGreen, label)
	default:
		return label
	}
}

func (c *Console) paint(code, s string) string {
	if !c.Color {
		return s
	}
	return code + s + ansiReset
}
