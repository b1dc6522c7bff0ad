// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package presenter renders a Report as console text, JSON, CSV or HTML.
package presenter

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

// Presenter turns one report into one output artifact.
type Presenter interface {
	Name() string
	ContentType() string
	Render(w io.Writer, rep *models.Report) error
}

// Names lists the registered presenters.
var Names = []string{"console", "json", "csv", "html", "dashboard"}

// ByName returns the presenter registered under name. "dashboard" is the
// live HTML page.
func ByName(name string) (Presenter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "console", "text":
		return &Console{}, nil
	case "json":
		return JSON{}, nil
	case "csv":
		return CSV{}, nil
	case "html":
		return &HTML{}, nil
	case "dashboard":
		return &HTML{Live: true}, nil
	default:
		return nil, fmt.Errorf("unknown presenter %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}

type countEntry struct {
	Key   string
	Count int
}

// sortedCounts orders a breakdown map by count descending, then key.
func sortedCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// relativeDays renders a days-until value as a phrase.
func relativeDays(days *int) string {
	if days == nil {
		return "date TBD"
	}
	d := *days
	switch {
	case d == 0:
		return "today"
	case d == 1:
		return "tomorrow"
	case d == -1:
		return "yesterday"
	case d > 1:
		return fmt.Sprintf("in %d days", d)
	default:
		return fmt.Sprintf("%d days ago", -d)
	}
}

func formatMoney(d decimal.Decimal) string {
	f := d.Round(2).InexactFloat64()
	sign := ""
	if f < 0 {
		sign = "-"
		f = math.Abs(f)
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", f)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func modeTitle(mode models.ReportMode) string {
	switch mode {
	case models.ModePast:
		return "Past Events"
	case models.ModeAll:
		return "All Events"
	default:
		return "Upcoming Events"
	}
}

func venueName(rep *models.Report) string {
	if rep.Venue.Name != "" {
		return rep.Venue.Name
	}
	return "Event"
}
