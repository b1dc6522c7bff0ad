// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package presenter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

// CSVHeader is the fixed first row of every CSV export.
var CSVHeader = []string{"Title", "Date", "Time", "Location", "Status", "RSVP Count"}

// CSV writes one row per event under CSVHeader.
type CSV struct{}

func (CSV) Name() string        { return "csv" }
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

func (CSV) Render(w io.Writer, rep *models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range rep.Events {
		row := []string{
			ev.Title,
			ev.Date,
			ev.Time,
			ev.Location,
			string(ev.Status),
			strconv.Itoa(ev.RSVPCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", ev.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
