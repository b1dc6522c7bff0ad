// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package events

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/upstream"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 1000
)

// startLayouts are tried in order. Layouts without a zone are read in the
// fetcher's location.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexID accepts both string and numeric identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(string(b))
	return nil
}

type venueRecord struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type eventRecord struct {
	ID          flexID       `json:"id"`
	Title       string       `json:"title"`
	Name        string       `json:"name"`
	Start       string       `json:"start"`
	StartDate   string       `json:"start_date"`
	Venue       *venueRecord `json:"venue"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Slug        string       `json:"slug"`
	URL         string       `json:"url"`
}

type eventListResponse struct {
	Events []eventRecord `json:"events"`
	Total  int           `json:"total"`
}

// Fetcher pages through the upstream events collection.
type Fetcher struct {
	client   upstream.Requester
	pageSize int
	maxPages int
	loc      *time.Location
}

// NewFetcher returns a Fetcher. Zoneless start timestamps are interpreted in
// loc (time.Local when nil).
func NewFetcher(client upstream.Requester, cfg config.UpstreamConfig, loc *time.Location) *Fetcher {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if loc == nil {
		loc = time.Local
	}
	return &Fetcher{client: client, pageSize: pageSize, maxPages: maxPages, loc: loc}
}

// FetchAll returns every event in upstream order. Paging stops on a short
// batch, on reaching a declared total, on an empty batch or after maxPages.
// Any failed page aborts the fetch.
func (f *Fetcher) FetchAll(ctx context.Context) ([]models.Event, error) {
	var all []models.Event
	offset := 0

	for page := 0; page < f.maxPages; page++ {
		query := url.Values{
			"limit":  {strconv.Itoa(f.pageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		res := f.client.Request(ctx, "/events", query)
		if !res.OK {
			return nil, fmt.Errorf("list events at offset %d: %w", offset, resultError(res))
		}

		var batch eventListResponse
		if err := res.Decode(&batch); err != nil {
			return nil, fmt.Errorf("list events at offset %d: %w", offset, err)
		}
		for i := range batch.Events {
			all = append(all, f.toEvent(batch.Events[i]))
		}

		logging.Ctx(ctx).Debug().
			Int("offset", offset).
			Int("batch_size", len(batch.Events)).
			Int("fetched", len(all)).
			Int("total", batch.Total).
			Msg("fetched events page")

		if len(batch.Events) == 0 || len(batch.Events) < f.pageSize {
			return all, nil
		}
		if batch.Total > 0 && len(all) >= batch.Total {
			return all, nil
		}
		offset += len(batch.Events)
	}

	logging.Ctx(ctx).Warn().Int("max_pages", f.maxPages).Int("fetched", len(all)).Msg("event paging stopped at page limit")
	return all, nil
}

// Upcoming returns events starting after now, soonest first.
func (f *Fetcher) Upcoming(ctx context.Context, now time.Time) ([]models.Event, error) {
	all, err := f.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	upcoming, _, _ := Partition(now, all)
	return upcoming, nil
}

// Past returns events that started at or before now, most recent first.
func (f *Fetcher) Past(ctx context.Context, now time.Time) ([]models.Event, error) {
	all, err := f.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	_, past, _ := Partition(now, all)
	return past, nil
}

// Partition splits events into upcoming (now < start, ascending), past
// (now >= start, descending) and undated, which keeps input order. Every
// input event lands in exactly one of the three.
func Partition(now time.Time, evs []models.Event) (upcoming, past, undated []models.Event) {
	for _, ev := range evs {
		switch {
		case !ev.HasStart():
			undated = append(undated, ev)
		case now.Before(*ev.Start):
			upcoming = append(upcoming, ev)
		default:
			past = append(past, ev)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(*upcoming[j].Start)
	})
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].Start.After(*past[j].Start)
	})
	return upcoming, past, undated
}

// Select returns the events a report of the given mode covers, in report
// order. ModeAll is ascending by start with undated events last.
func Select(now time.Time, mode models.ReportMode, evs []models.Event) []models.Event {
	upcoming, past, undated := Partition(now, evs)
	switch mode {
	case models.ModePast:
		return past
	case models.ModeAll:
		out := make([]models.Event, 0, len(evs))
		for i := len(past) - 1; i >= 0; i-- {
			out = append(out, past[i])
		}
		out = append(out, upcoming...)
		return append(out, undated...)
	default:
		return upcoming
	}
}

func (f *Fetcher) toEvent(r eventRecord) models.Event {
	ev := models.Event{
		ID:          string(r.ID),
		Title:       firstNonEmpty(r.Title, r.Name),
		Description: r.Description,
		Slug:        r.Slug,
		URL:         r.URL,
	}
	if r.Venue != nil {
		ev.Venue = r.Venue.Name
		ev.Address = r.Venue.Address
	}
	if ev.Venue == "" && ev.Address == "" {
		ev.Venue = r.Location
	}
	if t, ok := parseStart(firstNonEmpty(r.Start, r.StartDate), f.loc); ok {
		ev.Start = &t
	}
	return ev
}

// parseStart tries each of startLayouts. An empty or unparsable value
// yields ok=false.
func parseStart(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func resultError(res *upstream.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return fmt.Errorf("upstream HTTP %d", res.StatusCode)
}
