// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSchedule is a parsed five-field cron expression:
// minute hour day-of-month month day-of-week.
//
// Each field is held as a bit set so matching a minute is a mask test.
type CronSchedule struct {
	expr    string
	minutes uint64
	hours   uint64
	dom     uint64
	months  uint64
	dow     uint64

	domAny bool
	dowAny bool
}

type cronField struct {
	name     string
	min, max int
}

var cronFields = [5]cronField{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 7},
}

// maxSearch bounds Next. Four years covers every valid Feb 29 expression.
const maxSearch = 4 * 366 * 24 * 60

// ParseCron parses expr. Supported field syntax is *, n, n-m, lists, */s,
// n/s and n-m/s. Day-of-week accepts 0 or 7 for Sunday.
func ParseCron(expr string) (*CronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q must have 5 fields, got %d", expr, len(fields))
	}

	var sets [5]uint64
	for i, f := range fields {
		set, err := parseCronField(f, cronFields[i].min, cronFields[i].max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field %q: %w", cronFields[i].name, f, err)
		}
		sets[i] = set
	}

	// fold Sunday=7 onto 0
	if sets[4]&(1<<7) != 0 {
		sets[4] = sets[4]&^(1<<7) | 1
	}

	return &CronSchedule{
		expr:    strings.Join(fields, " "),
		minutes: sets[0],
		hours:   sets[1],
		dom:     sets[2],
		months:  sets[3],
		dow:     sets[4],
		domAny:  fields[2] == "*",
		dowAny:  fields[4] == "*",
	}, nil
}

// MustParseCron is ParseCron for expressions known at compile time.
func MustParseCron(expr string) *CronSchedule {
	s, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *CronSchedule) String() string { return s.expr }

// Next returns the first matching minute strictly after t, evaluated in loc
// (UTC when nil). It returns the zero time when nothing matches.
func (s *CronSchedule) Next(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	c := t.In(loc).Truncate(time.Minute).Add(time.Minute)

	for i := 0; i < maxSearch; i++ {
		if s.months&(1<<uint(c.Month())) == 0 {
			c = advance(c, time.Date(c.Year(), c.Month()+1, 1, 0, 0, 0, 0, loc))
			continue
		}
		if !s.dayMatches(c) {
			c = advance(c, time.Date(c.Year(), c.Month(), c.Day()+1, 0, 0, 0, 0, loc))
			continue
		}
		if s.hours&(1<<uint(c.Hour())) == 0 {
			c = advance(c, time.Date(c.Year(), c.Month(), c.Day(), c.Hour()+1, 0, 0, 0, loc))
			continue
		}
		if s.minutes&(1<<uint(c.Minute())) == 0 {
			c = c.Add(time.Minute)
			continue
		}
		return c
	}
	return time.Time{}
}

// advance moves to next, or one minute on when a DST transition makes the
// wall-clock jump land at or before cur.
func advance(cur, next time.Time) time.Time {
	if next.After(cur) {
		return next
	}
	return cur.Add(time.Minute)
}

// dayMatches applies the usual cron rule: when both day fields are
// restricted, either may match.
func (s *CronSchedule) dayMatches(t time.Time) bool {
	domHit := s.dom&(1<<uint(t.Day())) != 0
	dowHit := s.dow&(1<<uint(t.Weekday())) != 0
	switch {
	case s.domAny && s.dowAny:
		return true
	case s.domAny:
		return dowHit
	case s.dowAny:
		return domHit
	default:
		return domHit || dowHit
	}
}

func parseCronField(field string, lo, hi int) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(field, ",") {
		p, err := parseCronPart(part, lo, hi)
		if err != nil {
			return 0, err
		}
		set |= p
	}
	if set == 0 {
		return 0, fmt.Errorf("matches no values")
	}
	return set, nil
}

func parseCronPart(part string, lo, hi int) (uint64, error) {
	if part == "" {
		return 0, fmt.Errorf("empty list element")
	}

	rangePart, stepPart, hasStep := strings.Cut(part, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepPart)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step %q", stepPart)
		}
		step = n
	}

	start, end := lo, hi
	switch {
	case rangePart == "*":
	case strings.Contains(rangePart, "-"):
		a, b, _ := strings.Cut(rangePart, "-")
		var err error
		if start, err = atoiInRange(a, lo, hi); err != nil {
			return 0, err
		}
		if end, err = atoiInRange(b, lo, hi); err != nil {
			return 0, err
		}
		if start > end {
			return 0, fmt.Errorf("range %d-%d is reversed", start, end)
		}
	default:
		n, err := atoiInRange(rangePart, lo, hi)
		if err != nil {
			return 0, err
		}
		start = n
		if !hasStep {
			end = n
		}
	}

	var set uint64
	for v := start; v <= end; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

func atoiInRange(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("value %d out of range %d-%d", n, lo, hi)
	}
	return n, nil
}
