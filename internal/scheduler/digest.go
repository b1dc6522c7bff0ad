// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
)

// DigestSender mails a report summary.
type DigestSender interface {
	SendDigest(ctx context.Context, rep *models.Report, recipients []string) error
}

// DigestJob mails the cached report (or a fresh one when the cache is
// empty) to recipients on schedule.
func DigestJob(schedule *CronSchedule, refresher *Refresher, sender DigestSender, recipients []string, timeout time.Duration) Job {
	return Job{
		Name:     "email-digest",
		Schedule: schedule,
		Timeout:  timeout,
		Run: func(ctx context.Context) error {
			if len(recipients) == 0 {
				return errors.New("digest has no recipients")
			}
			rep, err := refresher.CachedOrFresh(ctx, report.TriggerEmail)
			if err != nil {
				return err
			}
			return sender.SendDigest(ctx, rep, recipients)
		},
	}
}
