// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package scheduler

import (
	"fmt"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
)

// FromConfig registers the refresh job, and the digest job when email
// digests are enabled. sender may be nil when email is disabled.
func FromConfig(cfg *config.Config, refresher *Refresher, sender DigestSender) (*Scheduler, error) {
	s := New(Config{
		CheckInterval: cfg.Schedule.CheckInterval,
		Location:      cfg.Schedule.Location(),
	})

	refresh, err := ParseCron(cfg.Schedule.RefreshCron)
	if err != nil {
		return nil, fmt.Errorf("refresh schedule: %w", err)
	}
	if err := s.Add(refresher.Job(refresh, cfg.Schedule.RunOnStart, cfg.Schedule.PipelineTimeout)); err != nil {
		return nil, err
	}

	if cfg.Email.Enabled && cfg.Email.DigestEnabled && sender != nil {
		digest, err := ParseCron(cfg.Email.DigestCron)
		if err != nil {
			return nil, fmt.Errorf("digest schedule: %w", err)
		}
		if err := s.Add(DigestJob(digest, refresher, sender, cfg.Email.Recipients, cfg.Schedule.PipelineTimeout)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
