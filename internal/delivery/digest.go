// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/presenter"
)

// Delivery kinds used as the metrics label.
const (
	KindDigest = "digest"
	KindTest   = "test"
)

// Digester renders reports into digest emails and mails them.
type Digester struct {
	mailer *Mailer
	prefix string
}

func NewDigester(cfg config.EmailConfig) *Digester {
	return &Digester{mailer: NewMailer(cfg), prefix: cfg.SubjectPrefix}
}

// Subject summarizes the report in one line, e.g.
// "[Booth] The Listening Booth: 12 upcoming events, 2 urgent".
func Subject(prefix string, rep *models.Report) string {
	venue := rep.Venue.Name
	if venue == "" {
		venue = "Event report"
	}
	noun := "events"
	if rep.Summary.TotalEvents == 1 {
		noun = "event"
	}
	if rep.Mode == models.ModeUpcoming || rep.Mode == models.ModePast {
		noun = string(rep.Mode) + " " + noun
	}
	s := fmt.Sprintf("%s: %d %s", venue, rep.Summary.TotalEvents, noun)
	if n := len(rep.Summary.UrgentEvents); n > 0 {
		s += fmt.Sprintf(", %d urgent", n)
	}
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		s = prefix + " " + s
	}
	return s
}

// BuildDigest renders rep as a console-style text part and a static HTML part.
func BuildDigest(prefix string, rep *models.Report) (*Message, error) {
	var text, html strings.Builder
	if err := (&presenter.Console{}).Render(&text, rep); err != nil {
		return nil, fmt.Errorf("render digest text: %w", err)
	}
	if err := (&presenter.HTML{}).Render(&html, rep); err != nil {
		return nil, fmt.Errorf("render digest html: %w", err)
	}
	return &Message{
		Subject:  Subject(prefix, rep),
		BodyText: text.String(),
		BodyHTML: html.String(),
	}, nil
}

// SendDigest mails rep to every recipient. Each recipient gets its own
// transaction; the returned error joins every failure.
func (d *Digester) SendDigest(ctx context.Context, rep *models.Report, recipients []string) error {
	msg, err := BuildDigest(d.prefix, rep)
	if err != nil {
		return err
	}

	var errs []error
	for _, to := range recipients {
		res := d.mailer.Send(ctx, to, msg)
		record(ctx, KindDigest, rep, res)
		if !res.Success {
			errs = append(errs, fmt.Errorf("deliver digest to %s: %s", to, res.ErrorMessage))
		}
	}
	return errors.Join(errs...)
}

// SendTest mails rep to a single recipient and reports the outcome.
func (d *Digester) SendTest(ctx context.Context, rep *models.Report, recipient string) *Result {
	msg, err := BuildDigest(d.prefix+" [test]", rep)
	if err != nil {
		return &Result{Recipient: recipient, ErrorCode: ErrorCodeRenderFailed, ErrorMessage: err.Error()}
	}
	res := d.mailer.Send(ctx, recipient, msg)
	record(ctx, KindTest, rep, res)
	return res
}

func record(ctx context.Context, kind string, rep *models.Report, res *Result) {
	log := logging.Ctx(ctx)
	switch {
	case res.Success:
		metrics.RecordEmailDelivery(kind, "success")
		log.Info().Str("kind", kind).Str("recipient", res.Recipient).Str("run_id", rep.RunID).Msg("Email delivered")
	case res.IsTransient:
		metrics.RecordEmailDelivery(kind, "transient_failure")
		log.Warn().Str("kind", kind).Str("recipient", res.Recipient).Str("error_code", res.ErrorCode).
			Str("error", res.ErrorMessage).Msg("Email delivery failed, may succeed on retry")
	default:
		metrics.RecordEmailDelivery(kind, "failure")
		log.Error().Str("kind", kind).Str("recipient", res.Recipient).Str("error_code", res.ErrorCode).
			Str("error", res.ErrorMessage).Msg("Email delivery failed")
	}
}
