// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
)

// Message is one rendered email.
type Message struct {
	Subject  string
	BodyText string
	BodyHTML string
}

// Result is the outcome of delivering a message to one recipient.
type Result struct {
	Recipient    string
	Success      bool
	DeliveredAt  *time.Time
	ErrorCode    string
	ErrorMessage string
	IsTransient  bool
}

// Mailer delivers messages over SMTP, one transaction per recipient.
type Mailer struct {
	cfg     config.EmailConfig
	timeout time.Duration
	now     func() time.Time
}

// NewMailer creates a mailer for cfg. The connection timeout defaults to 30s.
func NewMailer(cfg config.EmailConfig) *Mailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Mailer{cfg: cfg, timeout: timeout, now: time.Now}
}

// Send delivers msg to a single recipient. Delivery failures are reported
// in the Result rather than as an error.
func (m *Mailer) Send(ctx context.Context, to string, msg *Message) *Result {
	res := &Result{Recipient: to}

	addr, err := mail.ParseAddress(to)
	if err != nil {
		res.ErrorCode = ErrorCodeInvalidRecipient
		res.ErrorMessage = fmt.Sprintf("invalid recipient %q: %v", to, err)
		return res
	}
	if err := m.validate(); err != nil {
		res.ErrorCode = ErrorCodeInvalidConfig
		res.ErrorMessage = err.Error()
		return res
	}

	body, err := m.buildMessage(addr.Address, msg)
	if err != nil {
		res.ErrorCode = ErrorCodeRenderFailed
		res.ErrorMessage = err.Error()
		return res
	}

	if err := m.sendSMTP(ctx, addr.Address, body); err != nil {
		res.ErrorCode = ClassifyError(err)
		res.ErrorMessage = err.Error()
		res.IsTransient = IsTransient(res.ErrorCode)
		return res
	}

	now := m.now()
	res.Success = true
	res.DeliveredAt = &now
	return res
}

func (m *Mailer) validate() error {
	if m.cfg.SMTPHost == "" {
		return errors.New("smtp host is not configured")
	}
	if m.cfg.SMTPPort < 1 || m.cfg.SMTPPort > 65535 {
		return fmt.Errorf("smtp port %d is out of range", m.cfg.SMTPPort)
	}
	if _, err := mail.ParseAddress(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	return nil
}

// buildMessage renders headers and a multipart/alternative body with
// quoted-printable text and HTML parts.
func (m *Mailer) buildMessage(to string, msg *Message) ([]byte, error) {
	var buf bytes.Buffer

	fromName := m.cfg.FromName
	if fromName == "" {
		fromName = "Listening Booth"
	}
	from := mail.Address{Name: fromName, Address: m.cfg.From}

	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", from.String())
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", m.now().Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+m.cfg.SMTPHost+">")
	header("MIME-Version", "1.0")

	mw := multipart.NewWriter(&buf)
	header("Content-Type", mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": mw.Boundary()}))
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.BodyText},
		{"text/html; charset=UTF-8", msg.BodyHTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("encode mime part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("encode mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime body: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *Mailer) sendSMTP(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &StageError{Stage: stageConnect, Err: err}
	}
	defer func() { _ = conn.Close() }()

	// bound the whole exchange, not just the dial
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.cfg.SMTPHost)
	if err != nil {
		return &StageError{Stage: stageConnect, Err: err}
	}
	defer func() { _ = client.Close() }()

	if m.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.SMTPHost,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return &StageError{Stage: stageTLS, Err: err}
		}
	}

	if m.cfg.SMTPUser != "" && m.cfg.SMTPPassword != "" {
		auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return &StageError{Stage: stageAuth, Err: err}
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return &StageError{Stage: stageMail, Err: err}
	}
	if err := client.Rcpt(to); err != nil {
		return &StageError{Stage: stageRcpt, Err: err}
	}

	w, err := client.Data()
	if err != nil {
		return &StageError{Stage: stageData, Err: err}
	}
	if _, err := w.Write(body); err != nil {
		return &StageError{Stage: stageData, Err: err}
	}
	if err := w.Close(); err != nil {
		return &StageError{Stage: stageData, Err: err}
	}

	// the message is accepted once DATA closes; a failed QUIT is ignored
	_ = client.Quit()
	return nil
}
