// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package delivery

import (
	"context"
	"errors"
	"net"
	"net/textproto"
)

// Error codes reported in Result.ErrorCode.
const (
	ErrorCodeInvalidRecipient  = "invalid_recipient"
	ErrorCodeInvalidConfig     = "invalid_config"
	ErrorCodeConnectionFailed  = "connection_failed"
	ErrorCodeTimeout           = "timeout"
	ErrorCodeAuthFailed        = "auth_failed"
	ErrorCodeRecipientRejected = "recipient_rejected"
	ErrorCodeServerBusy        = "server_busy"
	ErrorCodeRejected          = "rejected"
	ErrorCodeRenderFailed      = "render_failed"
	ErrorCodeUnknown           = "unknown"
)

// smtpStage tags which step of the SMTP exchange failed.
type smtpStage string

const (
	stageConnect smtpStage = "connect"
	stageTLS     smtpStage = "starttls"
	stageAuth    smtpStage = "auth"
	stageMail    smtpStage = "mail"
	stageRcpt    smtpStage = "rcpt"
	stageData    smtpStage = "data"
)

// StageError wraps the error of one SMTP step.
type StageError struct {
	Stage smtpStage
	Err   error
}

func (e *StageError) Error() string {
	return "smtp " + string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// ClassifyError maps a send error onto an error code.
//
// SMTP replies are classified by their code: 4xx is a temporary condition
// on the server, 5xx a permanent refusal. Which step failed separates a bad
// recipient from an auth problem.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCodeTimeout
	}

	var stage *StageError
	hasStage := errors.As(err, &stage)

	var reply *textproto.Error
	if errors.As(err, &reply) {
		switch {
		case reply.Code >= 400 && reply.Code < 500:
			return ErrorCodeServerBusy
		case hasStage && stage.Stage == stageAuth:
			return ErrorCodeAuthFailed
		case hasStage && stage.Stage == stageRcpt:
			return ErrorCodeRecipientRejected
		default:
			return ErrorCodeRejected
		}
	}

	if hasStage {
		switch stage.Stage {
		case stageConnect:
			return ErrorCodeConnectionFailed
		case stageAuth:
			return ErrorCodeAuthFailed
		}
	}
	return ErrorCodeUnknown
}

// IsTransient reports whether a failure with code may succeed on retry.
func IsTransient(code string) bool {
	switch code {
	case ErrorCodeConnectionFailed, ErrorCodeTimeout, ErrorCodeServerBusy:
		return true
	default:
		return false
	}
}
