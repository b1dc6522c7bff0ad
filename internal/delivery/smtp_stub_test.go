// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package delivery

import (
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
)

type stubMessage struct {
	From string
	To   []string
	Data string
}

// smtpStub is a minimal in-process SMTP server for delivery tests.
type smtpStub struct {
	ln net.Listener

	// rejected maps a recipient to the reply sent for its RCPT command.
	rejected  map[string]string
	authReply string
	silent    bool

	mu       sync.Mutex
	messages []stubMessage
}

// newSMTPStub starts the stub. opts run before the accept loop so the
// handler sees their settings without synchronisation.
func newSMTPStub(t *testing.T, opts ...func(*smtpStub)) *smtpStub {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &smtpStub{ln: ln, rejected: map[string]string{}, authReply: "235 2.7.0 accepted"}
	for _, opt := range opts {
		opt(s)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *smtpStub) config() config.EmailConfig {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return config.EmailConfig{
		Enabled:  true,
		SMTPHost: host,
		SMTPPort: p,
		From:     "booth@example.com",
		FromName: "The Listening Booth",
	}
}

func (s *smtpStub) received() []stubMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stubMessage(nil), s.messages...)
}

func (s *smtpStub) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpStub) handle(conn net.Conn) {
	defer conn.Close()
	if s.silent {
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		return
	}

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 stub ESMTP ready")

	var msg stubMessage
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			_ = tp.PrintfLine("250-stub")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case strings.HasPrefix(upper, "AUTH"):
			_ = tp.PrintfLine("%s", s.authReply)
		case line == "*":
			_ = tp.PrintfLine("501 auth cancelled")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			msg = stubMessage{From: trimAddr(line[len("MAIL FROM:"):])}
			_ = tp.PrintfLine("250 2.1.0 ok")
		case strings.HasPrefix(upper, "RCPT TO:"):
			to := trimAddr(line[len("RCPT TO:"):])
			if reply, ok := s.rejected[to]; ok {
				_ = tp.PrintfLine("%s", reply)
				continue
			}
			msg.To = append(msg.To, to)
			_ = tp.PrintfLine("250 2.1.5 ok")
		case upper == "DATA":
			_ = tp.PrintfLine("354 end data with <CR><LF>.<CR><LF>")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			msg.Data = strings.Join(lines, "\r\n")
			s.mu.Lock()
			s.messages = append(s.messages, msg)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 queued")
		case upper == "RSET", upper == "NOOP":
			_ = tp.PrintfLine("250 2.0.0 ok")
		case upper == "QUIT":
			_ = tp.PrintfLine("221 2.0.0 bye")
			return
		default:
			_ = tp.PrintfLine("502 5.5.2 command not recognized")
		}
	}
}

func trimAddr(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "<>")
}
