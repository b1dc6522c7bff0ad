// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package presenter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").Funcs(templateFuncs()).ParseFS(templateFS, "templates/report.html.tmpl"),
)

// HTML renders a self-contained HTML document. In Live mode the page gains
// a refresh button and a WebSocket listener and becomes the dashboard.
type HTML struct {
	Live bool

	// RefreshPath and SocketPath default to /api/refresh and /ws.
	RefreshPath string
	SocketPath  string
}

func (h *HTML) Name() string {
	if h.Live {
		return "dashboard"
	}
	return "html"
}

func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

type htmlData struct {
	Title       string
	Report      *models.Report
	Live        bool
	RefreshPath string
	SocketPath  string
	Generated   string
}

// Render executes the template into a buffer first so a template error
// never leaves a half-written page.
func (h *HTML) Render(w io.Writer, rep *models.Report) error {
	data := h.data(rep)
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}
	return nil
}

// RenderPlaceholder renders the dashboard shell shown before any report is
// cached.
func (h *HTML) RenderPlaceholder(w io.Writer) error {
	return h.Render(w, nil)
}

func (h *HTML) data(rep *models.Report) htmlData {
	d := htmlData{
		Title:       "Event Report",
		Report:      rep,
		Live:        h.Live,
		RefreshPath: h.RefreshPath,
		SocketPath:  h.SocketPath,
	}
	if d.RefreshPath == "" {
		d.RefreshPath = "/api/refresh"
	}
	if d.SocketPath == "" {
		d.SocketPath = "/ws"
	}
	if rep != nil {
		d.Title = fmt.Sprintf("%s - %s", venueName(rep), modeTitle(rep.Mode))
		d.Generated = rep.GeneratedAt.Format("Mon, Jan 2, 2006 3:04 PM MST")
	}
	return d
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"comma":        formatCount,
		"money":        formatMoney,
		"relativeDays": relativeDays,
		"sortedCounts": sortedCounts,
		"statusClass": func(s interface{}) string {
			return "status-" + fmt.Sprint(s)
		},
		"avg": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"year": func() int {
			return time.Now().Year()
		},
	}
}
