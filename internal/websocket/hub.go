// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/metrics"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types
const (
	MessageTypeReportUpdated = "report_updated"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message is the envelope of every frame sent to a dashboard.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ReportUpdatedData is the payload of report_updated.
type ReportUpdatedData struct {
	RunID        string            `json:"run_id"`
	GeneratedAt  string            `json:"generated_at"`
	Mode         models.ReportMode `json:"mode"`
	TotalEvents  int               `json:"total_events"`
	UrgentEvents int               `json:"urgent_events"`
}

// Hub tracks connected clients and broadcasts messages to them.
type Hub struct {
	clients   map[*Client]struct{}
	broadcast chan Message
	mu        sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, 256),
	}
}

// Register adds a client. Safe to call whether or not the hub is running.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("websocket client connected")
}

// Unregister removes a client and closes its send queue. Unregistering a
// client twice is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WebSocketClients.Set(float64(n))
		logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("websocket client disconnected")
	}
}

// RunWithContext fans out queued broadcasts until ctx is done, then closes
// every client. It may be called again after returning, which lets a
// supervisor restart it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// shutdown takes priority over pending broadcasts
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	n := h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", n).
		Msg("websocket hub stopped")
}

// broadcastToClients delivers msg in client ID order. Clients whose queue
// is full are dropped.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedClients() {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			logging.Warn().Uint64("client_id", c.id).Msg("websocket client too slow, dropped")
		}
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClients()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WebSocketClients.Set(0)
	return len(clients)
}

// sortedClients must be called with mu held.
func (h *Hub) sortedClients() []*Client {
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the message is dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("broadcast channel full, dropping message")
		return false
	}
}

// BroadcastReportUpdated tells dashboards that rep is now cached.
func (h *Hub) BroadcastReportUpdated(rep *models.Report) {
	data := ReportUpdatedData{
		RunID:        rep.RunID,
		GeneratedAt:  rep.GeneratedAt.UTC().Format(time.RFC3339),
		Mode:         rep.Mode,
		TotalEvents:  rep.Summary.TotalEvents,
		UrgentEvents: len(rep.Summary.UrgentEvents),
	}
	if h.Broadcast(Message{Type: MessageTypeReportUpdated, Data: data}) {
		logging.Debug().Int("clients", h.ClientCount()).Str("run_id", rep.RunID).Msg("broadcast report_updated")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
