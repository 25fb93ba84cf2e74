package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Central hub tracking every live browser session.
// Sessions run in their own goroutines; the hub only registers them and
// can shut them all down.

// SessionInfo is a read-only view of a session for the API
type SessionInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	Sent      int64     `json:"sent"`
	Received  int64     `json:"received"`
	Dropped   int64     `json:"dropped"`
}

// ErrHubClosed is returned by Serve once CloseAll has run
var ErrHubClosed = errors.New("hub closed")

type Hub struct {
	clients map[string]*Client // map[sessionID] -> *Client
	mu      sync.RWMutex
	closed  bool // set by CloseAll, guarded by mu

	upstreamURL string
	dial        DialFunc

	ctx    context.Context // parent of every session
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub whose sessions relay to upstreamURL.
// A nil dial uses DefaultDial.
func NewHub(upstreamURL string, dial DialFunc) *Hub {
	if dial == nil {
		dial = DefaultDial
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]*Client),
		upstreamURL: upstreamURL,
		dial:        dial,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// UpstreamURL is where sessions relay to
func (h *Hub) UpstreamURL() string { return h.upstreamURL }

// Register adds a client to the hub and counts it as running. It reports
// false, leaving the hub untouched, after CloseAll.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	h.clients[c.ID] = c
	slog.Info("session_registered", "session_id", c.ID, "sessions", len(h.clients))
	return true
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		slog.Warn("session_not_found", "session_id", c.ID)
		return
	}
	delete(h.clients, c.ID)
	slog.Info("session_unregistered", "session_id", c.ID, "sessions", len(h.clients))
}

// Serve registers c, runs it to completion and unregisters it. A hub that
// is shutting down closes c straight away.
func (h *Hub) Serve(c *Client) error {
	if !h.Register(c) {
		slog.Info("session_refused", "session_id", c.ID, "reason", "hub_closed")
		_ = c.Close()
		return ErrHubClosed
	}
	defer h.wg.Done()
	defer h.Unregister(c)
	return c.Run(h.ctx, h.upstreamURL, h.dial)
}

// Count returns the number of live sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Sessions returns a snapshot of every live session
func (h *Hub) Sessions() []SessionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(h.clients))
	for _, c := range h.clients {
		st := c.Stats()
		infos = append(infos, SessionInfo{
			ID:        c.ID,
			Connected: c.Connected,
			Sent:      st.Sent,
			Received:  st.Received,
			Dropped:   st.Dropped,
		})
	}
	return infos
}

// CloseAll ends every session and waits for them to finish. Sessions
// arriving afterwards are refused.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()

	h.mu.RLock()
	for id, c := range h.clients {
		if err := c.Close(); err != nil {
			slog.Debug("session_close_error", "session_id", id, "error", err)
		}
	}
	h.mu.RUnlock()

	h.wg.Wait()
}
