// Package hub tracks live client connections and fans clipboard change
// notifications out to them. It is transport-agnostic: anything that can
// deliver an Update may register. The hub exclusively owns the client set;
// no other component iterates or mutates it.
package hub

import (
	"log/slog"
	"sync"

	"go.klb.dev/clipbridge/internal/snapshot"
)

// Update is the JSON push shape delivered to clients, identical to the
// GET /api/clipboard response so observers handle a single schema. Content
// is already base64 when IsBinary is set.
type Update struct {
	Success  bool   `json:"success"`
	Mime     string `json:"type"`
	Content  string `json:"content"`
	IsBinary bool   `json:"is_binary"`
}

// UpdateFor converts a snapshot into its push representation.
func UpdateFor(snap snapshot.Snapshot) Update {
	return Update{
		Success:  true,
		Mime:     snap.Mime,
		Content:  snap.Content,
		IsBinary: snap.Binary,
	}
}

// Client is an open channel to a remote observer. Send must not block
// indefinitely; a returned error marks the client dead and the hub drops it.
type Client interface {
	ID() string
	Send(Update) error
}

// Hub routes clipboard updates to all registered clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{clients: make(map[string]Client)}
}

// Register adds a client to the live set.
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	total := len(h.clients)
	h.mu.Unlock()

	slog.Info("client registered", "client", c.ID(), "total", total)
}

// Unregister removes a client from the live set. Safe to call for a client
// that was already dropped.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	_, present := h.clients[c.ID()]
	delete(h.clients, c.ID())
	total := len(h.clients)
	h.mu.Unlock()

	if present {
		slog.Info("client unregistered", "client", c.ID(), "total", total)
	}
}

// Broadcast delivers the snapshot to every registered client. A failed send
// drops only that client; delivery to the rest always proceeds. Delivery
// order across clients is unspecified.
func (h *Hub) Broadcast(snap snapshot.Snapshot) {
	h.mu.RLock()
	targets := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	update := UpdateFor(snap)
	logUpdate(update, len(targets))

	for _, c := range targets {
		if err := c.Send(update); err != nil {
			slog.Warn("dropping client after failed send", "client", c.ID(), "err", err)
			h.Unregister(c)
		}
	}
}

// Count returns the number of live clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown drops every client, closing those whose transport supports it.
// Called once during service teardown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]Client)
	h.mu.Unlock()

	for _, c := range clients {
		if closer, ok := c.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	if len(clients) > 0 {
		slog.Info("closed live clients", "count", len(clients))
	}
}
