// Package server exposes the clipboard over HTTP and WebSocket to browsers
// on the local network. Handlers delegate to the adapter and settings store;
// the channel carries no authentication or encryption and is scoped to a
// trusted LAN.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/history"
	"go.klb.dev/clipbridge/internal/hub"
	"go.klb.dev/clipbridge/internal/snapshot"
)

const shutdownTimeout = 5 * time.Second

// Clipboard is what the handlers need from the adapter.
type Clipboard interface {
	Read() (snapshot.Snapshot, error)
	Write(content, mime string, alreadyEncoded bool) error
	Available() bool
}

// Server wires the HTTP surface to the clipboard adapter, hub, history store
// and settings store.
type Server struct {
	clip     Clipboard
	hub      *hub.Hub
	hist     *history.Store
	settings *config.Store

	nextClientID atomic.Uint64
}

// New returns an unstarted server.
func New(clip Clipboard, h *hub.Hub, hist *history.Store, settings *config.Store) *Server {
	return &Server{clip: clip, hub: h, hist: hist, settings: settings}
}

// Handler returns the route table. Exposed separately so tests can drive it
// through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/clipboard", s.handleGetClipboard)
	mux.HandleFunc("POST /api/clipboard", s.handleSetClipboard)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/ws", s.handleWS)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("POST /api/history/clear", s.handleClearHistory)
	mux.HandleFunc("POST /api/history/restore", s.handleRestoreHistory)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleSaveSettings)
	return mux
}

// Run serves until ctx is cancelled, then drains in-flight handlers and
// closes all live WebSocket clients.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not touch hijacked connections; close the live
	// clients explicitly so their pumps exit.
	srv.RegisterOnShutdown(s.hub.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("web server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// localIP returns the address this host uses to reach the LAN. The UDP dial
// never sends a packet; it just makes the kernel pick a source address.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
