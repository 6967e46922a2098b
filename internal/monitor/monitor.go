// Package monitor polls the clipboard on a fixed interval and detects
// content changes against the last observed value. On a change it fans the
// new snapshot out through the hub and, when history recording is enabled,
// appends it to the history store. The loop is the one component that must
// never terminate on error: read failures are logged and treated as
// "unchanged" for that tick.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"go.klb.dev/clipbridge/internal/history"
	"go.klb.dev/clipbridge/internal/hub"
	"go.klb.dev/clipbridge/internal/snapshot"
)

// Reader is the clipboard read dependency. The poller depends on nothing
// else of the adapter.
type Reader interface {
	Read() (snapshot.Snapshot, error)
}

const (
	// DefaultInterval is the tick period when the setting is absent.
	DefaultInterval = 2 * time.Second

	// MinInterval floor-clamps the configured tick period to bound the
	// load placed on the external helper.
	MinInterval = 500 * time.Millisecond
)

// Poller owns the last-seen clipboard value. It runs as a single goroutine;
// the value is never touched from anywhere else.
type Poller struct {
	src      Reader
	hub      *hub.Hub
	hist     *history.Store
	interval time.Duration
	record   func() bool

	last string
}

// New builds a poller. recordHistory is consulted on every change so the
// enable_history setting takes effect without a restart; nil means never
// record. Intervals below MinInterval are clamped up; non-positive intervals
// get DefaultInterval.
func New(src Reader, h *hub.Hub, hist *history.Store, interval time.Duration, recordHistory func() bool) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if interval < MinInterval {
		interval = MinInterval
	}
	if recordHistory == nil {
		recordHistory = func() bool { return false }
	}
	return &Poller{
		src:      src,
		hub:      h,
		hist:     hist,
		interval: interval,
		record:   recordHistory,
	}
}

// Run ticks until ctx is cancelled. Cooperative shutdown: cancellation is
// observed at the next wake-up, never mid-read.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("clipboard monitor started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("clipboard monitor stopped")
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce performs one Idle → Polling → (Unchanged | Changed) → Idle cycle.
func (p *Poller) pollOnce() {
	snap, err := p.src.Read()
	if err != nil {
		// Recoverable by construction; next tick retries.
		slog.Debug("poll read failed", "err", err)
		return
	}

	if snap.Content == p.last {
		return
	}
	p.last = snap.Content

	p.hub.Broadcast(snap)

	if snap.Content != "" && p.record() {
		p.hist.Add(snap.Content, snap.Mime, snap.Binary)
	}
}
