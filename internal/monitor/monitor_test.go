package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.klb.dev/clipbridge/internal/history"
	"go.klb.dev/clipbridge/internal/hub"
	"go.klb.dev/clipbridge/internal/snapshot"
)

type fakeReader struct {
	snap snapshot.Snapshot
	err  error
}

func (f *fakeReader) Read() (snapshot.Snapshot, error) { return f.snap, f.err }

type recordingClient struct {
	got []hub.Update
}

func (c *recordingClient) ID() string              { return "rec" }
func (c *recordingClient) Send(u hub.Update) error { c.got = append(c.got, u); return nil }

func newTestPoller(src Reader, record bool) (*Poller, *recordingClient, *history.Store) {
	h := hub.New()
	client := &recordingClient{}
	h.Register(client)
	hist := history.New(10)
	p := New(src, h, hist, time.Second, func() bool { return record })
	return p, client, hist
}

func TestPollOnceBroadcastsOnChange(t *testing.T) {
	src := &fakeReader{snap: snapshot.Text("v1")}
	p, client, _ := newTestPoller(src, false)

	p.pollOnce()
	if len(client.got) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(client.got))
	}
	if client.got[0].Content != "v1" {
		t.Errorf("broadcast content %q", client.got[0].Content)
	}
}

func TestPollOnceIgnoresUnchanged(t *testing.T) {
	src := &fakeReader{snap: snapshot.Text("same")}
	p, client, _ := newTestPoller(src, false)

	p.pollOnce()
	p.pollOnce()
	p.pollOnce()

	if len(client.got) != 1 {
		t.Fatalf("identical content broadcast %d times", len(client.got))
	}
}

func TestPollOnceReadErrorIsUnchanged(t *testing.T) {
	src := &fakeReader{snap: snapshot.Text("v1")}
	p, client, _ := newTestPoller(src, false)
	p.pollOnce()

	src.snap = snapshot.Empty()
	src.err = errors.New("helper timed out")
	p.pollOnce()

	if len(client.got) != 1 {
		t.Fatalf("read failure triggered a broadcast")
	}
	if p.last != "v1" {
		t.Errorf("read failure mutated last-seen value: %q", p.last)
	}

	// Recovery with the same content stays silent.
	src.err = nil
	src.snap = snapshot.Text("v1")
	p.pollOnce()
	if len(client.got) != 1 {
		t.Fatalf("recovered identical content re-broadcast")
	}
}

func TestPollOnceRecordsHistory(t *testing.T) {
	src := &fakeReader{snap: snapshot.Text("v1")}
	p, _, hist := newTestPoller(src, true)

	p.pollOnce()
	src.snap = snapshot.Text("v2")
	p.pollOnce()

	got := hist.List(0)
	if len(got) != 2 || got[0].Content != "v2" {
		t.Fatalf("history = %+v", got)
	}
}

func TestPollOnceSkipsEmptyHistory(t *testing.T) {
	src := &fakeReader{snap: snapshot.Text("v1")}
	p, client, hist := newTestPoller(src, true)
	p.pollOnce()

	// Clipboard cleared: broadcast yes, history no.
	src.snap = snapshot.Empty()
	p.pollOnce()

	if len(client.got) != 2 {
		t.Fatalf("empty transition not broadcast: %d", len(client.got))
	}
	if last := client.got[1]; last.Content != "" || !last.Success {
		t.Fatalf("clear broadcast = %+v", last)
	}
	if hist.Len() != 1 {
		t.Fatalf("empty content recorded to history")
	}
}

func TestNewClampsInterval(t *testing.T) {
	p := New(&fakeReader{}, hub.New(), nil, 10*time.Millisecond, nil)
	if p.interval != MinInterval {
		t.Errorf("interval %v, want clamp to %v", p.interval, MinInterval)
	}

	p = New(&fakeReader{}, hub.New(), nil, 0, nil)
	if p.interval != DefaultInterval {
		t.Errorf("interval %v, want default %v", p.interval, DefaultInterval)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeReader{snap: snapshot.Text("v")}
	p, _, _ := newTestPoller(src, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on context cancel")
	}
}
