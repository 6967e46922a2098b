package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go.klb.dev/clipbridge/internal/hub"
	"go.klb.dev/clipbridge/internal/snapshot"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *hub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub count = %d, want %d", h.Count(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWSPingPong(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "pong" {
		t.Fatalf("reply = %q, want pong", msg)
	}
}

func TestWSBroadcast(t *testing.T) {
	s, _, _, h := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	waitForClients(t, h, 1)

	h.Broadcast(snapshot.Text("changed"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Success  bool   `json:"success"`
		Mime     string `json:"type"`
		Content  string `json:"content"`
		IsBinary bool   `json:"is_binary"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("bad frame %q: %v", msg, err)
	}
	if !got.Success || got.Content != "changed" || got.Mime != "text/plain" || got.IsBinary {
		t.Fatalf("frame = %+v", got)
	}
}

func TestWSDisconnectUnregisters(t *testing.T) {
	s, _, _, h := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}
