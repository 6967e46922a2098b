package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go.klb.dev/clipbridge/internal/hub"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are keep-alive tokens only; anything larger is a
	// misbehaving client.
	maxInboundBytes = 512

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// LAN-scoped tool with no auth on the channel; an origin check would
	// only break same-host browsers.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsClient is one live streaming connection. It implements hub.Client; all
// conn writes happen on the writePump goroutine.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan hub.Update
	pong chan struct{}
	done chan struct{}
	once sync.Once
}

func (c *wsClient) ID() string { return c.id }

// Send queues an update without blocking the hub. A client that cannot drain
// its buffer is dead weight; report the failure so the hub drops it.
func (c *wsClient) Send(u hub.Update) error {
	select {
	case c.send <- u:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		c.close()
		return errors.New("send buffer full")
	}
}

// Close implements the optional closer the hub uses at shutdown.
func (c *wsClient) Close() error {
	c.close()
	return nil
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &wsClient{
		id:   fmt.Sprintf("%s#%d", r.RemoteAddr, s.nextClientID.Add(1)),
		conn: conn,
		send: make(chan hub.Update, sendBuffer),
		pong: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	s.hub.Register(c)
	go c.writePump()
	c.readPump()
	s.hub.Unregister(c)
}

// readPump consumes inbound frames until the connection dies. The only
// application message is the literal "ping" keep-alive token, answered with
// "pong" via the write pump.
func (c *wsClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read ended", "client", c.id, "err", err)
			}
			return
		}
		if string(msg) == "ping" {
			// Browsers cannot send protocol-level pings, so the text
			// token doubles as liveness.
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			select {
			case c.pong <- struct{}{}:
			default:
			}
		}
	}
}

// writePump owns all writes: queued updates, "pong" replies, and periodic
// protocol pings that keep idle connections from being reclaimed by NAT
// boxes between the daemon and the browser.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case u := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(u); err != nil {
				slog.Debug("websocket write failed", "client", c.id, "err", err)
				return
			}
		case <-c.pong:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
