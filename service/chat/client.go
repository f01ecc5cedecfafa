package chat

import (
	"IMProject/logger"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one live WebSocket connection. A user with several tabs or
// devices holds several Clients; each has its own send queue drained by a
// single writer goroutine (gorilla allows only one concurrent writer).
type Client struct {
	ConnID string
	WS     *websocket.Conn
	Send   chan []byte

	// guards closed so a fan-out worker holding a stale handle can never
	// send on a channel Close just shut
	mu     sync.RWMutex
	closed bool

	// identity binding; written only while holding the owning Registry's
	// lock, read through Registry.BoundUser
	userID string
	trust  Trust
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
	}
}

// Enqueue hands a payload to the writer without blocking. A full queue means
// a slow client; the event is dropped and logged, never retried. Enqueue on
// a closed handle is a no-op: routing may still hold the handle from a
// lookup copy taken before the connection dropped.
func (c *Client) Enqueue(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		logger.Warnf("[chat] send queue full, drop event conn=%s", c.ConnID)
		return false
	}
}

// Close shuts the send queue down; the writer goroutine finishes the drain
// and closes the socket. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// writePump is the single writer for this connection: drains Send and keeps
// the peer alive with pings. Exits when Send is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WS.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.WS.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				return
			}
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[chat] write err conn=%s: %v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			if err := c.WS.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Infof("[chat] ping err conn=%s: %v", c.ConnID, err)
				return
			}
		}
	}
}
