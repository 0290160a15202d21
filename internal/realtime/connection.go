package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/shared/id"
)

// Connection is one live socket. The user id field is the only record of
// ownership; every query reads it.
type Connection struct {
	id          id.ConnectionID
	ws          *websocket.Conn
	send        chan []byte
	done        chan struct{}
	connectedAt time.Time

	mu           sync.RWMutex
	userID       string
	lastActivity time.Time
	closed       bool
	closeOnce    sync.Once
	// gone is closed once the socket itself has been torn down.
	gone chan struct{}
}

func newConnection(ws *websocket.Conn, buffer int, userID string) *Connection {
	now := time.Now()
	return &Connection{
		id:           id.NewConnectionID(),
		ws:           ws,
		send:         make(chan []byte, buffer),
		done:         make(chan struct{}),
		gone:         make(chan struct{}),
		connectedAt:  now,
		lastActivity: now,
		userID:       userID,
	}
}

// ID returns the connection id.
func (c *Connection) ID() id.ConnectionID {
	return c.id
}

// UserID returns the owning user, or "" while untagged.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Open reports whether the socket can still accept messages.
func (c *Connection) Open() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Info returns a snapshot of the connection metadata.
func (c *Connection) Info() ConnectionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ConnectionInfo{
		ID:           c.id,
		UserID:       c.userID,
		ConnectedAt:  c.connectedAt,
		LastActivity: c.lastActivity,
	}
}

// Send queues msg for this connection only.
func (c *Connection) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Connection) tag(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return ErrConnectionNotFound
	case c.userID == "":
		c.userID = userID
		return nil
	case c.userID == userID:
		return nil
	default:
		return ErrAlreadyTagged
	}
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func (c *Connection) enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// close marks the connection closed and stops the write pump without
// blocking the caller. The close frame and socket teardown happen in the
// background; the read pump then observes the closed socket and unregisters
// the connection.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.done)
		go c.teardown()
	})
}

func (c *Connection) teardown() {
	defer close(c.gone)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
	_ = c.ws.Close()
}

// writePump drains the send queue and pings the peer. One goroutine per
// connection, so frames keep enqueue order.
func (c *Connection) writePump(s Settings, logger *zap.Logger) {
	ticker := time.NewTicker(s.pingPeriod())
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("WebSocket write failed", zap.String("connection_id", c.id.String()), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// readPump consumes inbound frames to track activity and detect
// disconnects. Blocks until the socket fails or is closed.
func (c *Connection) readPump(s Settings, metrics Metrics) {
	defer c.close()

	c.ws.SetReadLimit(s.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.touch()
		return c.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
		c.touch()
		metrics.MessageReceived()
		_ = c.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	}
}
