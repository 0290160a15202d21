package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/shared/id"
)

// Identifier resolves the user owning a handshake request, typically from
// the session cookie. ok is false for anonymous requests.
type Identifier func(r *http.Request) (userID string, ok bool)

// Metrics receives registry events. *monitoring.Metrics satisfies it.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	MessageSent(msgType string)
	MessageReceived()
	Broadcast()
	Dropped(reason string)
}

// Settings tunes per-connection behavior.
type Settings struct {
	WriteTimeout   time.Duration
	PongWait       time.Duration
	SendBuffer     int
	MaxMessageSize int64
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		WriteTimeout:   10 * time.Second,
		PongWait:       60 * time.Second,
		SendBuffer:     256,
		MaxMessageSize: 64 << 10,
	}
}

func (s Settings) pingPeriod() time.Duration {
	return s.PongWait * 9 / 10
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithIdentifier(fn Identifier) Option {
	return func(r *Registry) { r.identify = fn }
}

func WithSettings(s Settings) Option {
	return func(r *Registry) {
		def := DefaultSettings()
		if s.WriteTimeout <= 0 {
			s.WriteTimeout = def.WriteTimeout
		}
		if s.PongWait <= 0 {
			s.PongWait = def.PongWait
		}
		if s.SendBuffer <= 0 {
			s.SendBuffer = def.SendBuffer
		}
		if s.MaxMessageSize <= 0 {
			s.MaxMessageSize = def.MaxMessageSize
		}
		r.settings = s
	}
}

// WithBus enables cross-process fan-out. Run must be called to consume it.
func WithBus(bus Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// WithCheckOrigin replaces the same-origin handshake check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(r *Registry) { r.upgrader.CheckOrigin = fn }
}

// Registry tracks the open WebSocket connections of this process.
type Registry struct {
	instance id.InstanceID
	logger   *zap.Logger
	metrics  Metrics
	identify Identifier
	settings Settings
	bus      Bus
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[id.ConnectionID]*Connection
	closed bool
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		instance: id.NewInstanceID(),
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
		settings: DefaultSettings(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		conns: make(map[id.ConnectionID]*Connection),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Instance returns the id this process uses on the bus.
func (r *Registry) Instance() id.InstanceID {
	return r.instance
}

// ServeHTTP completes the WebSocket handshake and serves the connection
// until it closes. Exactly one connection is registered per successful
// handshake.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var userID string
	if r.identify != nil {
		if uid, ok := r.identify(req); ok {
			userID = uid
		}
	}

	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// upgrader has already written the error response.
		r.logger.Debug("WebSocket handshake failed", zap.Error(err))
		return
	}

	c := newConnection(ws, r.settings.SendBuffer, userID)
	if !r.register(c) {
		c.close()
		return
	}
	defer r.unregister(c)

	_ = c.Send(Message{
		MessageType: TypeConnectionEstablished,
		Data:        map[string]any{"connectionId": c.id.String()},
	})

	go c.writePump(r.settings, r.logger)
	c.readPump(r.settings, r.metrics)
}

// Tag attaches userID to an untagged connection. Tagging with the same
// user again is a no-op.
func (r *Registry) Tag(connID id.ConnectionID, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}

	if err := c.tag(userID); err != nil {
		return err
	}
	r.logger.Debug("Connection tagged",
		zap.String("connection_id", connID.String()),
		zap.String("user_id", userID),
	)
	return nil
}

// BroadcastToUsers sends msg to every open connection owned by one of
// userIDs and returns the number of local deliveries. It never fails: an
// empty recipient set is a no-op, and a connection that cannot keep up is
// closed so its client reconnects.
func (r *Registry) BroadcastToUsers(ctx context.Context, userIDs []string, msg Message) int {
	if len(userIDs) == 0 {
		return 0
	}

	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("Failed to encode broadcast",
			zap.String("message_type", msg.MessageType),
			zap.Error(err),
		)
		return 0
	}

	r.metrics.Broadcast()
	delivered := r.deliver(userIDs, msg.MessageType, data)

	if r.bus != nil {
		env := Envelope{Origin: r.instance, UserIDs: userIDs, Message: msg}
		if err := r.bus.Publish(ctx, env); err != nil {
			r.logger.Warn("Failed to publish broadcast", zap.Error(err))
		}
	}
	return delivered
}

// ActiveConnections returns the open connections owned by userID.
func (r *Registry) ActiveConnections(userID string) []*Connection {
	var out []*Connection
	for _, c := range r.snapshot() {
		if c.Open() && c.UserID() == userID {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionInfo returns metadata for every connection owned by userID.
func (r *Registry) ConnectionInfo(userID string) []ConnectionInfo {
	var out []ConnectionInfo
	for _, c := range r.ActiveConnections(userID) {
		out = append(out, c.Info())
	}
	return out
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Run consumes the bus until ctx is done. Without a bus it just waits.
func (r *Registry) Run(ctx context.Context) error {
	if r.bus == nil {
		<-ctx.Done()
		return nil
	}

	err := r.bus.Subscribe(ctx, func(env Envelope) {
		if env.Origin == r.instance {
			return
		}
		data, err := json.Marshal(env.Message)
		if err != nil {
			return
		}
		r.deliver(env.UserIDs, env.Message.MessageType, data)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close disconnects every socket and refuses new ones.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	for _, c := range conns {
		<-c.gone
	}
}

func (r *Registry) deliver(userIDs []string, msgType string, data []byte) int {
	targets := make(map[string]struct{}, len(userIDs))
	for _, uid := range userIDs {
		if uid != "" {
			targets[uid] = struct{}{}
		}
	}

	delivered := 0
	for _, c := range r.snapshot() {
		if _, ok := targets[c.UserID()]; !ok {
			continue
		}
		switch err := c.enqueue(data); err {
		case nil:
			delivered++
			r.metrics.MessageSent(msgType)
		case ErrBufferFull:
			r.metrics.Dropped("buffer_full")
			r.logger.Warn("Send buffer full, closing connection",
				zap.String("connection_id", c.id.String()),
				zap.String("user_id", c.UserID()),
			)
			c.close()
		default:
			r.metrics.Dropped("closed")
		}
	}
	return delivered
}

func (r *Registry) snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) register(c *Connection) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.conns[c.id] = c
	total := len(r.conns)
	r.mu.Unlock()

	r.metrics.ConnectionOpened()
	r.logger.Info("WebSocket connected",
		zap.String("connection_id", c.id.String()),
		zap.String("user_id", c.UserID()),
		zap.Int("connections", total),
	)
	return true
}

func (r *Registry) unregister(c *Connection) {
	c.close()

	r.mu.Lock()
	_, ok := r.conns[c.id]
	delete(r.conns, c.id)
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return
	}
	r.metrics.ConnectionClosed()
	r.logger.Info("WebSocket disconnected",
		zap.String("connection_id", c.id.String()),
		zap.String("user_id", c.UserID()),
		zap.Int("connections", total),
	)
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened()  {}
func (nopMetrics) ConnectionClosed()  {}
func (nopMetrics) MessageSent(string) {}
func (nopMetrics) MessageReceived()   {}
func (nopMetrics) Broadcast()         {}
func (nopMetrics) Dropped(string)     {}
