// Package wsclient is a reconnecting client for the realtime endpoint.
//
// It mirrors what the browser keeps per tab: one socket, an in-memory log
// of every message received, and topic subscriptions keyed by messageType.
// Every message is also emitted on the catch-all topic TopicMessage.
//
//	c := wsclient.New(wsclient.DefaultConfig("wss://app.example.com/websocket"))
//	stop := c.On(jobID+".messageChunk", func(m wsclient.Message) { ... })
//	defer stop()
//	c.Start()
//	defer c.Close()
//
// A closed socket is reopened after a capped exponential delay with jitter,
// forever. Nothing missed while disconnected is replayed.
package wsclient

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TopicMessage receives every decoded message regardless of type.
const TopicMessage = "message"

// State of the socket.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosedPendingReconnect
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedPendingReconnect:
		return "closed-pending-reconnect"
	default:
		return "unknown"
	}
}

// Message is one frame from the server.
type Message struct {
	MessageType string         `json:"messageType"`
	Data        map[string]any `json:"data,omitempty"`
}

// Handler receives messages of a subscribed topic.
type Handler func(Message)

// Config controls the endpoint and the reconnection policy.
type Config struct {
	URL    string
	Header http.Header

	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultConfig returns a policy starting at one second and capped at 30s.
// Multiplier 1 with no jitter and a 5s initial interval gives a fixed 5s
// retry delay.
func DefaultConfig(url string) Config {
	return Config{
		URL:                 url,
		InitialInterval:     time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
	}
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// afterFunc schedules f after d and returns its stop function.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

type subscription struct {
	id int
	fn Handler
}

// Client keeps one socket open to the server.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *zap.Logger
	after  afterFunc

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	stopWait func() bool
	closed   bool
	policy   *backoff.ExponentialBackOff
	messages []Message
	handlers map[string][]subscription
	nextSub  int
}

// New creates a client in the Disconnected state. Zero intervals and
// multiplier take their DefaultConfig values; a zero RandomizationFactor
// means no jitter.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig(cfg.URL)
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.RandomizationFactor < 0 {
		cfg.RandomizationFactor = 0
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval
	policy.Multiplier = cfg.Multiplier
	policy.RandomizationFactor = cfg.RandomizationFactor
	policy.MaxElapsedTime = 0
	policy.Reset()

	c := &Client{
		cfg:      cfg,
		dialer:   websocket.DefaultDialer,
		logger:   zap.NewNop(),
		policy:   policy,
		handlers: make(map[string][]subscription),
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens the socket. Calling it again is a no-op.
func (c *Client) Start() {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.connect()
}

// State returns the current socket state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of every message received, in arrival order.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// On subscribes fn to topic and returns the unsubscribe function.
func (c *Client) On(topic string, fn Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	subID := c.nextSub
	c.handlers[topic] = append(c.handlers[topic], subscription{id: subID, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.handlers[topic]
		for i, s := range subs {
			if s.id == subID {
				c.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Close stops reconnecting and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.state = StateDisconnected
	if c.stopWait != nil {
		c.stopWait()
		c.stopWait = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) connect() {
	conn, _, err := c.dialer.Dial(c.cfg.URL, c.cfg.Header)
	if err != nil {
		c.logger.Debug("WebSocket dial failed", zap.String("url", c.cfg.URL), zap.Error(err))
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.state = StateOpen
	c.conn = conn
	if c.stopWait != nil {
		c.stopWait()
		c.stopWait = nil
	}
	c.policy.Reset()
	c.mu.Unlock()

	c.logger.Info("WebSocket connected", zap.String("url", c.cfg.URL))
	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			c.logger.Info("WebSocket closed", zap.Error(err))
			c.scheduleReconnect()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Dropping undecodable message", zap.Error(err))
			continue
		}
		c.dispatch(msg)
	}
}

// scheduleReconnect keeps at most one pending timer.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.state = StateDisconnected
		return
	}
	c.conn = nil
	c.state = StateClosedPendingReconnect
	if c.stopWait != nil {
		return
	}

	delay := c.policy.NextBackOff()
	c.logger.Debug("Scheduling reconnect", zap.Duration("delay", delay))
	c.stopWait = c.after(delay, func() {
		c.mu.Lock()
		c.stopWait = nil
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		c.connect()
	})
}

func (c *Client) dispatch(msg Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	var fns []Handler
	for _, s := range c.handlers[msg.MessageType] {
		fns = append(fns, s.fn)
	}
	for _, s := range c.handlers[TopicMessage] {
		fns = append(fns, s.fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
}
