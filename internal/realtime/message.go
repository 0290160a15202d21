package realtime

import (
	"errors"
	"time"

	"github.com/talentscout/backend/internal/shared/id"
)

// TypeConnectionEstablished is sent to every socket right after the
// handshake. Its data carries the connection id used for claiming.
const TypeConnectionEstablished = "connection.established"

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrAlreadyTagged      = errors.New("connection already belongs to another user")
	ErrEmptyUserID        = errors.New("user id is required")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrBufferFull         = errors.New("send buffer full")
)

// Message is the JSON frame exchanged with clients. MessageType doubles as
// the client-side topic, e.g. "<jobId>.messageChunk".
type Message struct {
	MessageType string         `json:"messageType"`
	Data        map[string]any `json:"data,omitempty"`
}

// ConnectionInfo is a read-only snapshot of a connection.
type ConnectionInfo struct {
	ID           id.ConnectionID `json:"id"`
	UserID       string          `json:"userId,omitempty"`
	ConnectedAt  time.Time       `json:"connectedAt"`
	LastActivity time.Time       `json:"lastActivity"`
}

// Envelope carries one broadcast between processes.
type Envelope struct {
	Origin  id.InstanceID `json:"origin"`
	UserIDs []string      `json:"userIds"`
	Message Message       `json:"message"`
}
