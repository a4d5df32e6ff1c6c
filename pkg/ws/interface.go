package ws

import (
	"context"
)

// Conn is a single realtime WebSocket connection. A connection belongs to
// exactly one authenticated user; the same user may hold several
// connections (tabs, devices).
type Conn interface {
	// ID returns the unique connection identifier
	ID() string

	// UserID returns the authenticated user this connection belongs to
	UserID() string

	// SetUserID binds the connection to an authenticated user
	SetUserID(userId string)

	// ReadMessage reads one message
	ReadMessage() (messageType int, p []byte, err error)

	// WriteMessage writes one message
	WriteMessage(messageType int, data []byte) error

	// WriteJSON writes a JSON message
	WriteJSON(v any) error

	// ReadJSON reads a JSON message
	ReadJSON(v any) error

	// Close closes the connection
	Close() error

	// RemoteAddr returns the remote address
	RemoteAddr() string

	// Context returns the connection context
	Context() context.Context

	// SetContext replaces the connection context
	SetContext(ctx context.Context)
}

// Hub tracks live connections and routes identity updates to them.
type Hub interface {
	// Register adds a new connection
	Register(conn Conn)

	// Unregister removes a connection
	Unregister(conn Conn)

	// Broadcast sends a message to every connection
	Broadcast(messageType int, data []byte)

	// BroadcastJSON sends a JSON message to every connection
	BroadcastJSON(v any)

	// SendToUser sends a message to every connection of one user
	SendToUser(userId string, messageType int, data []byte) error

	// SendToUserJSON sends a JSON message to every connection of one user
	SendToUserJSON(userId string, v any) error

	// GetConn returns the connection with the given id
	GetConn(id string) (Conn, bool)

	// UserConns returns all connections of one user
	UserConns(userId string) []Conn

	// Count returns the number of live connections
	Count() int
}

// Handler receives connection lifecycle events.
type Handler interface {
	// OnConnect runs when a connection is established
	OnConnect(conn Conn) error

	// OnMessage runs for each received message
	OnMessage(conn Conn, messageType int, data []byte) error

	// OnDisconnect runs when the connection goes away
	OnDisconnect(conn Conn, err error)

	// OnError runs when a handler returns an error
	OnError(conn Conn, err error)
}

// WebSocket message type constants
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)
