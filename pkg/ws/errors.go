package ws

import "errors"

var (
	// ErrConnNotFound no connection registered for the target
	ErrConnNotFound = errors.New("websocket connection not found")

	// ErrUserNotConnected the user has no live connections
	ErrUserNotConnected = errors.New("user has no websocket connections")

	// ErrConnectionClosed connection already closed
	ErrConnectionClosed = errors.New("websocket connection closed")
)
