package engine

import "veilmatch/backend/internal/models"

// Client is the interface for any type of connection feeding the engine.
// It abstracts the underlying communication mechanism so the engine can
// route events without knowing about WebSockets.
type Client interface {
	// GetConnID returns the unique identifier of this connection. A user
	// may transiently own several connections (reconnect races, multi-tab).
	GetConnID() string
	// GetUserID returns the user bound to the connection by announce, or ""
	// before the identity was announced.
	GetUserID() string
	// SetUserID binds a user to the connection. Called by the engine during
	// announce.
	SetUserID(string)

	// GetSendChannel returns the channel through which the engine delivers
	// events intended for this connection. It is a send-only channel.
	GetSendChannel() chan<- models.ServerEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and associated channels.
	Close()
}
