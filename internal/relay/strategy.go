package relay

import (
	"context"
	"errors"
)

// ErrMissingUsername marks a directed-mode connect attempt without a usable
// identity. The connection must be closed with a bad-data reason and no
// registry entry may be created for it.
var ErrMissingUsername = errors.New("username is required")

// Strategy is the per-mode relay behavior, selected once at startup. The
// transport layer calls OnConnect after the handshake, OnMessage for every
// inbound text frame, and OnDisconnect exactly when the connection's read
// side terminates, for any reason.
type Strategy interface {
	// OnConnect validates and registers a new connection. A returned error
	// rejects the connection; the caller closes it and OnDisconnect is not
	// invoked.
	OnConnect(ctx context.Context, conn Conn) error
	// OnMessage relays one inbound frame. A returned error means the message
	// was dropped without delivery; the connection stays open.
	OnMessage(ctx context.Context, conn Conn, payload []byte) error
	// OnDisconnect deregisters the connection. Idempotent.
	OnDisconnect(conn Conn)
}
