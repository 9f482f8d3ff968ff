package relay

import "errors"

// Send errors reported by transport connections.
var (
	// ErrConnClosed is returned by Send once the transport side of the
	// connection has shut down.
	ErrConnClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned when the connection's outbound buffer
	// cannot accept another frame without blocking.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is a live transport endpoint as seen by the relay. The transport layer
// owns the underlying I/O; the relay only enqueues outbound frames and reads
// identity.
type Conn interface {
	// ID is the opaque per-connection identifier assigned by the transport.
	ID() string
	// Username is the identity chosen at connect time. Empty outside
	// directed mode.
	Username() string
	// Send enqueues a frame for delivery. It never blocks: a full buffer or
	// a closed connection is reported as an error and the frame is dropped.
	Send(payload []byte) error
	// Open reports whether the transport still considers the connection live.
	Open() bool
	// Close tears down the transport connection.
	Close() error
}
