// Package server exposes the HTTP and WebSocket layer of the relay: upgrade
// handling, per-connection read/write pumps, origin checks, and server
// lifecycle.
package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/driftline/relay/internal/relay"
)

const (
	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long the read side waits for traffic before giving up.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
	// sendBufferSize is the per-connection outbound frame queue.
	sendBufferSize = 256
)

// Client is one live WebSocket connection. It owns the transport I/O and
// implements relay.Conn so the relay can enqueue frames without touching the
// socket. Frames enqueued by the relay are written in FIFO order by the write
// pump.
type Client struct {
	id       string
	username string
	addr     string
	conn     *websocket.Conn
	send     chan []byte
	strategy relay.Strategy
	limiter  *rateLimiter
	log      *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, strategy relay.Strategy, username, addr string, limiter *rateLimiter, maxMessageSize int64, log *zap.Logger) *Client {
	id := uuid.NewString()
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}

	return &Client{
		id:       id,
		username: username,
		addr:     addr,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		strategy: strategy,
		limiter:  limiter,
		log:      log.With(zap.String("conn_id", id), zap.String("remote_addr", addr)),
	}
}

// ID returns the transport-assigned connection identifier.
func (c *Client) ID() string { return c.id }

// Username returns the identity extracted at connect time, if any.
func (c *Client) Username() string { return c.username }

// Send enqueues a frame for the write pump. It never blocks; a closed
// connection or a full buffer is reported as an error and the frame dropped.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return relay.ErrConnClosed
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return relay.ErrSendBufferFull
	}
}

// Open reports whether the connection can still accept frames.
func (c *Client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close tears down the underlying transport connection. The read pump
// observes the closure and runs the normal disconnect path.
func (c *Client) Close() error {
	return c.conn.Close()
}

// closeSend marks the client closed and closes the send channel, stopping the
// write pump. Safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) setupReadDeadlines() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("set read deadline failed", zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// logReadError classifies the error that ended the read loop.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded read limit", zap.Error(err))
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Info("client disconnected", zap.Error(err))
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.log.Info("connection closed", zap.Error(err))
	default:
		c.log.Warn("websocket read error", zap.Error(err))
	}
}

// readPump consumes inbound frames and hands each one to the relay strategy.
// A message the strategy rejects is dropped; the connection stays open. The
// pump exits on any read error, at which point the disconnect path runs
// exactly once.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.strategy.OnDisconnect(c)
		c.closeSend()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("close connection failed", zap.Error(err))
		}
	}()

	c.setupReadDeadlines()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if c.limiter != nil && !c.limiter.allow() {
			c.log.Warn("rate limit exceeded; discarding message")
			continue
		}

		if err := c.strategy.OnMessage(ctx, c, payload); err != nil {
			if errors.Is(err, relay.ErrBadMessage) {
				c.log.Warn("dropped malformed message", zap.Error(err))
			} else {
				c.log.Error("message relay failed", zap.Error(err))
			}
		}
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings. It exits when the send channel closes or a write
// fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("close connection failed", zap.Error(err))
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn("set write deadline failed", zap.Error(err))
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					c.log.Warn("write close frame failed", zap.Error(err))
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Warn("write message failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn("set write deadline failed", zap.Error(err))
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isExpectedCloseError reports whether an error is routine connection
// teardown noise.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
