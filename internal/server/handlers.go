package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/driftline/relay/internal/config"
	"github.com/driftline/relay/internal/relay"
)

// HandleChat upgrades the HTTP request to a WebSocket connection and attaches
// it to the relay. In directed mode the username is read once from the
// connect request's query parameters; a connection without one is closed
// immediately with a bad-data close frame and never registered.
func (s *Server) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	if !s.acceptingConnections() {
		http.Error(w, "Server is shutting down.", http.StatusServiceUnavailable)
		return
	}

	username := ""
	if s.cfg.Mode == config.ModeDirect {
		username = r.URL.Query().Get("username")
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	limiter := newRateLimiter(s.cfg.RateLimit.Burst, s.cfg.RateLimit.RefillInterval)
	client := newClient(conn, s.strategy, username, r.RemoteAddr, limiter, s.cfg.MaxMessageSize, s.log)

	// The write pump must be draining before OnConnect so a long history
	// replay cannot overflow the send buffer.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()

	if err := s.strategy.OnConnect(r.Context(), client); err != nil {
		s.rejectConnection(client, err)
		return
	}

	// The request context dies when this handler returns, so the read pump
	// runs against the background context; connection teardown is signaled
	// by the socket itself.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		client.readPump(context.Background())
	}()
}

// rejectConnection closes a connection that failed OnConnect with a close
// frame describing the reason. No registry entry exists for it.
func (s *Server) rejectConnection(client *Client, cause error) {
	code := websocket.CloseInternalServerErr
	reason := "connection setup failed"
	if errors.Is(cause, relay.ErrMissingUsername) {
		code = websocket.CloseInvalidFramePayloadData
		reason = "username query parameter is required"
	}

	s.log.Warn("rejecting connection",
		zap.String("remote_addr", client.addr),
		zap.Error(cause))

	frame := websocket.FormatCloseMessage(code, reason)
	if err := client.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait)); err != nil && !isExpectedCloseError(err) {
		s.log.Warn("write close frame failed", zap.Error(err))
	}
	client.closeSend()
	if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
		s.log.Warn("close rejected connection failed", zap.Error(err))
	}
}

// HandleHealth reports process liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "relay server is running (%s mode)", s.cfg.Mode)
}
