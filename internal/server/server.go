package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/driftline/relay/internal/config"
	"github.com/driftline/relay/internal/relay"
)

// Server owns the WebSocket endpoint for one relay process. It upgrades
// connections, runs their pumps, and hands lifecycle and message events to
// the configured relay strategy.
type Server struct {
	cfg      config.Config
	log      *zap.Logger
	strategy relay.Strategy
	registry *relay.Registry
	origins  *originPolicy
	upgrader websocket.Upgrader

	wg sync.WaitGroup

	mu       sync.Mutex
	stopping bool
}

// New builds a Server for the given configuration and relay strategy. The
// registry is shared with the strategy so shutdown can reach every live
// connection.
func New(cfg config.Config, log *zap.Logger, strategy relay.Strategy, registry *relay.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		strategy: strategy,
		registry: registry,
		origins:  newOriginPolicy(cfg.AllowedOrigins, log),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.check,
	}
	return s
}

// Shutdown closes every registered connection and waits for their pumps to
// finish, bounded by timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.log.Info("closing client connections", zap.Int("connections", s.registry.Len()))

	s.registry.ForEachLive(func(conn relay.Conn) {
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.log.Warn("close client connection failed", zap.Error(err))
		}
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("all client pumps stopped")
		return nil
	case <-time.After(timeout):
		s.log.Warn("shutdown timeout reached; some pumps may still be running")
		return context.DeadlineExceeded
	}
}

func (s *Server) acceptingConnections() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopping
}
