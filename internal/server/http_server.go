package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NewHTTPServer wraps the handler in an http.Server with production timeouts.
// WebSocket upgrades hijack the connection, so the read/write timeouts only
// bound the initial HTTP exchange.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ShutdownHTTPServer stops the HTTP listener gracefully, bounded by timeout.
func ShutdownHTTPServer(srv *http.Server, timeout time.Duration, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
		return err
	}

	log.Info("http server stopped")
	return nil
}
