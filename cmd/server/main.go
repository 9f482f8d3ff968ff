package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/driftline/relay/internal/config"
	"github.com/driftline/relay/internal/history"
	"github.com/driftline/relay/internal/logging"
	"github.com/driftline/relay/internal/relay"
	"github.com/driftline/relay/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML/JSON config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // best-effort flush

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newHistoryStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init history store", zap.Error(err))
	}
	defer closeStore()

	registry := relay.NewRegistry()
	metrics := relay.NewMetrics(nil)
	strategy := newStrategy(cfg, registry, store, logger, metrics)

	srv := server.New(cfg, logger, strategy, registry)
	httpServer := server.NewHTTPServer(cfg.ListenAddress, srv.Routes())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay server listening",
			zap.String("addr", cfg.ListenAddress),
			zap.String("mode", cfg.Mode),
			zap.String("history_backend", cfg.History.Backend))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}

	if err := server.ShutdownHTTPServer(httpServer, cfg.ShutdownGracePeriod, logger); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	if err := srv.Shutdown(cfg.ShutdownGracePeriod); err != nil {
		logger.Warn("relay shutdown incomplete", zap.Error(err))
	}
}

// newHistoryStore builds the configured history backend and verifies it is
// reachable before the server starts accepting connections.
func newHistoryStore(ctx context.Context, cfg config.Config) (history.Store, func(), error) {
	switch cfg.History.Backend {
	case config.HistoryBackendRedis:
		store := history.NewRedisStore(cfg.History.Redis.Addr, cfg.History.Redis.Password, cfg.History.Redis.DB)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.HistoryBackendMemory:
		return history.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

func newStrategy(cfg config.Config, registry *relay.Registry, store history.Store, logger *zap.Logger, metrics *relay.Metrics) relay.Strategy {
	if cfg.Mode == config.ModeDirect {
		return relay.NewDirectRelay(registry, store, cfg.History.ChannelKey, logger, metrics)
	}
	return relay.NewBroadcastRelay(registry, store, cfg.History.ChannelKey, logger, metrics)
}
