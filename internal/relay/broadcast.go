package relay

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/driftline/relay/internal/history"
)

// BroadcastRelay delivers every message to every registered connection and
// replays the full history log to each new joiner.
type BroadcastRelay struct {
	registry *Registry
	store    history.Store
	channel  string
	log      *zap.Logger
	metrics  *Metrics

	// mu serializes history access against dispatch so that append order
	// equals delivery-attempt order, and so that a joiner's replay and
	// registration happen atomically with respect to in-flight messages:
	// no record is both replayed to and dispatched at the same connection,
	// and none falls in the gap between the two. The lock covers the store
	// call and frame enqueueing only, never transport writes.
	mu sync.Mutex
}

// NewBroadcastRelay builds the broadcast-mode strategy.
func NewBroadcastRelay(registry *Registry, store history.Store, channel string, log *zap.Logger, metrics *Metrics) *BroadcastRelay {
	return &BroadcastRelay{
		registry: registry,
		store:    store,
		channel:  channel,
		log:      log,
		metrics:  metrics,
	}
}

// OnConnect registers the connection under its anonymous id and replays the
// stored history to it, in append order, before any new message can reach it.
func (b *BroadcastRelay) OnConnect(ctx context.Context, conn Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.store.Range(ctx, b.channel, 0, history.FullRange)
	if err != nil {
		return fmt.Errorf("read history for replay: %w", err)
	}

	for _, record := range records {
		if err := conn.Send(record); err != nil {
			b.log.Warn("replay frame dropped",
				zap.String("conn_id", conn.ID()),
				zap.Error(err))
		}
	}
	b.metrics.replayed(len(records))

	b.registry.Register(conn.ID(), conn)
	b.metrics.connOpened()

	b.log.Info("connection joined",
		zap.String("conn_id", conn.ID()),
		zap.Int("replayed", len(records)),
		zap.Int("connections", b.registry.Len()))
	return nil
}

// OnMessage appends the decoded message to history and fans it out to every
// registered connection. A failed send to one connection is logged and does
// not affect delivery to the others; the failing connection stays registered
// since closure is signaled by the transport's own disconnect, not inferred
// from a single failed write.
func (b *BroadcastRelay) OnMessage(ctx context.Context, conn Conn, payload []byte) error {
	msg, err := DecodeMessage(payload, false)
	if err != nil {
		b.metrics.dropped("decode")
		return err
	}

	normalized, err := msg.Encode()
	if err != nil {
		b.metrics.dropped("encode")
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.Append(ctx, b.channel, normalized); err != nil {
		b.metrics.dropped("append")
		return fmt.Errorf("append message to history: %w", err)
	}

	b.registry.ForEachLive(func(target Conn) {
		if err := target.Send(normalized); err != nil {
			b.metrics.sendFailed()
			b.log.Warn("broadcast send failed",
				zap.String("conn_id", target.ID()),
				zap.Error(err))
		}
	})

	b.metrics.relayed("broadcast")
	b.log.Debug("message broadcast",
		zap.String("sender", msg.Sender),
		zap.Int("connections", b.registry.Len()))
	return nil
}

// OnDisconnect removes the connection from the registry. Safe to call for a
// connection that was already removed.
func (b *BroadcastRelay) OnDisconnect(conn Conn) {
	b.registry.Unregister(conn.ID())
	b.metrics.connClosed()
	b.log.Info("connection left",
		zap.String("conn_id", conn.ID()),
		zap.Int("connections", b.registry.Len()))
}
