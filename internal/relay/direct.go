package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/driftline/relay/internal/history"
)

// DirectRelay delivers each message to its addressed recipient plus a
// confirmation echo back to the sender. Connections are keyed by the username
// chosen at connect time; an unidentified connection is rejected outright.
// Unlike broadcast mode, no history is replayed on connect: a newly connected
// user sees no prior traffic. That asymmetry is intentional.
type DirectRelay struct {
	registry *Registry
	store    history.Store
	channel  string
	log      *zap.Logger
	metrics  *Metrics
}

// NewDirectRelay builds the directed-mode strategy.
func NewDirectRelay(registry *Registry, store history.Store, channel string, log *zap.Logger, metrics *Metrics) *DirectRelay {
	return &DirectRelay{
		registry: registry,
		store:    store,
		channel:  channel,
		log:      log,
		metrics:  metrics,
	}
}

// OnConnect registers the connection under its username. A connection without
// a username is rejected before any registry entry is created.
func (d *DirectRelay) OnConnect(_ context.Context, conn Conn) error {
	username := conn.Username()
	if username == "" {
		return ErrMissingUsername
	}

	// Last writer wins: a reconnect under the same username supersedes the
	// prior registration without closing the old transport.
	d.registry.Register(username, conn)
	d.metrics.connOpened()

	d.log.Info("user connected",
		zap.String("username", username),
		zap.Int("connections", d.registry.Len()))
	return nil
}

// OnMessage appends the message to history unconditionally, then attempts
// delivery to the recipient and an echo to the sender. An unreachable
// recipient or a failed write is logged and otherwise ignored; the sender is
// not notified of delivery failures.
func (d *DirectRelay) OnMessage(ctx context.Context, conn Conn, payload []byte) error {
	msg, err := DecodeMessage(payload, true)
	if err != nil {
		d.metrics.dropped("decode")
		return err
	}

	normalized, err := msg.Encode()
	if err != nil {
		d.metrics.dropped("encode")
		return err
	}

	// The log records all traffic regardless of delivery outcome, so the
	// append happens before any lookup.
	if err := d.store.Append(ctx, d.channel, normalized); err != nil {
		d.metrics.dropped("append")
		return fmt.Errorf("append message to history: %w", err)
	}

	if recipient, ok := d.registry.Lookup(msg.Recipient); ok && recipient.Open() {
		if err := recipient.Send(normalized); err != nil {
			d.metrics.sendFailed()
			d.log.Warn("directed send failed",
				zap.String("recipient", msg.Recipient),
				zap.Error(err))
		}
	} else {
		d.metrics.recipientMissed()
		d.log.Info("recipient unreachable",
			zap.String("sender", msg.Sender),
			zap.String("recipient", msg.Recipient))
	}

	// Echo a copy back to the sender's own connection as confirmation,
	// independent of the recipient delivery outcome.
	if err := conn.Send(normalized); err != nil {
		d.metrics.sendFailed()
		d.log.Warn("sender echo failed",
			zap.String("sender", msg.Sender),
			zap.Error(err))
	}

	d.metrics.relayed("direct")
	return nil
}

// OnDisconnect removes the connection's username from the registry. Safe to
// call repeatedly.
func (d *DirectRelay) OnDisconnect(conn Conn) {
	username := conn.Username()
	if username == "" {
		return
	}

	d.registry.Unregister(username)
	d.metrics.connClosed()
	d.log.Info("user disconnected",
		zap.String("username", username),
		zap.Int("connections", d.registry.Len()))
}
