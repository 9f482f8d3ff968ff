package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks relay activity. All methods are nil-safe so strategies can
// run without metrics in tests.
type Metrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	messagesRelayed   *prometheus.CounterVec
	messagesDropped   *prometheus.CounterVec
	sendFailures      prometheus.Counter
	recipientMisses   prometheus.Counter
	recordsReplayed   prometheus.Counter
}

// NewMetrics registers relay metrics with reg. Passing nil uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connections_active",
			Help: "Current number of registered connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_connections_total",
			Help: "Total connections accepted since start.",
		}),
		messagesRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Messages appended to history and dispatched, by mode.",
		}, []string{"mode"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_messages_dropped_total",
			Help: "Inbound messages dropped before dispatch, by reason.",
		}, []string{"reason"}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_send_failures_total",
			Help: "Outbound frames that could not be handed to a connection.",
		}),
		recipientMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_recipient_misses_total",
			Help: "Directed messages whose recipient was not reachable.",
		}),
		recordsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_history_records_replayed_total",
			Help: "History records replayed to newly joined connections.",
		}),
	}

	reg.MustRegister(
		m.connectionsActive,
		m.connectionsTotal,
		m.messagesRelayed,
		m.messagesDropped,
		m.sendFailures,
		m.recipientMisses,
		m.recordsReplayed,
	)
	return m
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
	m.connectionsTotal.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) relayed(mode string) {
	if m == nil {
		return
	}
	m.messagesRelayed.WithLabelValues(mode).Inc()
}

func (m *Metrics) dropped(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.messagesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) sendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *Metrics) recipientMissed() {
	if m == nil {
		return
	}
	m.recipientMisses.Inc()
}

func (m *Metrics) replayed(records int) {
	if m == nil || records <= 0 {
		return
	}
	m.recordsReplayed.Add(float64(records))
}
