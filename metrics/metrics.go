package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the confirmation engine.
// Following the explicit dependency injection pattern, this struct is
// passed to the components that need to record metrics; a nil *Metrics
// means no metrics are recorded.
type Metrics struct {
	// Confirmation outcomes
	confirmationsTotal   *prometheus.CounterVec
	confirmationDuration *prometheus.HistogramVec

	// Signal settlements
	signalSettlementsTotal *prometheus.CounterVec

	// Solana RPC metrics
	rpcCallsTotal   *prometheus.CounterVec
	rpcCallDuration *prometheus.HistogramVec

	// Websocket subscription metrics
	wsSubscriptionsTotal *prometheus.CounterVec
	wsNotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		confirmationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txconfirm_confirmations_total",
				Help: "Total number of confirmation waits by lifetime kind and outcome",
			},
			[]string{"lifetime", "outcome"},
		),
		confirmationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txconfirm_confirmation_duration_seconds",
				Help:    "Duration of confirmation waits in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"lifetime", "outcome"},
		),
		signalSettlementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txconfirm_signal_settlements_total",
				Help: "Total number of signal settlements by signal kind and result",
			},
			[]string{"signal", "result"},
		),
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txconfirm_solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txconfirm_solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		wsSubscriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txconfirm_ws_subscriptions_total",
				Help: "Total number of websocket subscriptions opened by kind",
			},
			[]string{"subscription"},
		),
		wsNotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txconfirm_ws_notifications_total",
				Help: "Total number of websocket notifications received by kind",
			},
			[]string{"subscription"},
		),
	}
}

// RecordConfirmation records the outcome and duration of one confirmation
// wait. Lifetime is "recent" or "durable_nonce"; outcome is one of
// confirmed, invalidated, aborted, error.
func (m *Metrics) RecordConfirmation(lifetime, outcome string, duration time.Duration) {
	m.confirmationsTotal.WithLabelValues(lifetime, outcome).Inc()
	m.confirmationDuration.WithLabelValues(lifetime, outcome).Observe(duration.Seconds())
}

// RecordSignalSettlement records a single signal settling with the given
// result ("resolved", "rejected", or "cancelled").
func (m *Metrics) RecordSignalSettlement(signal, result string) {
	m.signalSettlementsTotal.WithLabelValues(signal, result).Inc()
}

// RecordRPCCall records a Solana RPC call with its duration.
func (m *Metrics) RecordRPCCall(method, status string, duration time.Duration) {
	m.rpcCallsTotal.WithLabelValues(method, status).Inc()
	m.rpcCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordWSSubscription records a websocket subscription being opened.
func (m *Metrics) RecordWSSubscription(subscription string) {
	m.wsSubscriptionsTotal.WithLabelValues(subscription).Inc()
}

// RecordWSNotification records a websocket notification being received.
func (m *Metrics) RecordWSNotification(subscription string) {
	m.wsNotificationsTotal.WithLabelValues(subscription).Inc()
}
