package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records counters and latencies for ledger mutations and the
// outbox publisher.
type LedgerMetrics struct {
	opDuration *prometheus.HistogramVec
	opOutcome  *prometheus.CounterVec
	published  prometheus.Counter
	deadTotal  prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer. A
// nil registerer yields a no-op instance, which tests rely on.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	opOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by outcome.",
	}, []string{"operation", "outcome"})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_outbox_published_total",
		Help: "Outbox events successfully published.",
	})
	deadTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_outbox_dead_lettered_total",
		Help: "Outbox events moved to the dead letter queue.",
	})
	reg.MustRegister(opDuration, opOutcome, published, deadTotal)
	return &LedgerMetrics{
		opDuration: opDuration,
		opOutcome:  opOutcome,
		published:  published,
		deadTotal:  deadTotal,
	}
}

// ObserveOperation records the duration for the named operation.
func (m *LedgerMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil || m.opDuration == nil {
		return
	}
	m.opDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncOutcome increments the outcome counter for the named operation.
func (m *LedgerMetrics) IncOutcome(operation, outcome string) {
	if m == nil || m.opOutcome == nil {
		return
	}
	m.opOutcome.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncPublished increments the published-event counter.
func (m *LedgerMetrics) IncPublished() {
	if m == nil || m.published == nil {
		return
	}
	m.published.Inc()
}

// IncDeadLettered increments the dead-letter counter.
func (m *LedgerMetrics) IncDeadLettered() {
	if m == nil || m.deadTotal == nil {
		return
	}
	m.deadTotal.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
