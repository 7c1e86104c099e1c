package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLedgerMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.IncOutcome("register", "ok")
	m.IncOutcome("register", "ok")
	m.IncOutcome("register", "rejected")
	m.ObserveOperation("register", 15*time.Millisecond)
	m.IncPublished()
	m.IncDeadLettered()

	if got := testutil.ToFloat64(m.opOutcome.WithLabelValues("register", "ok")); got != 2 {
		t.Fatalf("expected 2 ok outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.published); got != 1 {
		t.Fatalf("expected 1 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.deadTotal); got != 1 {
		t.Fatalf("expected 1 dead lettered, got %v", got)
	}
}

func TestLedgerMetricsNoopWithoutRegisterer(t *testing.T) {
	var m *LedgerMetrics
	m.IncOutcome("register", "ok")
	m.ObserveOperation("register", time.Millisecond)

	m = NewLedgerMetrics(nil)
	m.IncPublished()
	m.IncDeadLettered()
	m.IncOutcome("", "")
}
