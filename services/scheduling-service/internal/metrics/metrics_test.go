package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("schedule", "ok")
	m.ObserveOperation("schedule", "ok")
	m.ObserveRejection("schedule", "")
	m.ObserveRefund("failed")

	if got := testutil.ToFloat64(m.operations.WithLabelValues("schedule", "ok")); got != 2 {
		t.Fatalf("operations: got %v", got)
	}
	if got := testutil.ToFloat64(m.rejections.WithLabelValues("schedule", "unknown")); got != 1 {
		t.Fatalf("rejections: got %v", got)
	}
	if got := testutil.ToFloat64(m.refunds.WithLabelValues("failed")); got != 1 {
		t.Fatalf("refunds: got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("confirm", "ok")
	m.ObserveHookFailure("email")
	m.ObserveSlotQuery()
}
