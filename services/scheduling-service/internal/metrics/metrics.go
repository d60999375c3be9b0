package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for appointment lifecycle flows.
type Metrics struct {
	operations  *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	refunds     *prometheus.CounterVec
	payments    *prometheus.CounterVec
	hookErrors  *prometheus.CounterVec
	slotQueries prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operations_total",
			Help:      "Lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "rejections_total",
			Help:      "Requests rejected by a scheduling rule",
		}, []string{"operation", "reason"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "refunds_total",
			Help:      "Refund attempts on cancellation",
		}, []string{"status"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "payments_total",
			Help:      "Payment captures at booking time",
		}, []string{"status"}),
		hookErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "hook_failures_total",
			Help:      "Post-commit hook failures",
		}, []string{"hook"}),
		slotQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "slot_queries_total",
			Help:      "Open slot lookups",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operations, m.rejections, m.refunds, m.payments, m.hookErrors, m.slotQueries)
	return m
}

func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveRejection(operation, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejections.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) ObserveRefund(status string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(status).Inc()
}

func (m *Metrics) ObservePayment(status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHookFailure(hook string) {
	if m == nil {
		return
	}
	m.hookErrors.WithLabelValues(hook).Inc()
}

func (m *Metrics) ObserveSlotQuery() {
	if m == nil {
		return
	}
	m.slotQueries.Inc()
}
