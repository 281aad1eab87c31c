package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockcart"

// Outcome labels shared by the collectors.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeDropped  = "dropped"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	CartOperations   *prometheus.CounterVec
	CartRetries      *prometheus.CounterVec
	LowStockChecks   *prometheus.CounterVec
	ReportsGenerated *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CartOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		CartRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "retries_total",
			Help:      "Cart transactions retried after a deadlock or key race.",
		}, []string{"operation"}),
		LowStockChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "low_stock_checks_total",
			Help:      "Low-stock checks by outcome.",
		}, []string{"outcome"}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "daily_reports_total",
			Help:      "Daily sales report runs by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.CartOperations, m.CartRetries, m.LowStockChecks, m.ReportsGenerated)
	return m
}

// NewNop returns collectors registered on a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
