package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the executor's prometheus collectors.
type Metrics struct {
	Transactions       *prometheus.CounterVec
	Duration           prometheus.Histogram
	SavepointsDisabled prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil. Unregistered metrics still count, which keeps tests independent
// of the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plandb",
			Name:      "transactions_total",
			Help:      "Units of work executed, by final outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plandb",
			Name:      "transaction_duration_seconds",
			Help:      "Time from connection acquisition to release.",
			Buckets:   prometheus.DefBuckets,
		}),
		SavepointsDisabled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plandb",
			Name:      "savepoints_disabled_total",
			Help:      "Times the savepoint capability was withdrawn at runtime.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Duration, m.SavepointsDisabled)
	}
	return m
}

func (m *Metrics) observe(s State) {
	var outcome string
	switch s {
	case StateCommitted:
		outcome = "committed"
	case StateSkipped:
		outcome = "skipped"
	default:
		outcome = "failed"
	}
	m.Transactions.WithLabelValues(outcome).Inc()
}
