package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GateDecisions *prometheus.CounterVec
	GateLatency   prometheus.Histogram
}

func New() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casestatus_admin_gate_decisions_total",
			Help: "Admin access decisions by outcome and internal reason",
		}, []string{"outcome", "reason"}),
		GateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casestatus_admin_gate_duration_seconds",
			Help:    "Time to reach an admin access decision",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) ObserveDecision(outcome, reason string, durationSeconds float64) {
	m.GateDecisions.WithLabelValues(outcome, reason).Inc()
	m.GateLatency.Observe(durationSeconds)
}
