package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DecisionsTotal *prometheus.CounterVec
	ErrorsTotal    prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casestatus_ratelimit_decisions_total",
			Help: "Rate limit decisions by scope and outcome (allowed, limited)",
		}, []string{"scope", "outcome"}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_ratelimit_errors_total",
			Help: "Rate limit checks that failed and let the request through",
		}),
	}
}

func (m *Metrics) RecordDecision(scope string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.DecisionsTotal.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) RecordError() {
	m.ErrorsTotal.Inc()
}
