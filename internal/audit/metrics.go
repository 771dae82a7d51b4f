package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit publisher.
type Metrics struct {
	QueueDepth      prometheus.Gauge
	EventsDropped   prometheus.Counter
	EventsPersisted prometheus.Counter
	PersistFailures prometheus.Counter
	ForwardFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "casestatus_audit_queue_depth",
			Help: "Current number of events in the audit publisher queue",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_audit_events_dropped_total",
			Help: "Total number of audit events dropped due to full buffer",
		}),
		EventsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_audit_events_persisted_total",
			Help: "Total number of audit events written to the store",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_audit_persist_failures_total",
			Help: "Total number of audit event persistence failures",
		}),
		ForwardFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_audit_forward_failures_total",
			Help: "Total number of audit events that could not be handed to the event stream",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casestatus_audit_persist_duration_seconds",
			Help:    "Time taken to persist an audit event to the store",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
