// Package metrics provides Prometheus metrics for case lookups and the case cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Lookups by public outcome (found, not_found) and internal reason.
	LookupsTotal   *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheErrorsTotal *prometheus.CounterVec // by operation: get, set, delete, decode
	CoalescedTotal   prometheus.Counter     // lookups that joined an in-flight identical lookup
	BypassedTotal    prometheus.Counter     // cache calls skipped while the breaker is open
}

func New() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casestatus_case_lookups_total",
			Help: "Case lookups by outcome and internal reason",
		}, []string{"outcome", "reason"}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casestatus_case_lookup_duration_seconds",
			Help:    "Duration of case lookups by outcome",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"outcome"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_case_cache_hits_total",
			Help: "Total number of case cache hits",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_case_cache_misses_total",
			Help: "Total number of case cache misses",
		}),
		CacheErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casestatus_case_cache_errors_total",
			Help: "Case cache failures by operation; lookups fall back to the store",
		}, []string{"op"}),
		CoalescedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_case_lookups_coalesced_total",
			Help: "Lookups served by joining an identical in-flight store query",
		}),
		BypassedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "casestatus_case_cache_bypassed_total",
			Help: "Cache calls skipped because repeated failures opened the breaker",
		}),
	}
}

func (m *Metrics) ObserveLookup(outcome, reason string, durationSeconds float64) {
	m.LookupsTotal.WithLabelValues(outcome, reason).Inc()
	m.LookupDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordCacheError(op string) {
	m.CacheErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordCoalesced() {
	m.CoalescedTotal.Inc()
}

func (m *Metrics) RecordCacheBypassed() {
	m.BypassedTotal.Inc()
}
