// Package metrics exposes the process-wide Prometheus endpoint.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds application-wide gauges that do not belong to one module.
type Metrics struct {
	BuildInfo       *prometheus.GaugeVec
	CollaboratorsUp *prometheus.GaugeVec
}

// New creates and registers the platform metrics on the default registry.
func New(version string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, version)
}

// NewWithRegistry registers the platform metrics on reg.
func NewWithRegistry(reg prometheus.Registerer, version string) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "casestatus_build_info",
			Help: "Build metadata; the value is always 1",
		}, []string{"version", "go_version"}),
		CollaboratorsUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "casestatus_collaborator_up",
			Help: "Whether a collaborator handle was opened successfully (1) or not (0)",
		}, []string{"collaborator"}),
	}
	m.BuildInfo.WithLabelValues(version, runtime.Version()).Set(1)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// SetCollaboratorUp records whether a lazily opened collaborator is usable.
func (m *Metrics) SetCollaboratorUp(name string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.CollaboratorsUp.WithLabelValues(name).Set(v)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves every gatherer, e.g. a service registry plus the default
// registry that package-level collectors register with.
func HandlerFor(gatherers ...prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers(gatherers), promhttp.HandlerOpts{})
}
