package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics exported by the audit server.
type Metrics struct {
	AuditsTotal     *prometheus.CounterVec
	AuditDuration   *prometheus.HistogramVec
	ViolationsFound prometheus.Counter
	FailedAudits    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector on its own registry, so tests can
// create servers without clashing on the global registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		AuditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagewarden_audits_total",
				Help: "Total number of audit requests",
			},
			[]string{"kind", "mode", "outcome"},
		),
		AuditDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagewarden_audit_duration_seconds",
				Help:    "Audit processing time in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),
		ViolationsFound: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pagewarden_violations_found_total",
				Help: "Total unique violations reported across audits",
			},
		),
		FailedAudits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pagewarden_failed_auditor_calls_total",
				Help: "Total failed auditor ensemble calls",
			},
		),
		registry: registry,
	}
}

// Registry exposes the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
