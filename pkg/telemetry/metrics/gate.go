package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains naming configuration shared by all metric groups.
type Config struct {
	// Namespace is the metric namespace prefix.
	// Default: "vulcan"
	Namespace string

	// Subsystem is the metric subsystem prefix.
	Subsystem string
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{Namespace: "vulcan"}
}

// GateMetrics tracks feasibility gate activity.
//
// Metrics:
//   - vulcan_gate_decisions_total: decisions by status and risk level
//   - vulcan_gate_generation_duration_seconds: toolpath generation duration
//   - vulcan_gate_persist_failures_total: artifacts that could not be stored
type GateMetrics struct {
	decisionsTotal     *prometheus.CounterVec
	generationDuration prometheus.Histogram
	persistFailures    prometheus.Counter
}

// NewGateMetrics creates and registers gate metrics with the provided registry.
func NewGateMetrics(cfg *Config, registry *prometheus.Registry) *GateMetrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	gm := &GateMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_decisions_total",
				Help:      "Total feasibility gate decisions",
			},
			[]string{"status", "risk_level"},
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_generation_duration_seconds",
				Help:      "Duration of toolpath generation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
		),
		persistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_persist_failures_total",
				Help:      "Total decisions whose audit artifact could not be stored",
			},
		),
	}

	registry.MustRegister(gm.decisionsTotal, gm.generationDuration, gm.persistFailures)
	return gm
}

// RecordDecision counts one terminal gate decision.
func (m *GateMetrics) RecordDecision(status, riskLevel string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(status, riskLevel).Inc()
}

// RecordGeneration observes one toolpath generation duration.
func (m *GateMetrics) RecordGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(d.Seconds())
}

// RecordPersistFailure counts one decision that could not be persisted.
func (m *GateMetrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
