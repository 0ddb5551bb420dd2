package metrics

import "github.com/prometheus/client_golang/prometheus"

// SafetyMetrics tracks safety mode policy engine activity.
//
// Metrics:
//   - vulcan_safety_decisions_total: decisions by mode, risk class, and outcome
//   - vulcan_safety_tokens_issued_total: override tokens issued
//   - vulcan_safety_tokens_consumed_total: override tokens consumed
//   - vulcan_safety_tokens_rejected_total: token consumption failures by reason
type SafetyMetrics struct {
	decisionsTotal *prometheus.CounterVec
	tokensIssued   prometheus.Counter
	tokensConsumed prometheus.Counter
	tokensRejected *prometheus.CounterVec
}

// NewSafetyMetrics creates and registers safety metrics with the provided registry.
func NewSafetyMetrics(cfg *Config, registry *prometheus.Registry) *SafetyMetrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	sm := &SafetyMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "safety_decisions_total",
				Help:      "Total safety mode decisions",
			},
			[]string{"mode", "risk", "outcome"},
		),
		tokensIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "safety_tokens_issued_total",
				Help:      "Total override tokens issued",
			},
		),
		tokensConsumed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "safety_tokens_consumed_total",
				Help:      "Total override tokens consumed",
			},
		),
		tokensRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "safety_tokens_rejected_total",
				Help:      "Total override token consumption failures",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(sm.decisionsTotal, sm.tokensIssued, sm.tokensConsumed, sm.tokensRejected)
	return sm
}

// RecordDecision counts one safety mode decision.
func (m *SafetyMetrics) RecordDecision(mode, risk, outcome string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(mode, risk, outcome).Inc()
}

// RecordTokenIssued counts one issued override token.
func (m *SafetyMetrics) RecordTokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

// RecordTokenConsumed counts one consumed override token.
func (m *SafetyMetrics) RecordTokenConsumed() {
	if m == nil {
		return
	}
	m.tokensConsumed.Inc()
}

// RecordTokenRejected counts one token consumption failure.
func (m *SafetyMetrics) RecordTokenRejected(reason string) {
	if m == nil {
		return
	}
	m.tokensRejected.WithLabelValues(reason).Inc()
}

// PromotionMetrics tracks promotion policy engine activity.
//
// Metrics:
//   - vulcan_promotion_evaluations_total: evaluations by target lane and result
type PromotionMetrics struct {
	evaluationsTotal *prometheus.CounterVec
}

// NewPromotionMetrics creates and registers promotion metrics with the provided registry.
func NewPromotionMetrics(cfg *Config, registry *prometheus.Registry) *PromotionMetrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pm := &PromotionMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "promotion_evaluations_total",
				Help:      "Total promotion policy evaluations",
			},
			[]string{"lane", "result"},
		),
	}

	registry.MustRegister(pm.evaluationsTotal)
	return pm
}

// RecordEvaluation counts one promotion evaluation.
func (m *PromotionMetrics) RecordEvaluation(lane string, allowed bool) {
	if m == nil {
		return
	}
	result := "blocked"
	if allowed {
		result = "allowed"
	}
	m.evaluationsTotal.WithLabelValues(lane, result).Inc()
}
