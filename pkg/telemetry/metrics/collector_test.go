package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollector_RegistersAndServes(t *testing.T) {
	c := NewCollector(nil)

	c.Gate.RecordDecision("BLOCKED", "RED")
	c.Gate.RecordGeneration(120 * time.Millisecond)
	c.Gate.RecordPersistFailure()
	c.Safety.RecordDecision("apprentice", "HIGH", "deny")
	c.Safety.RecordTokenIssued()
	c.Safety.RecordTokenRejected("expired")
	c.Promotion.RecordEvaluation("tuned", false)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, metric := range []string{
		"vulcan_gate_decisions_total",
		"vulcan_gate_generation_duration_seconds",
		"vulcan_gate_persist_failures_total",
		"vulcan_safety_decisions_total",
		"vulcan_safety_tokens_issued_total",
		"vulcan_safety_tokens_rejected_total",
		"vulcan_promotion_evaluations_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("Metric %s missing from exposition", metric)
		}
	}
	if !strings.Contains(body, `status="BLOCKED"`) || !strings.Contains(body, `risk_level="RED"`) {
		t.Errorf("Decision labels missing")
	}
}

// TestNilMetricsAreSafe verifies every record method tolerates a nil
// receiver so engines can run without a collector.
func TestNilMetricsAreSafe(t *testing.T) {
	var gm *GateMetrics
	gm.RecordDecision("OK", "GREEN")
	gm.RecordGeneration(time.Second)
	gm.RecordPersistFailure()

	var sm *SafetyMetrics
	sm.RecordDecision("unrestricted", "LOW", "allow")
	sm.RecordTokenIssued()
	sm.RecordTokenConsumed()
	sm.RecordTokenRejected("missing")

	var pm *PromotionMetrics
	pm.RecordEvaluation("safe", true)
}
