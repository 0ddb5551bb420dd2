package ledger

import (
	"testing"
)

// TestSanitizeSummary_StripsFeasibilityClaims verifies that every
// client-supplied feasibility key is removed from the top level.
func TestSanitizeSummary_StripsFeasibilityClaims(t *testing.T) {
	req := Document{
		"tool_id":           "router/compression-3mm",
		"feasibility":       map[string]any{"risk_level": "GREEN"},
		"feasibility_claim": "all good",
		"risk_level":        "GREEN",
		"risk_grade":        "GREEN",
		"safety_score":      0.99,
		"Feasibility":       "case variant",
	}

	out := SanitizeSummary(req)

	for _, key := range []string{"feasibility", "feasibility_claim", "risk_level", "risk_grade", "safety_score", "Feasibility"} {
		if _, ok := out[key]; ok {
			t.Errorf("Expected key %q to be stripped", key)
		}
	}
	if out["tool_id"] != "router/compression-3mm" {
		t.Errorf("Legitimate key was lost")
	}
}

// TestSanitizeSummary_StripsCredentialsAtDepth verifies credential keys are
// removed everywhere, not just at the top level.
func TestSanitizeSummary_StripsCredentialsAtDepth(t *testing.T) {
	req := Document{
		"api_key": "sk-123",
		"machine": map[string]any{
			"host":       "cnc-01",
			"auth_token": "abc",
			"nested": map[string]any{
				"Password": "hunter2",
			},
		},
		"jobs": []any{
			map[string]any{"name": "job-1", "client_secret": "xyz"},
		},
	}

	out := SanitizeSummary(req)

	if _, ok := out["api_key"]; ok {
		t.Errorf("Top-level credential not stripped")
	}
	machine := out["machine"].(map[string]any)
	if _, ok := machine["auth_token"]; ok {
		t.Errorf("Nested credential not stripped")
	}
	if machine["host"] != "cnc-01" {
		t.Errorf("Legitimate nested key was lost")
	}
	nested := machine["nested"].(map[string]any)
	if _, ok := nested["Password"]; ok {
		t.Errorf("Case-variant credential not stripped")
	}
	job := out["jobs"].([]any)[0].(map[string]any)
	if _, ok := job["client_secret"]; ok {
		t.Errorf("Credential inside array element not stripped")
	}
	if job["name"] != "job-1" {
		t.Errorf("Legitimate array element key was lost")
	}
}

// TestSanitizeSummary_FeasibilityKeysBelowTopLevelSurvive verifies that a
// nested parameter that merely shares a feasibility key name is kept.
func TestSanitizeSummary_FeasibilityKeysBelowTopLevelSurvive(t *testing.T) {
	req := Document{
		"advisory": map[string]any{
			"risk_grade": "from calibration report",
		},
	}

	out := SanitizeSummary(req)

	advisory := out["advisory"].(map[string]any)
	if advisory["risk_grade"] != "from calibration report" {
		t.Errorf("Nested non-credential key should survive sanitization")
	}
}

// TestSanitizeSummary_DoesNotMutateInput verifies sanitization copies.
func TestSanitizeSummary_DoesNotMutateInput(t *testing.T) {
	req := Document{
		"risk_level": "GREEN",
		"machine":    map[string]any{"api_key": "sk-123", "host": "cnc-01"},
	}

	_ = SanitizeSummary(req)

	if req["risk_level"] != "GREEN" {
		t.Errorf("Input document was mutated")
	}
	if req["machine"].(map[string]any)["api_key"] != "sk-123" {
		t.Errorf("Nested input document was mutated")
	}
}

func TestSanitizeSummary_Nil(t *testing.T) {
	out := SanitizeSummary(nil)
	if out == nil {
		t.Fatalf("Expected empty document, got nil")
	}
	if len(out) != 0 {
		t.Errorf("Expected empty document, got %d keys", len(out))
	}
}
