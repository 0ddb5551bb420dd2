package ledger

import "strings"

// feasibilityKeys are the client-claim keys stripped from every request
// summary. The server recomputes feasibility authoritatively; a claim sent
// by a client is never stored, hashed, or read for decision purposes.
var feasibilityKeys = map[string]bool{
	"feasibility":       true,
	"feasibility_claim": true,
	"risk_level":        true,
	"risk_grade":        true,
	"safety_score":      true,
}

// sensitiveKeySubstrings mark credential material that must never appear in
// a stored or hashed summary, at any nesting depth.
var sensitiveKeySubstrings = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"authorization",
}

// SanitizeSummary returns a deep copy of a request document with all
// client-supplied feasibility keys removed at the top level and all
// credential-bearing keys removed at every depth. Sanitization happens
// before hashing or persistence, never after.
func SanitizeSummary(req Document) Document {
	if req == nil {
		return Document{}
	}
	out := make(Document, len(req))
	for k, v := range req {
		if feasibilityKeys[strings.ToLower(k)] || isSensitiveKey(k) {
			continue
		}
		out[k] = scrubValue(v)
	}
	return out
}

func isSensitiveKey(k string) bool {
	lower := strings.ToLower(k)
	for _, sub := range sensitiveKeySubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// scrubValue walks nested objects and arrays, dropping sensitive keys.
// Feasibility keys are only meaningful at the top level and are left alone
// below it (a design parameter may legitimately be called "risk_grade"
// inside a nested advisory block).
func scrubValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isSensitiveKey(k) {
				continue
			}
			out[k] = scrubValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = scrubValue(inner)
		}
		return out
	default:
		return v
	}
}
