package safety

import (
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
)

// Mode is the process-wide supervision mode. It is injected through
// configuration and changed only through the engine's explicit Reload.
type Mode string

const (
	// ModeUnrestricted trusts the operator; only HIGH risk actions need a
	// supervisor's override token.
	ModeUnrestricted Mode = "unrestricted"

	// ModeApprentice denies HIGH risk actions outright and requires an
	// override for MEDIUM ones.
	ModeApprentice Mode = "apprentice"

	// ModeMentorReview requires an override for HIGH risk actions and
	// allows MEDIUM ones with a supervised log entry.
	ModeMentorReview Mode = "mentor_review"
)

// ValidModes contains the recognized supervision modes.
var ValidModes = map[Mode]bool{
	ModeUnrestricted: true,
	ModeApprentice:   true,
	ModeMentorReview: true,
}

// RiskClass is the classification of a proposed action, distinct from the
// feasibility gate's risk level: it grades the action (promote, run), not
// the design.
type RiskClass string

const (
	RiskHigh   RiskClass = "HIGH"
	RiskMedium RiskClass = "MEDIUM"
	RiskLow    RiskClass = "LOW"
)

// Lane names the deployment tiers referenced by the risk classification.
const (
	LaneSafe         = "safe"
	LaneTuned        = "tuned"
	LaneExperimental = "experimental"
)

// ActionContext describes the action being attempted.
type ActionContext struct {
	// Action is the action name an override token must be bound to,
	// e.g. "promote_preset" or "run_experimental_job".
	Action string `json:"action"`

	// Lane is the deployment tier the action targets.
	Lane string `json:"lane"`

	// FragilityScore estimates material/cut failure likelihood in [0,1].
	FragilityScore float64 `json:"fragility_score"`

	// RiskGrade is the feasibility risk grade of the underlying design.
	RiskGrade ledger.RiskLevel `json:"risk_grade"`
}

// Outcome is the engine's decision for an action.
type Outcome string

const (
	// OutcomeAllow permits the action.
	OutcomeAllow Outcome = "allow"

	// OutcomeDeny refuses the action with no override path in the
	// current mode.
	OutcomeDeny Outcome = "deny"

	// OutcomeRequireOverride refuses the action until a valid override
	// token for it is presented.
	OutcomeRequireOverride Outcome = "require_override"
)

// Decision is the engine's explicit result for one action evaluation.
type Decision struct {
	Mode    Mode      `json:"mode"`
	Risk    RiskClass `json:"risk"`
	Outcome Outcome   `json:"outcome"`
	Reason  string    `json:"reason"`

	// Supervised marks an allow that the mentor_review mode logs for
	// later review.
	Supervised bool `json:"supervised,omitempty"`

	// OverrideTokenID is set when the allow was granted by consuming an
	// override token.
	OverrideTokenID string `json:"override_token_id,omitempty"`
}

// Err converts a non-allow decision into its structured boundary error:
// SafetyDeniedError for deny, OverrideRequiredError for require_override,
// nil for allow.
func (d *Decision) Err() error {
	switch d.Outcome {
	case OutcomeDeny:
		return NewSafetyDeniedError(d)
	case OutcomeRequireOverride:
		return NewOverrideRequiredError(d)
	default:
		return nil
	}
}

// OverrideToken is a single-use credential permitting one supervised risky
// action. Consumed transitions false to true exactly once and never
// reverses.
type OverrideToken struct {
	TokenID   string    `json:"token_id"`
	Action    string    `json:"action"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}
