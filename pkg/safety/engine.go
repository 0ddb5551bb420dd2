// Package safety implements the supervised-override policy engine for
// risky actions: promoting a design to a production lane, running an
// experimental-lane job.
//
// This engine is distinct from, and subordinate to, the feasibility gate.
// It never overrides a RED/UNKNOWN feasibility block; it only adds
// supervision friction for actions that feasibility already permits. The
// two gates do not interact.
package safety

import (
	"fmt"
	"log/slog"
	"sync"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/telemetry/metrics"
)

// Fragility thresholds of the risk classification matrix.
const (
	highFragility   = 0.7
	mediumFragility = 0.6
)

// Config contains configuration for the safety engine.
type Config struct {
	// Mode is the supervision mode the engine starts in.
	// Default: unrestricted
	Mode Mode
}

// DefaultConfig returns the default safety engine configuration.
func DefaultConfig() *Config {
	return &Config{Mode: ModeUnrestricted}
}

// Engine evaluates actions against the mode-by-risk decision matrix and
// resolves override tokens.
type Engine struct {
	tokens  *TokenStore
	metrics *metrics.SafetyMetrics
	logger  *slog.Logger

	mu   sync.RWMutex
	mode Mode
}

// NewEngine creates a safety engine. metrics may be nil.
func NewEngine(config *Config, tokens *TokenStore, m *metrics.SafetyMetrics) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if !ValidModes[config.Mode] {
		return nil, fmt.Errorf("invalid safety mode: %q", config.Mode)
	}
	if tokens == nil {
		tokens = NewTokenStore(0)
	}
	return &Engine{
		tokens:  tokens,
		metrics: m,
		logger:  slog.Default().With("component", "safety"),
		mode:    config.Mode,
	}, nil
}

// Mode returns the current supervision mode.
func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// Reload switches the supervision mode explicitly. It is the only way the
// mode changes after construction.
func (e *Engine) Reload(config *Config) error {
	if config == nil || !ValidModes[config.Mode] {
		return fmt.Errorf("invalid safety mode: %q", config.Mode)
	}

	e.mu.Lock()
	previous := e.mode
	e.mode = config.Mode
	e.mu.Unlock()

	if previous != config.Mode {
		e.logger.Info("safety mode changed", "from", previous, "to", config.Mode)
	}
	return nil
}

// Tokens exposes the engine's token store so a supervising surface can
// issue tokens.
func (e *Engine) Tokens() *TokenStore {
	return e.tokens
}

// IssueToken creates an override token bound to an action name on behalf
// of a supervising actor.
func (e *Engine) IssueToken(action, createdBy string) *OverrideToken {
	token := e.tokens.Issue(action, createdBy)
	e.metrics.RecordTokenIssued()
	e.logger.Info("override token issued",
		"token_id", token.TokenID,
		"action", action,
		"created_by", createdBy,
		"expires_at", token.ExpiresAt,
	)
	return token
}

// Classify grades an action context.
//
//	HIGH:   experimental lane and (fragility >= 0.7 or grade RED)
//	MEDIUM: experimental lane otherwise, or tuned lane and
//	        (fragility >= 0.6 or grade YELLOW), or fragility >= 0.7
//	        in any lane
//	LOW:    otherwise
//
// Severe fragility never classifies LOW: a 0.75-fragility promote into the
// safe lane still needs supervision in apprentice mode.
func Classify(action *ActionContext) RiskClass {
	switch action.Lane {
	case LaneExperimental:
		if action.FragilityScore >= highFragility || action.RiskGrade == ledger.RiskRed {
			return RiskHigh
		}
		return RiskMedium
	case LaneTuned:
		if action.FragilityScore >= mediumFragility || action.RiskGrade == ledger.RiskYellow {
			return RiskMedium
		}
	}
	if action.FragilityScore >= highFragility {
		return RiskMedium
	}
	return RiskLow
}

// Decide evaluates one proposed action. tokenID is the override token the
// acting request supplied, or empty for none.
//
// When the matrix demands an override and a token was supplied, the token
// is validated and consumed atomically; a consumed, mismatched, expired,
// or unknown token returns the decision alongside a TokenInvalidError; it
// is never silently treated as "no token supplied".
func (e *Engine) Decide(action *ActionContext, tokenID string) (*Decision, error) {
	mode := e.Mode()
	risk := Classify(action)
	decision := &Decision{Mode: mode, Risk: risk}

	switch e.matrix(mode, risk) {
	case OutcomeAllow:
		decision.Outcome = OutcomeAllow
		decision.Reason = fmt.Sprintf("%s risk permitted in %s mode", risk, mode)
		if mode == ModeMentorReview && risk == RiskMedium {
			decision.Supervised = true
			e.logger.Info("supervised action allowed for mentor review",
				"action", action.Action,
				"lane", action.Lane,
				"fragility", action.FragilityScore,
				"risk_grade", action.RiskGrade,
			)
		}

	case OutcomeDeny:
		decision.Outcome = OutcomeDeny
		decision.Reason = fmt.Sprintf("%s risk is denied in %s mode", risk, mode)

	case OutcomeRequireOverride:
		if tokenID == "" {
			decision.Outcome = OutcomeRequireOverride
			decision.Reason = fmt.Sprintf("%s risk in %s mode requires a supervisor override", risk, mode)
			break
		}
		token, err := e.tokens.Consume(tokenID, action.Action)
		if err != nil {
			decision.Outcome = OutcomeRequireOverride
			decision.Reason = err.Error()
			e.recordTokenRejection(err)
			e.record(decision)
			return decision, err
		}
		e.metrics.RecordTokenConsumed()
		decision.Outcome = OutcomeAllow
		decision.OverrideTokenID = token.TokenID
		decision.Reason = fmt.Sprintf("override granted by %s", token.CreatedBy)
	}

	e.record(decision)
	return decision, nil
}

// matrix is the mode-by-risk decision table.
func (e *Engine) matrix(mode Mode, risk RiskClass) Outcome {
	switch mode {
	case ModeApprentice:
		switch risk {
		case RiskHigh:
			return OutcomeDeny
		case RiskMedium:
			return OutcomeRequireOverride
		}
	case ModeUnrestricted, ModeMentorReview:
		if risk == RiskHigh {
			return OutcomeRequireOverride
		}
	}
	return OutcomeAllow
}

func (e *Engine) record(d *Decision) {
	e.metrics.RecordDecision(string(d.Mode), string(d.Risk), string(d.Outcome))
}

func (e *Engine) recordTokenRejection(err error) {
	if invalid, ok := err.(*TokenInvalidError); ok {
		e.metrics.RecordTokenRejected(string(invalid.Reason))
	}
}
