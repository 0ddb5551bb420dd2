package safety

import "fmt"

// SafetyDeniedError is the hard refusal for a risky action in a mode with
// no override path (apprentice mode, HIGH risk). It carries the decision so
// the caller can explain precisely.
type SafetyDeniedError struct {
	Decision *Decision
}

// Error implements the error interface.
func (e *SafetyDeniedError) Error() string {
	return fmt.Sprintf("safety denied [mode=%s, risk=%s]: %s",
		e.Decision.Mode, e.Decision.Risk, e.Decision.Reason)
}

// NewSafetyDeniedError creates a new SafetyDeniedError.
func NewSafetyDeniedError(d *Decision) *SafetyDeniedError {
	return &SafetyDeniedError{Decision: d}
}

// OverrideRequiredError is the soft refusal resolvable by presenting a
// valid override token for the action.
type OverrideRequiredError struct {
	Decision *Decision
}

// Error implements the error interface.
func (e *OverrideRequiredError) Error() string {
	return fmt.Sprintf("override required [mode=%s, risk=%s]: %s",
		e.Decision.Mode, e.Decision.Risk, e.Decision.Reason)
}

// NewOverrideRequiredError creates a new OverrideRequiredError.
func NewOverrideRequiredError(d *Decision) *OverrideRequiredError {
	return &OverrideRequiredError{Decision: d}
}

// TokenInvalidReason distinguishes why an override token was rejected. A
// supplied-but-invalid token is never silently treated as no token at all.
type TokenInvalidReason string

const (
	TokenMissing        TokenInvalidReason = "missing"
	TokenConsumed       TokenInvalidReason = "consumed"
	TokenExpired        TokenInvalidReason = "expired"
	TokenActionMismatch TokenInvalidReason = "action_mismatch"
)

// TokenInvalidError reports an override token that could not be consumed.
type TokenInvalidError struct {
	TokenID string
	Reason  TokenInvalidReason
}

// Error implements the error interface.
func (e *TokenInvalidError) Error() string {
	return fmt.Sprintf("override token invalid [token_id=%s, reason=%s]", e.TokenID, e.Reason)
}

// NewTokenInvalidError creates a new TokenInvalidError.
func NewTokenInvalidError(tokenID string, reason TokenInvalidReason) *TokenInvalidError {
	return &TokenInvalidError{TokenID: tokenID, Reason: reason}
}
