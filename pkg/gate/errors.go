package gate

import (
	"fmt"

	"tonewood-hq/vulcan/pkg/ledger"
)

// FeasibilityBlockedError is the hard, non-overridable block raised at the
// core boundary when server-recomputed risk is RED or UNKNOWN. It carries
// the full decision payload so the caller can render a precise explanation
// rather than a generic failure message.
type FeasibilityBlockedError struct {
	RunID    string
	Decision ledger.Decision
}

// Error implements the error interface.
func (e *FeasibilityBlockedError) Error() string {
	return fmt.Sprintf("feasibility blocked [run_id=%s, risk=%s]: %s",
		e.RunID, e.Decision.RiskLevel, e.Decision.BlockReason)
}

// NewFeasibilityBlockedError creates a new FeasibilityBlockedError.
func NewFeasibilityBlockedError(runID string, decision ledger.Decision) *FeasibilityBlockedError {
	return &FeasibilityBlockedError{RunID: runID, Decision: decision}
}

// GenerationError is raised at the core boundary when toolpath generation
// failed after feasibility permitted the request. The persisted artifact
// carries the structured exception detail.
type GenerationError struct {
	RunID    string
	Decision ledger.Decision
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("toolpath generation failed [run_id=%s]", e.RunID)
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(runID string, decision ledger.Decision) *GenerationError {
	return &GenerationError{RunID: runID, Decision: decision}
}
