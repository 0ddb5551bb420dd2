package gate

import (
	"context"

	"tonewood-hq/vulcan/pkg/ledger"
)

// DesignRequest is one inbound request to manufacture a design. Design is
// the raw client payload; it may carry a feasibility claim, which the gate
// discards before anything is stored, hashed, or decided on.
type DesignRequest struct {
	ToolID   string          `json:"tool_id"`
	Mode     string          `json:"mode"`
	PresetID string          `json:"preset_id,omitempty"`
	Design   ledger.Document `json:"design"`
}

// Evaluation is the authoritative feasibility result computed by the
// external feasibility engine.
type Evaluation struct {
	RiskLevel ledger.RiskLevel `json:"risk_level"`
	Score     *float64         `json:"score,omitempty"`
	Fragility *float64         `json:"fragility,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Details   ledger.Document  `json:"details,omitempty"`
}

// FeasibilityEngine recomputes safety feasibility for a design. It must be
// deterministic for identical inputs against a fixed catalog version. The
// scoring algorithm itself is outside this package; the gate only consumes
// its output.
type FeasibilityEngine interface {
	Evaluate(ctx context.Context, toolID string, design ledger.Document) (*Evaluation, error)
}

// GenerationResult is what the toolpath generator produces for an approved
// request. Small payloads come back inline; large ones by path reference.
type GenerationResult struct {
	Toolpaths     ledger.Document `json:"toolpaths,omitempty"`
	ToolpathsPath string          `json:"toolpaths_path,omitempty"`
	GCodeText     string          `json:"gcode_text,omitempty"`
	GCodePath     string          `json:"gcode_path,omitempty"`
	OpPlan        ledger.Document `json:"opplan,omitempty"`
	OpPlanPath    string          `json:"opplan_path,omitempty"`
	PreviewPath   string          `json:"preview_path,omitempty"`
}

// ToolpathGenerator produces toolpaths and G-code for a request the gate
// has allowed. It is invoked only after the feasibility decision.
type ToolpathGenerator interface {
	Generate(ctx context.Context, req *DesignRequest, eval *Evaluation) (*GenerationResult, error)
}

// OutcomeKind tags the gate's tripartite result.
type OutcomeKind string

const (
	// OutcomeAllowed means feasibility permitted the request and
	// generation succeeded.
	OutcomeAllowed OutcomeKind = "allowed"

	// OutcomeBlocked means feasibility refused the request. There is no
	// override path for this outcome.
	OutcomeBlocked OutcomeKind = "blocked"

	// OutcomeErrored means generation was attempted and failed.
	OutcomeErrored OutcomeKind = "errored"
)

// Outcome is the gate's explicit tagged result at the core boundary.
// Whatever the kind, Artifact is the persisted audit record for the
// attempt; "why was I blocked" is always answerable from its run id.
// HTTP or CLI status translation belongs to a thin adapter outside this
// package.
type Outcome struct {
	Kind     OutcomeKind
	Artifact *ledger.RunArtifact

	// PersistErr is non-nil when the decision was reached but the store
	// could not record it. The decision in Artifact is still valid and
	// reportable; the failure has been logged prominently.
	PersistErr error
}

// Allowed reports whether the request may proceed.
func (o *Outcome) Allowed() bool {
	return o.Kind == OutcomeAllowed
}

// Err converts a non-allowed outcome into its structured boundary error:
// FeasibilityBlockedError for blocks, GenerationError for generation
// failures, nil for allowed outcomes.
func (o *Outcome) Err() error {
	switch o.Kind {
	case OutcomeBlocked:
		return NewFeasibilityBlockedError(o.Artifact.RunID, o.Artifact.Decision)
	case OutcomeErrored:
		return NewGenerationError(o.Artifact.RunID, o.Artifact.Decision)
	default:
		return nil
	}
}
