package promotion

import "fmt"

// LanePolicy is the per-lane promotion requirement: the worst fragility
// tolerated among clean runs and the minimum number of clean runs.
type LanePolicy struct {
	FragilityMax float64 `yaml:"fragility_max" json:"fragility_max"`
	MinCleanRuns int     `yaml:"min_clean_runs" json:"min_clean_runs"`
}

// Config contains the externally-supplied promotion policy thresholds.
// Nothing here is computed; it is configuration all the way down.
type Config struct {
	// UltraFragileThreshold marks a preset as unpromotable to any lane
	// once any historical run reaches it.
	// Default: 0.90
	UltraFragileThreshold float64 `yaml:"ultra_fragile_threshold"`

	// YellowCleanThreshold is the fragility ceiling under which a YELLOW
	// run still counts as clean.
	// Default: 0.50
	YellowCleanThreshold float64 `yaml:"yellow_clean_threshold"`

	// LookbackWindow bounds how many recent jobs per preset are examined.
	// Default: 200
	LookbackWindow int `yaml:"lookback_window"`

	// Lanes maps target lane names to their promotion requirements.
	Lanes map[string]LanePolicy `yaml:"lanes"`
}

// DefaultConfig returns the default promotion policy configuration.
func DefaultConfig() *Config {
	return &Config{
		UltraFragileThreshold: 0.90,
		YellowCleanThreshold:  0.50,
		LookbackWindow:        200,
		Lanes: map[string]LanePolicy{
			"safe":         {FragilityMax: 0.40, MinCleanRuns: 20},
			"tuned":        {FragilityMax: 0.60, MinCleanRuns: 10},
			"experimental": {FragilityMax: 0.80, MinCleanRuns: 3},
		},
	}
}

// Stats summarizes the historical evidence a decision was based on.
type Stats struct {
	TotalRuns             int     `json:"total_runs"`
	CleanRuns             int     `json:"clean_runs"`
	WorstFragilityOverall float64 `json:"worst_fragility_overall"`
	WorstFragilityClean   float64 `json:"worst_fragility_clean"`
}

// PromotionDecision is the engine's result for one preset/lane evaluation.
type PromotionDecision struct {
	PresetID   string `json:"preset_id"`
	TargetLane string `json:"target_lane"`
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	Stats      Stats  `json:"stats"`

	// RunID is the ledger record of this decision, set by Decide and
	// empty for dry-run evaluations.
	RunID string `json:"run_id,omitempty"`
}

// PolicyBlockedError is the structured boundary error for a promotion
// rejection, carrying the full decision and stats payload.
type PolicyBlockedError struct {
	Decision *PromotionDecision
}

// Error implements the error interface.
func (e *PolicyBlockedError) Error() string {
	return fmt.Sprintf("promotion blocked [preset=%s, lane=%s]: %s",
		e.Decision.PresetID, e.Decision.TargetLane, e.Decision.Reason)
}

// NewPolicyBlockedError creates a new PolicyBlockedError.
func NewPolicyBlockedError(d *PromotionDecision) *PolicyBlockedError {
	return &PolicyBlockedError{Decision: d}
}

// Err converts a blocked decision into a PolicyBlockedError, nil when
// allowed.
func (d *PromotionDecision) Err() error {
	if d.Allowed {
		return nil
	}
	return NewPolicyBlockedError(d)
}
