// Package promotion implements historical-evidence gating for moving a
// preset into a production lane. A preset earns its way into a lane by
// accumulating clean runs; one ultra-fragile run anywhere in its history
// bars promotion to every lane unconditionally.
//
// The engine reads history exclusively through the ledger store's listing
// interface, never by touching artifact files directly.
package promotion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/query"
	"tonewood-hq/vulcan/pkg/telemetry/metrics"
)

// Engine evaluates promotion requests against a preset's run history.
type Engine struct {
	store   ledger.Store
	config  *Config
	metrics *metrics.PromotionMetrics
	logger  *slog.Logger
}

// NewEngine creates a promotion engine. metrics may be nil.
func NewEngine(store ledger.Store, config *Config, m *metrics.PromotionMetrics) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		store:   store,
		config:  config,
		metrics: m,
		logger:  slog.Default().With("component", "promotion"),
	}
}

// Evaluate is the dry-run query: it performs the full evaluation without
// mutating any state. Decide performs the identical evaluation and
// additionally records the decision in the ledger.
func (e *Engine) Evaluate(ctx context.Context, presetID, targetLane string) (*PromotionDecision, error) {
	lane, ok := e.config.Lanes[targetLane]
	if !ok {
		return nil, ledger.NewValidationError("target_lane", fmt.Sprintf("unknown lane %q", targetLane))
	}

	stats, err := e.collectStats(ctx, presetID)
	if err != nil {
		return nil, err
	}

	decision := &PromotionDecision{
		PresetID:   presetID,
		TargetLane: targetLane,
		Stats:      *stats,
	}

	switch {
	case stats.WorstFragilityOverall >= e.config.UltraFragileThreshold:
		decision.Reason = fmt.Sprintf(
			"worst historical fragility %.2f reaches the ultra-fragile threshold %.2f; promotion to any lane is barred",
			stats.WorstFragilityOverall, e.config.UltraFragileThreshold)

	case stats.CleanRuns < lane.MinCleanRuns:
		decision.Reason = fmt.Sprintf(
			"%d clean runs, lane %q requires at least %d",
			stats.CleanRuns, targetLane, lane.MinCleanRuns)

	case stats.WorstFragilityClean > lane.FragilityMax:
		decision.Reason = fmt.Sprintf(
			"worst clean-run fragility %.2f exceeds lane %q cap %.2f",
			stats.WorstFragilityClean, targetLane, lane.FragilityMax)

	default:
		decision.Allowed = true
		decision.Reason = fmt.Sprintf(
			"%d clean runs with worst clean fragility %.2f satisfy lane %q policy",
			stats.CleanRuns, stats.WorstFragilityClean, targetLane)
	}

	e.metrics.RecordEvaluation(targetLane, decision.Allowed)
	return decision, nil
}

// Decide evaluates and records the decision as a ledger artifact so a
// promotion rejection is as auditable as a manufacturing block.
func (e *Engine) Decide(ctx context.Context, presetID, targetLane string) (*PromotionDecision, error) {
	decision, err := e.Evaluate(ctx, presetID, targetLane)
	if err != nil {
		return nil, err
	}

	artifact := e.decisionArtifact(decision)
	if err := e.store.Put(ctx, artifact); err != nil {
		// The decision stands; the missing audit record is the incident.
		e.logger.Error("DECISION NOT PERSISTED: promotion artifact could not be stored",
			"run_id", artifact.RunID,
			"preset_id", presetID,
			"target_lane", targetLane,
			"error", err,
		)
	}
	decision.RunID = artifact.RunID

	e.logger.Info("promotion decision",
		"run_id", artifact.RunID,
		"preset_id", presetID,
		"target_lane", targetLane,
		"allowed", decision.Allowed,
		"clean_runs", decision.Stats.CleanRuns,
		"worst_fragility_overall", decision.Stats.WorstFragilityOverall,
	)
	return decision, nil
}

// collectStats walks the preset's recent history, newest first, through
// the listing interface, stopping at the lookback window.
func (e *Engine) collectStats(ctx context.Context, presetID string) (*Stats, error) {
	stats := &Stats{}
	cursor := ""

	for stats.TotalRuns < e.config.LookbackWindow {
		q := &ledger.Query{
			PresetID: presetID,
			Limit:    e.config.LookbackWindow - stats.TotalRuns,
			Cursor:   cursor,
		}
		query.ApplyDefaults(q)

		page, err := e.store.List(ctx, q)
		if err != nil {
			return nil, err
		}

		for _, run := range page.Items {
			e.accumulate(stats, run)
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return stats, nil
}

// accumulate folds one historical run into the stats.
func (e *Engine) accumulate(stats *Stats, run *ledger.RunArtifact) {
	fragility := 0.0
	if run.Decision.Fragility != nil {
		fragility = *run.Decision.Fragility
	}

	stats.TotalRuns++
	if fragility > stats.WorstFragilityOverall {
		stats.WorstFragilityOverall = fragility
	}

	if e.isClean(run.Decision.RiskLevel, fragility) {
		stats.CleanRuns++
		if fragility > stats.WorstFragilityClean {
			stats.WorstFragilityClean = fragility
		}
	}
}

// isClean applies the clean-run rule: GREEN, or YELLOW under the
// yellow-clean threshold, and never at or above the ultra-fragile
// threshold, whatever the grade.
func (e *Engine) isClean(grade ledger.RiskLevel, fragility float64) bool {
	if fragility >= e.config.UltraFragileThreshold {
		return false
	}
	switch grade {
	case ledger.RiskGreen:
		return true
	case ledger.RiskYellow:
		return fragility <= e.config.YellowCleanThreshold
	default:
		return false
	}
}

// decisionArtifact renders a promotion decision as a run artifact. The
// evaluation payload stands in feasibility position and is hashed the same
// way a gate evaluation would be.
func (e *Engine) decisionArtifact(decision *PromotionDecision) *ledger.RunArtifact {
	now := time.Now().UTC()
	riskLevel := ledger.RiskGreen
	status := ledger.StatusOK
	blockReason := ""
	if !decision.Allowed {
		riskLevel = ledger.RiskRed
		status = ledger.StatusBlocked
		blockReason = decision.Reason
	}

	worst := decision.Stats.WorstFragilityOverall
	evaluation := ledger.Document{
		"target_lane":             decision.TargetLane,
		"allowed":                 decision.Allowed,
		"reason":                  decision.Reason,
		"total_runs":              decision.Stats.TotalRuns,
		"clean_runs":              decision.Stats.CleanRuns,
		"worst_fragility_overall": decision.Stats.WorstFragilityOverall,
		"worst_fragility_clean":   decision.Stats.WorstFragilityClean,
	}

	// PresetID is deliberately left empty so the decision record never
	// re-enters the preset's own run history on the next evaluation; the
	// preset is carried in the request summary instead.
	artifact := &ledger.RunArtifact{
		RunID:        ledger.NewRunID(now),
		CreatedAtUTC: now,
		Mode:         "promotion",
		ToolID:       "policy/promotion",
		Status:       status,
		RequestSummary: ledger.Document{
			"preset_id":   decision.PresetID,
			"target_lane": decision.TargetLane,
		},
		Feasibility: evaluation,
		Decision: ledger.Decision{
			RiskLevel:   riskLevel,
			Fragility:   &worst,
			BlockReason: blockReason,
			Details:     evaluation,
		},
	}
	if digest, err := ledger.HashJSON(evaluation); err == nil {
		artifact.Hashes.FeasibilitySHA256 = digest
	}
	return artifact
}
