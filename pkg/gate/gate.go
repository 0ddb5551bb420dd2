// Package gate implements the feasibility gate: the non-bypassable safety
// decision point in front of toolpath generation.
//
// The gate never trusts a client-supplied feasibility claim. Every request
// is stripped of its claim, re-evaluated against the authoritative
// feasibility engine, and decided server-side. RED and UNKNOWN risk block
// unconditionally; there is no override path at this layer. Supervised
// overrides exist only in the safety mode engine, which governs a
// different class of actions and is subordinate to this gate.
//
// Every single request reaches a terminal outcome with exactly one
// persisted run artifact: OK when generation succeeded, BLOCKED when
// feasibility refused, ERROR when generation failed. There is no code
// path that returns without writing (or at least attempting and
// prominently logging) the audit record.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/telemetry/metrics"
)

// Config contains configuration for the feasibility gate.
type Config struct {
	// InlineGCodeMax is the largest G-code payload kept inline in the
	// artifact; longer text must come back from the generator by path.
	// Default: 64 KiB
	InlineGCodeMax int
}

// DefaultConfig returns the default gate configuration.
func DefaultConfig() *Config {
	return &Config{
		InlineGCodeMax: 64 * 1024,
	}
}

// Gate recomputes feasibility authoritatively, enforces the hard risk
// block, and writes the audit artifact for every decision attempt.
type Gate struct {
	store     ledger.Store
	engine    FeasibilityEngine
	generator ToolpathGenerator
	config    *Config
	metrics   *metrics.GateMetrics
	logger    *slog.Logger
}

// New creates a feasibility gate. metrics may be nil.
func New(store ledger.Store, engine FeasibilityEngine, generator ToolpathGenerator, config *Config, m *metrics.GateMetrics) *Gate {
	if config == nil {
		config = DefaultConfig()
	}
	return &Gate{
		store:     store,
		engine:    engine,
		generator: generator,
		config:    config,
		metrics:   m,
		logger:    slog.Default().With("component", "gate"),
	}
}

// Evaluate runs one request straight through: discard the client claim,
// recompute feasibility, decide, persist, respond. The returned outcome
// always carries the artifact that was persisted (or that persistence was
// attempted for).
func (g *Gate) Evaluate(ctx context.Context, req *DesignRequest) *Outcome {
	now := time.Now().UTC()
	artifact := &ledger.RunArtifact{
		RunID:          ledger.NewRunID(now),
		CreatedAtUTC:   now,
		Mode:           req.Mode,
		ToolID:         req.ToolID,
		PresetID:       req.PresetID,
		RequestSummary: ledger.SanitizeSummary(req.Design),
	}

	eval := g.recompute(ctx, req)
	artifact.Feasibility = feasibilityDocument(eval)
	artifact.Decision = ledger.Decision{
		RiskLevel: eval.RiskLevel,
		Score:     eval.Score,
		Fragility: eval.Fragility,
		Warnings:  eval.Warnings,
		Details:   eval.Details,
	}
	g.hashFeasibility(artifact)

	if eval.RiskLevel == ledger.RiskRed || eval.RiskLevel == ledger.RiskUnknown {
		artifact.Status = ledger.StatusBlocked
		artifact.Decision.BlockReason = fmt.Sprintf("feasibility risk %s does not permit manufacturing", eval.RiskLevel)
		return g.finish(ctx, OutcomeBlocked, artifact)
	}

	start := time.Now()
	result, err := g.generator.Generate(ctx, req, eval)
	g.metrics.RecordGeneration(time.Since(start))
	if err != nil {
		artifact.Status = ledger.StatusError
		attachGenerationFailure(artifact, err)
		return g.finish(ctx, OutcomeErrored, artifact)
	}

	artifact.Status = ledger.StatusOK
	g.attachOutputs(artifact, result)
	return g.finish(ctx, OutcomeAllowed, artifact)
}

// recompute calls the feasibility engine. The client's claim is never read;
// an engine failure is an indeterminate evaluation and maps to UNKNOWN,
// which the caller blocks on.
func (g *Gate) recompute(ctx context.Context, req *DesignRequest) *Evaluation {
	eval, err := g.engine.Evaluate(ctx, req.ToolID, req.Design)
	if err != nil {
		g.logger.Warn("feasibility evaluation failed",
			"tool_id", req.ToolID,
			"error", err,
		)
		return &Evaluation{
			RiskLevel: ledger.RiskUnknown,
			Details:   ledger.Document{"evaluation_error": err.Error()},
		}
	}
	if eval.RiskLevel == "" {
		eval.RiskLevel = ledger.RiskUnknown
	}
	return eval
}

// finish persists the artifact and builds the outcome. A storage failure
// must not swallow the decision: it is logged prominently, counted, and
// surfaced on the outcome, and the decision itself is still returned.
func (g *Gate) finish(ctx context.Context, kind OutcomeKind, artifact *ledger.RunArtifact) *Outcome {
	outcome := &Outcome{Kind: kind, Artifact: artifact}

	if err := g.store.Put(ctx, artifact); err != nil {
		outcome.PersistErr = err
		g.metrics.RecordPersistFailure()
		g.logger.Error("DECISION NOT PERSISTED: audit artifact could not be stored",
			"run_id", artifact.RunID,
			"status", artifact.Status,
			"risk_level", artifact.Decision.RiskLevel,
			"error", err,
		)
	}

	g.metrics.RecordDecision(string(artifact.Status), string(artifact.Decision.RiskLevel))
	g.logger.Info("gate decision",
		"run_id", artifact.RunID,
		"status", artifact.Status,
		"risk_level", artifact.Decision.RiskLevel,
		"tool_id", artifact.ToolID,
		"mode", artifact.Mode,
	)
	return outcome
}

// hashFeasibility digests the feasibility document that is actually being
// persisted. Hashing failure leaves an empty digest and is logged; it does
// not abort the decision.
func (g *Gate) hashFeasibility(artifact *ledger.RunArtifact) {
	digest, err := ledger.HashJSON(artifact.Feasibility)
	if err != nil {
		g.logger.Error("feasibility hash failed", "run_id", artifact.RunID, "error", err)
		return
	}
	artifact.Hashes.FeasibilitySHA256 = digest
}

// attachOutputs copies generation results onto the artifact and computes
// output digests over the persisted payloads.
func (g *Gate) attachOutputs(artifact *ledger.RunArtifact, result *GenerationResult) {
	artifact.Outputs = ledger.Outputs{
		Toolpaths:     result.Toolpaths,
		ToolpathsPath: result.ToolpathsPath,
		GCodePath:     result.GCodePath,
		OpPlan:        result.OpPlan,
		OpPlanPath:    result.OpPlanPath,
		PreviewPath:   result.PreviewPath,
	}
	if len(result.GCodeText) <= g.config.InlineGCodeMax {
		artifact.Outputs.GCodeText = result.GCodeText
	} else {
		g.logger.Warn("gcode payload too large to inline, keeping path reference only",
			"run_id", artifact.RunID,
			"bytes", len(result.GCodeText),
		)
	}

	if result.Toolpaths != nil {
		if digest, err := ledger.HashJSON(result.Toolpaths); err == nil {
			artifact.Hashes.ToolpathsSHA256 = digest
		}
	}
	if result.GCodeText != "" {
		artifact.Hashes.GCodeSHA256 = ledger.HashText(result.GCodeText)
	}
	if result.OpPlan != nil {
		if digest, err := ledger.HashJSON(result.OpPlan); err == nil {
			artifact.Hashes.OpPlanSHA256 = digest
		}
	}
}

// attachGenerationFailure records enough structured exception detail on the
// artifact to diagnose the failure later.
func attachGenerationFailure(artifact *ledger.RunArtifact, err error) {
	if artifact.Decision.Details == nil {
		artifact.Decision.Details = ledger.Document{}
	}
	artifact.Decision.Details["generation_failure"] = ledger.Document{
		"type":    fmt.Sprintf("%T", err),
		"message": err.Error(),
	}
	artifact.Decision.BlockReason = ""
}

// feasibilityDocument renders the evaluation as the open document persisted
// on the artifact. This is the authoritative server view, never the client
// claim.
func feasibilityDocument(eval *Evaluation) ledger.Document {
	doc := ledger.Document{
		"risk_level": string(eval.RiskLevel),
	}
	if eval.Score != nil {
		doc["score"] = *eval.Score
	}
	if eval.Fragility != nil {
		doc["fragility"] = *eval.Fragility
	}
	if len(eval.Warnings) > 0 {
		warnings := make([]any, len(eval.Warnings))
		for i, w := range eval.Warnings {
			warnings[i] = w
		}
		doc["warnings"] = warnings
	}
	if eval.Details != nil {
		doc["details"] = eval.Details
	}
	return doc
}
