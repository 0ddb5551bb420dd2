package ledger

import (
	"context"
	"time"
)

// Status is the terminal outcome recorded on a run artifact.
type Status string

const (
	// StatusOK means feasibility permitted the request and generation succeeded.
	StatusOK Status = "OK"

	// StatusBlocked means the feasibility gate refused the request.
	StatusBlocked Status = "BLOCKED"

	// StatusError means generation was attempted but failed.
	StatusError Status = "ERROR"
)

// RiskLevel is the ordinal safety classification of a request.
// GREEN < YELLOW < RED; UNKNOWN means the evaluation was indeterminate
// and is treated as strictly as RED by the feasibility gate.
type RiskLevel string

const (
	RiskGreen   RiskLevel = "GREEN"
	RiskYellow  RiskLevel = "YELLOW"
	RiskRed     RiskLevel = "RED"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// Document is an open, dynamically-shaped JSON value: the Go-native tagged
// union over null/bool/number/string/array/object. It is used for fields
// whose shape is owned by collaborators (feasibility details, request
// summaries, extension metadata) so arbitrary nested content round-trips
// losslessly while the known top-level fields keep strong typing.
type Document = map[string]any

// RunArtifact is the immutable audit record of a single manufacturing
// decision attempt. One artifact is written per request to the feasibility
// gate, whatever the outcome. Core fields (Status, Decision, Hashes,
// Outputs) are write-once; only Meta and AdvisoryInputs may change after
// the fact, and only through the store's append-only meta patch.
type RunArtifact struct {
	// Identity
	RunID        string    `json:"run_id"`
	CreatedAtUTC time.Time `json:"created_at_utc"`
	Mode         string    `json:"mode"`
	ToolID       string    `json:"tool_id"`
	PresetID     string    `json:"preset_id,omitempty"`

	// Outcome
	Status Status `json:"status"`

	// RequestSummary is a sanitized echo of the inbound request. It never
	// contains a client-supplied feasibility field or any credential
	// material; sanitization happens before the summary is stored or hashed.
	RequestSummary Document `json:"request_summary"`

	// Feasibility is the authoritative, server-computed evaluation. The
	// client's claim, if any, is discarded before this record is built.
	Feasibility Document `json:"feasibility"`

	// Decision
	Decision Decision `json:"decision"`

	// Hashes over the actually-persisted payloads.
	Hashes Hashes `json:"hashes"`

	// Outputs holds small payloads inline and path references to large ones.
	Outputs Outputs `json:"outputs"`

	// AdvisoryInputs is an append-only list of provenance references.
	// Entries are never removed, only appended via the meta patch.
	AdvisoryInputs []AdvisoryInput `json:"advisory_inputs,omitempty"`

	// Meta is an open extension map, mutable only via the meta patch.
	Meta Document `json:"meta,omitempty"`
}

// Decision captures what the gate decided and why.
type Decision struct {
	RiskLevel   RiskLevel `json:"risk_level"`
	Score       *float64  `json:"score,omitempty"`
	Fragility   *float64  `json:"fragility,omitempty"`
	BlockReason string    `json:"block_reason,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	Details     Document  `json:"details,omitempty"`
}

// Hashes holds content digests of the persisted payloads. FeasibilitySHA256
// is always present; the output hashes exist only when generation produced
// the corresponding payload. Digests are computed over what was actually
// persisted, never trusted from a caller.
type Hashes struct {
	FeasibilitySHA256 string `json:"feasibility_sha256"`
	ToolpathsSHA256   string `json:"toolpaths_sha256,omitempty"`
	GCodeSHA256       string `json:"gcode_sha256,omitempty"`
	OpPlanSHA256      string `json:"opplan_sha256,omitempty"`
}

// Outputs holds generation results. Text payloads small enough to keep
// inline are stored directly; larger ones are referenced by path.
type Outputs struct {
	Toolpaths     Document `json:"toolpaths,omitempty"`
	ToolpathsPath string   `json:"toolpaths_path,omitempty"`
	GCodeText     string   `json:"gcode_text,omitempty"`
	GCodePath     string   `json:"gcode_path,omitempty"`
	OpPlan        Document `json:"opplan,omitempty"`
	OpPlanPath    string   `json:"opplan_path,omitempty"`
	PreviewPath   string   `json:"preview_path,omitempty"`
}

// AdvisoryInput is a provenance reference attached to an artifact after the
// decision, e.g. a calibration report or a supervisor note.
type AdvisoryInput struct {
	Kind    string    `json:"kind"`
	Ref     string    `json:"ref"`
	AddedAt time.Time `json:"added_at"`
}

// MetaPatch is the only mutation the store accepts for an existing
// artifact. Meta entries are merged key-by-key; advisory inputs are
// appended. Core fields cannot be touched through a patch.
type MetaPatch struct {
	Meta           Document        `json:"meta,omitempty"`
	AdvisoryInputs []AdvisoryInput `json:"advisory_inputs,omitempty"`
}

// Query defines filter parameters for listing run artifacts. All filters
// compose with logical AND; zero values mean "no constraint".
type Query struct {
	// Filters
	Status       Status    `json:"status,omitempty"`
	Mode         string    `json:"mode,omitempty"`
	ToolIDPrefix string    `json:"tool_id_prefix,omitempty"`
	RiskLevel    RiskLevel `json:"risk_level,omitempty"`
	PresetID     string    `json:"preset_id,omitempty"`

	// Inclusive creation-date range, resolved at day granularity so the
	// store can skip whole date partitions.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Pagination. Limit is clamped by query.ApplyDefaults; Cursor is the
	// opaque token returned by a previous page and must be passed back
	// unchanged.
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// Page is one page of listing results. NextCursor is empty exactly when no
// further results exist.
type Page struct {
	Items      []*RunArtifact `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Store is the narrow persistence interface for run artifacts.
// Implementations must be safe for concurrent use. Artifacts are immutable
// once written except through PatchMeta, which is append-only.
type Store interface {
	// Put persists a new artifact. The artifact's RunID must match the
	// run id pattern; Put returns a StorageError on I/O failure rather
	// than panicking so the caller can still report the decision.
	Put(ctx context.Context, artifact *RunArtifact) error

	// Get retrieves one artifact by id. A missing or unreadable record
	// yields a NotFoundError; corruption is logged locally, never
	// propagated as a raw decode failure.
	Get(ctx context.Context, runID string) (*RunArtifact, error)

	// GetRaw returns the exact persisted bytes of an artifact, for
	// download and external hash verification.
	GetRaw(ctx context.Context, runID string) ([]byte, error)

	// PatchMeta merges patch.Meta into the artifact's meta map and appends
	// patch.AdvisoryInputs, returning the updated artifact. Core fields
	// are untouched.
	PatchMeta(ctx context.Context, runID string, patch *MetaPatch) (*RunArtifact, error)

	// List returns one page of artifacts matching the query, newest
	// first. The query must already be validated and defaulted.
	List(ctx context.Context, q *Query) (*Page, error)

	// Close releases any resources held by the backend.
	Close() error
}
