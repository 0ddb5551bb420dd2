package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/query"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/ledger.db",
		MaxOpenConns: 10,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements ledger.Store on SQLite. It is the transactional
// alternative to the filesystem backend for deployments where concurrent
// writes to the same run id become observable; the schema carries the full
// artifact JSON alongside indexed filter columns.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database, enables WAL mode, and
// applies the schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 10
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "ledger.store.sqlite")

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		config.Path, int(config.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ledger.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStore{db: db, config: config, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite store initialized", "path", config.Path)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return ledger.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return ledger.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return ledger.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return ledger.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Put persists a new artifact row.
func (s *SQLiteStore) Put(ctx context.Context, artifact *ledger.RunArtifact) error {
	if err := ledger.ValidateRunID(artifact.RunID); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return ledger.NewStorageError("sqlite", "put", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO run_artifacts
			(run_id, partition, created_at_utc, mode, tool_id, preset_id, status, risk_level, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.RunID,
		ledger.PartitionFor(artifact.CreatedAtUTC),
		artifact.CreatedAtUTC.UTC(),
		artifact.Mode,
		artifact.ToolID,
		artifact.PresetID,
		string(artifact.Status),
		string(artifact.Decision.RiskLevel),
		string(raw),
	)
	if err != nil {
		return ledger.NewStorageError("sqlite", "put", err)
	}
	return nil
}

// Get retrieves one artifact by id. A corrupt body is logged and surfaced
// as a NotFoundError.
func (s *SQLiteStore) Get(ctx context.Context, runID string) (*ledger.RunArtifact, error) {
	raw, err := s.GetRaw(ctx, runID)
	if err != nil {
		return nil, err
	}

	var artifact ledger.RunArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		s.logger.Error("corrupt artifact body",
			"run_id", runID,
			"error", ledger.NewCorruptRecordError(runID, err),
		)
		return nil, ledger.NewNotFoundError("run", runID)
	}
	return &artifact, nil
}

// GetRaw returns the exact persisted artifact bytes.
func (s *SQLiteStore) GetRaw(ctx context.Context, runID string) ([]byte, error) {
	if err := ledger.ValidateRunID(runID); err != nil {
		return nil, err
	}

	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM run_artifacts WHERE run_id = ?`, runID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ledger.NewNotFoundError("run", runID)
	}
	if err != nil {
		return nil, ledger.NewStorageError("sqlite", "get", err)
	}
	return []byte(body), nil
}

// PatchMeta performs the append-only merge inside a single transaction so
// two concurrent patches cannot lose each other's appends.
func (s *SQLiteStore) PatchMeta(ctx context.Context, runID string, patch *ledger.MetaPatch) (*ledger.RunArtifact, error) {
	if err := ledger.ValidateRunID(runID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ledger.NewStorageError("sqlite", "patch_meta", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM run_artifacts WHERE run_id = ?`, runID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ledger.NewNotFoundError("run", runID)
	}
	if err != nil {
		return nil, ledger.NewStorageError("sqlite", "patch_meta", err)
	}

	var artifact ledger.RunArtifact
	if err := json.Unmarshal([]byte(body), &artifact); err != nil {
		s.logger.Error("corrupt artifact body",
			"run_id", runID,
			"error", ledger.NewCorruptRecordError(runID, err),
		)
		return nil, ledger.NewNotFoundError("run", runID)
	}

	applyMetaPatch(&artifact, patch)

	raw, err := json.MarshalIndent(&artifact, "", "  ")
	if err != nil {
		return nil, ledger.NewStorageError("sqlite", "patch_meta", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE run_artifacts SET body = ? WHERE run_id = ?`, string(raw), runID); err != nil {
		return nil, ledger.NewStorageError("sqlite", "patch_meta", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, ledger.NewStorageError("sqlite", "patch_meta", err)
	}
	return &artifact, nil
}

// List returns one page matching the query using keyset pagination over
// (partition, run_id) descending, the same cursor shape as the filesystem
// backend. Corrupt bodies are logged and skipped.
func (s *SQLiteStore) List(ctx context.Context, q *ledger.Query) (*ledger.Page, error) {
	conditions := []string{"1=1"}
	args := []any{}

	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.Mode != "" {
		conditions = append(conditions, "mode = ?")
		args = append(args, q.Mode)
	}
	if q.ToolIDPrefix != "" {
		conditions = append(conditions, `tool_id LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(q.ToolIDPrefix)+"%")
	}
	if q.RiskLevel != "" {
		conditions = append(conditions, "risk_level = ?")
		args = append(args, string(q.RiskLevel))
	}
	if q.PresetID != "" {
		conditions = append(conditions, "preset_id = ?")
		args = append(args, q.PresetID)
	}
	if q.DateFrom != nil {
		conditions = append(conditions, "partition >= ?")
		args = append(args, q.DateFrom.UTC().Format("2006-01-02"))
	}
	if q.DateTo != nil {
		conditions = append(conditions, "partition <= ?")
		args = append(args, q.DateTo.UTC().Format("2006-01-02"))
	}

	if q.Cursor != "" {
		afterPartition, afterName, err := query.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, ledger.NewQueryError(q, err)
		}
		conditions = append(conditions, "(partition < ? OR (partition = ? AND run_id || '.json' < ?))")
		args = append(args, afterPartition, afterPartition, afterName)
	}

	sqlQuery := "SELECT partition, run_id, body FROM run_artifacts WHERE "
	for i, c := range conditions {
		if i > 0 {
			sqlQuery += " AND "
		}
		sqlQuery += c
	}
	sqlQuery += " ORDER BY partition DESC, run_id DESC"

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, ledger.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	page := &ledger.Page{Items: []*ledger.RunArtifact{}}
	var lastPartition, lastRunID string
	more := false

	// Stream until the page holds Limit decodable artifacts plus one more
	// decodable row to prove a next page exists. Corrupt bodies must not
	// count toward either, or a bad row inside the window would both
	// shrink the page and end pagination early.
	for rows.Next() {
		var partition, runID, body string
		if err := rows.Scan(&partition, &runID, &body); err != nil {
			return nil, ledger.NewStorageError("sqlite", "scan", err)
		}

		var artifact ledger.RunArtifact
		if err := json.Unmarshal([]byte(body), &artifact); err != nil {
			s.logger.Warn("skipping corrupt artifact body",
				"error", ledger.NewCorruptRecordError(runID, err),
			)
			continue
		}
		if len(page.Items) == q.Limit {
			more = true
			break
		}
		page.Items = append(page.Items, &artifact)
		lastPartition, lastRunID = partition, runID
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.NewStorageError("sqlite", "list", err)
	}

	if more {
		page.NextCursor = query.EncodeCursor(lastPartition, lastRunID+".json")
	}
	return page, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return ledger.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite store closed")
	return nil
}

// escapeLike escapes LIKE metacharacters in a prefix filter.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

var _ ledger.Store = (*SQLiteStore)(nil)
