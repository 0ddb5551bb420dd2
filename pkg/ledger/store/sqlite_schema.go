package store

// SchemaVersion is the current version of the run artifact schema.
const SchemaVersion = 1

// Schema creates the run artifact table and its query indexes. The full
// artifact is kept as JSON in the body column; the indexed columns exist
// only to serve the listing filters without decoding every row.
const Schema = `
CREATE TABLE IF NOT EXISTS run_artifacts (
    run_id         TEXT PRIMARY KEY,
    partition      TEXT NOT NULL,
    created_at_utc TIMESTAMP NOT NULL,
    mode           TEXT NOT NULL,
    tool_id        TEXT NOT NULL,
    preset_id      TEXT,
    status         TEXT NOT NULL,
    risk_level     TEXT NOT NULL,
    body           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_artifacts_partition ON run_artifacts(partition);
CREATE INDEX IF NOT EXISTS idx_run_artifacts_status ON run_artifacts(status);
CREATE INDEX IF NOT EXISTS idx_run_artifacts_tool_id ON run_artifacts(tool_id);
CREATE INDEX IF NOT EXISTS idx_run_artifacts_preset_id ON run_artifacts(preset_id);

CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records the schema version (idempotent).
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?);`

// GetSchemaVersion retrieves the latest schema version.
const GetSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;`
