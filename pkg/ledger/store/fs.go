package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/query"
)

// FSConfig contains configuration for the filesystem storage backend.
type FSConfig struct {
	// Root is the directory holding the date-partitioned artifact tree.
	Root string

	// DirMode is the permission mode for created directories.
	// Default: 0o755
	DirMode os.FileMode

	// FileMode is the permission mode for artifact files.
	// Default: 0o644
	FileMode os.FileMode
}

// DefaultFSConfig returns the default filesystem store configuration.
func DefaultFSConfig() *FSConfig {
	return &FSConfig{
		Root:     "data/runs",
		DirMode:  0o755,
		FileMode: 0o644,
	}
}

// partitionPattern is the shape of a date partition directory name.
var partitionPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FSStore implements ledger.Store on the local filesystem. Each artifact is
// one JSON file under a date partition derived from the run id, written via
// temp-file-plus-atomic-rename so a crash mid-write never leaves a corrupt
// artifact visible under its final name.
type FSStore struct {
	config *FSConfig
	logger *slog.Logger

	// patchMu serializes read-modify-write meta patches. Plain Put/Get
	// never take it; immutability plus atomic rename covers them.
	patchMu sync.Mutex
}

// NewFSStore creates a filesystem store rooted at config.Root, creating the
// root directory if needed.
func NewFSStore(config *FSConfig) (*FSStore, error) {
	if config == nil {
		config = DefaultFSConfig()
	}
	if config.DirMode == 0 {
		config.DirMode = 0o755
	}
	if config.FileMode == 0 {
		config.FileMode = 0o644
	}

	if err := os.MkdirAll(config.Root, config.DirMode); err != nil {
		return nil, ledger.NewStorageError("fs", "init", err)
	}

	s := &FSStore{
		config: config,
		logger: slog.Default().With("component", "ledger.store.fs"),
	}

	s.logger.Info("filesystem store initialized", "root", config.Root)
	return s, nil
}

// Put persists a new artifact. I/O failures (disk full, permissions) come
// back as a StorageError result so the caller can still report the decision
// it attempted to record.
func (s *FSStore) Put(ctx context.Context, artifact *ledger.RunArtifact) error {
	if err := ledger.ValidateRunID(artifact.RunID); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return ledger.NewStorageError("fs", "put", err)
	}

	dir := filepath.Join(s.config.Root, partitionOf(artifact.RunID))
	if err := os.MkdirAll(dir, s.config.DirMode); err != nil {
		return ledger.NewStorageError("fs", "put", err)
	}

	if err := s.writeAtomic(filepath.Join(dir, artifact.RunID+".json"), raw); err != nil {
		return ledger.NewStorageError("fs", "put", err)
	}

	s.logger.Debug("artifact written",
		"run_id", artifact.RunID,
		"status", artifact.Status,
		"bytes", len(raw),
	)
	return nil
}

// writeAtomic writes to a dot-prefixed temp file in the target directory,
// syncs it, then renames into place. Directory listings only consider
// "run-*.json" names, so a leftover temp file from a failed write is never
// mistaken for a valid artifact.
func (s *FSStore) writeAtomic(path string, raw []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, s.config.FileMode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Get retrieves one artifact by id. A missing file yields a NotFoundError;
// a corrupt file is logged and also surfaced as NotFoundError, never as a
// raw decode failure.
func (s *FSStore) Get(ctx context.Context, runID string) (*ledger.RunArtifact, error) {
	raw, err := s.GetRaw(ctx, runID)
	if err != nil {
		return nil, err
	}

	var artifact ledger.RunArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		s.logger.Error("corrupt artifact on disk",
			"run_id", runID,
			"error", ledger.NewCorruptRecordError(runID, err),
		)
		return nil, ledger.NewNotFoundError("run", runID)
	}
	return &artifact, nil
}

// GetRaw returns the exact persisted bytes of an artifact.
func (s *FSStore) GetRaw(ctx context.Context, runID string) ([]byte, error) {
	if err := ledger.ValidateRunID(runID); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(s.config.Root, partitionOf(runID), runID+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ledger.NewNotFoundError("run", runID)
		}
		return nil, ledger.NewStorageError("fs", "get", err)
	}
	return raw, nil
}

// PatchMeta merges patch.Meta into the artifact's meta map and appends
// patch.AdvisoryInputs. Core fields are untouched; the rewrite goes through
// the same atomic rename as Put.
func (s *FSStore) PatchMeta(ctx context.Context, runID string, patch *ledger.MetaPatch) (*ledger.RunArtifact, error) {
	s.patchMu.Lock()
	defer s.patchMu.Unlock()

	artifact, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}

	applyMetaPatch(artifact, patch)

	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, ledger.NewStorageError("fs", "patch_meta", err)
	}
	path := filepath.Join(s.config.Root, partitionOf(runID), runID+".json")
	if err := s.writeAtomic(path, raw); err != nil {
		return nil, ledger.NewStorageError("fs", "patch_meta", err)
	}

	s.logger.Debug("artifact meta patched", "run_id", runID)
	return artifact, nil
}

// List returns one page of artifacts matching the query, newest partition
// first, resuming after the query cursor if one is set. Corrupt entries are
// logged and skipped so a single bad file cannot abort a whole listing.
func (s *FSStore) List(ctx context.Context, q *ledger.Query) (*ledger.Page, error) {
	partitions, err := s.partitions(q)
	if err != nil {
		return nil, err
	}

	var afterPartition, afterName string
	if q.Cursor != "" {
		afterPartition, afterName, err = query.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, ledger.NewQueryError(q, err)
		}
	}

	page := &ledger.Page{Items: []*ledger.RunArtifact{}}
	var lastPartition, lastName string

	for _, partition := range partitions {
		if afterPartition != "" && partition > afterPartition {
			continue
		}
		names, err := s.entries(partition)
		if err != nil {
			s.logger.Warn("skipping unreadable partition", "partition", partition, "error", err)
			continue
		}
		for _, name := range names {
			if afterPartition != "" && partition == afterPartition && name >= afterName {
				continue
			}

			artifact := s.readTolerant(partition, name)
			if artifact == nil || !query.Matches(artifact, q) {
				continue
			}

			if len(page.Items) == q.Limit {
				// One more match exists past the full page.
				page.NextCursor = query.EncodeCursor(lastPartition, lastName)
				return page, nil
			}
			page.Items = append(page.Items, artifact)
			lastPartition, lastName = partition, name
		}
	}

	return page, nil
}

// partitions returns the date partition directory names relevant to the
// query, newest first.
func (s *FSStore) partitions(q *ledger.Query) ([]string, error) {
	entries, err := os.ReadDir(s.config.Root)
	if err != nil {
		return nil, ledger.NewStorageError("fs", "list", err)
	}

	var partitions []string
	for _, e := range entries {
		if !e.IsDir() || !partitionPattern.MatchString(e.Name()) {
			continue
		}
		if !query.PartitionInRange(e.Name(), q) {
			continue
		}
		partitions = append(partitions, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(partitions)))
	return partitions, nil
}

// entries returns artifact filenames in a partition, newest first.
// Temp files and anything not shaped like an artifact are ignored.
func (s *FSStore) entries(partition string) ([]string, error) {
	dirEntries, err := os.ReadDir(filepath.Join(s.config.Root, partition))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "run-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// readTolerant parses one index entry leniently: any read or decode failure
// is logged and yields nil rather than aborting the listing.
func (s *FSStore) readTolerant(partition, name string) *ledger.RunArtifact {
	raw, err := os.ReadFile(filepath.Join(s.config.Root, partition, name))
	if err != nil {
		s.logger.Warn("skipping unreadable artifact", "partition", partition, "file", name, "error", err)
		return nil
	}
	var artifact ledger.RunArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		runID := strings.TrimSuffix(name, ".json")
		s.logger.Warn("skipping corrupt artifact",
			"partition", partition,
			"error", ledger.NewCorruptRecordError(runID, err),
		)
		return nil
	}
	return &artifact
}

// Close releases resources held by the backend. The filesystem store holds
// no open handles between calls.
func (s *FSStore) Close() error {
	return nil
}

// partitionOf derives the date partition from the date segment embedded in
// a run id. The id has already passed ValidateRunID.
func partitionOf(runID string) string {
	d := runID[len("run-") : len("run-")+8]
	t, err := time.Parse("20060102", d)
	if err != nil {
		// Unreachable for a validated id; fall back to a quarantine
		// partition rather than constructing a path from raw input.
		return "invalid-date"
	}
	return ledger.PartitionFor(t)
}

// applyMetaPatch performs the append-only merge shared by all backends.
func applyMetaPatch(artifact *ledger.RunArtifact, patch *ledger.MetaPatch) {
	if patch == nil {
		return
	}
	if len(patch.Meta) > 0 && artifact.Meta == nil {
		artifact.Meta = ledger.Document{}
	}
	for k, v := range patch.Meta {
		artifact.Meta[k] = v
	}
	for _, in := range patch.AdvisoryInputs {
		if in.AddedAt.IsZero() {
			in.AddedAt = time.Now().UTC()
		}
		artifact.AdvisoryInputs = append(artifact.AdvisoryInputs, in)
	}
}

var _ ledger.Store = (*FSStore)(nil)
