package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/query"
)

// MemoryStore implements ledger.Store using an in-memory map. It is
// intended for tests and should not be used in production.
type MemoryStore struct {
	records map[string]*ledger.RunArtifact
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*ledger.RunArtifact),
	}
}

// Put persists an artifact to memory.
func (s *MemoryStore) Put(ctx context.Context, artifact *ledger.RunArtifact) error {
	if err := ledger.ValidateRunID(artifact.RunID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *artifact
	s.records[artifact.RunID] = &copied
	return nil
}

// Get retrieves one artifact by id.
func (s *MemoryStore) Get(ctx context.Context, runID string) (*ledger.RunArtifact, error) {
	if err := ledger.ValidateRunID(runID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[runID]
	if !ok {
		return nil, ledger.NewNotFoundError("run", runID)
	}
	copied := *record
	return &copied, nil
}

// GetRaw returns the artifact marshalled the way the filesystem backend
// would persist it.
func (s *MemoryStore) GetRaw(ctx context.Context, runID string) ([]byte, error) {
	record, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, ledger.NewStorageError("memory", "get", err)
	}
	return raw, nil
}

// PatchMeta merges meta entries and appends advisory inputs atomically.
func (s *MemoryStore) PatchMeta(ctx context.Context, runID string, patch *ledger.MetaPatch) (*ledger.RunArtifact, error) {
	if err := ledger.ValidateRunID(runID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[runID]
	if !ok {
		return nil, ledger.NewNotFoundError("run", runID)
	}

	applyMetaPatch(record, patch)

	copied := *record
	return &copied, nil
}

// List returns one page of artifacts newest-first with the same cursor
// semantics as the filesystem backend.
func (s *MemoryStore) List(ctx context.Context, q *ledger.Query) (*ledger.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	var afterName string
	if q.Cursor != "" {
		var err error
		_, afterName, err = query.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, ledger.NewQueryError(q, err)
		}
	}

	page := &ledger.Page{Items: []*ledger.RunArtifact{}}
	var lastPartition, lastName string

	for _, id := range ids {
		if afterName != "" && id+".json" >= afterName {
			continue
		}
		record := s.records[id]
		if !query.Matches(record, q) {
			continue
		}
		if len(page.Items) == q.Limit {
			// One more match exists past the full page.
			page.NextCursor = query.EncodeCursor(lastPartition, lastName)
			return page, nil
		}
		copied := *record
		page.Items = append(page.Items, &copied)
		lastPartition, lastName = ledger.PartitionFor(record.CreatedAtUTC), record.RunID+".json"
	}

	return page, nil
}

// Close releases resources held by the backend.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*ledger.RunArtifact)
	return nil
}

// Size returns the number of stored artifacts (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

var _ ledger.Store = (*MemoryStore)(nil)
