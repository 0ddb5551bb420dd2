package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_PutAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC), ledger.StatusBlocked, ledger.RiskRed)
	artifact.Decision.BlockReason = "risk level RED"

	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := s.Get(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != ledger.StatusBlocked {
		t.Errorf("Status = %q, want BLOCKED", got.Status)
	}
	if got.Decision.BlockReason != "risk level RED" {
		t.Errorf("BlockReason not preserved")
	}
	if !got.CreatedAtUTC.Equal(artifact.CreatedAtUTC) {
		t.Errorf("CreatedAtUTC = %v, want %v", got.CreatedAtUTC, artifact.CreatedAtUTC)
	}
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.Get(context.Background(), "run-20260514-1f2e3d4c-5a6b-4c8d-9e0f-112233445566")
	var nferr *ledger.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestSQLiteStore_RejectsMalformedRunID(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Now().UTC(), ledger.StatusOK, ledger.RiskGreen)
	artifact.RunID = "run-20260514-'; DROP TABLE run_artifacts; --"

	err := s.Put(ctx, artifact)
	var verr *ledger.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestSQLiteStore_PatchMeta(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Now().UTC(), ledger.StatusOK, ledger.RiskGreen)
	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	patched, err := s.PatchMeta(ctx, artifact.RunID, &ledger.MetaPatch{
		Meta:           ledger.Document{"batch": "b-77"},
		AdvisoryInputs: []ledger.AdvisoryInput{{Kind: "calibration_report", Ref: "cal-1"}},
	})
	if err != nil {
		t.Fatalf("PatchMeta() failed: %v", err)
	}
	if patched.Meta["batch"] != "b-77" {
		t.Errorf("Meta not merged")
	}
	if len(patched.AdvisoryInputs) != 1 {
		t.Errorf("Advisory input not appended")
	}

	got, err := s.Get(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("Get() after patch failed: %v", err)
	}
	if got.Meta["batch"] != "b-77" {
		t.Errorf("Patch not persisted")
	}
	if got.Status != ledger.StatusOK {
		t.Errorf("Core field changed by patch")
	}
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	day := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)
	blocked := newTestArtifact(day, ledger.StatusBlocked, ledger.RiskRed)
	ok := newTestArtifact(day, ledger.StatusOK, ledger.RiskGreen)
	ok.ToolID = "laser/diode-5w"
	for _, a := range []*ledger.RunArtifact{blocked, ok} {
		if err := s.Put(ctx, a); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	page, err := s.List(ctx, &ledger.Query{Status: ledger.StatusBlocked, Limit: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].RunID != blocked.RunID {
		t.Errorf("Status filter returned wrong rows: %d items", len(page.Items))
	}

	page, err = s.List(ctx, &ledger.Query{ToolIDPrefix: "router/", Limit: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ToolID != "router/compression-3mm" {
		t.Errorf("Tool prefix filter returned wrong rows")
	}
}

func TestSQLiteStore_ListPrefixEscaping(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	day := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)
	underscore := newTestArtifact(day, ledger.StatusOK, ledger.RiskGreen)
	underscore.ToolID = "router_a/bit"
	other := newTestArtifact(day, ledger.StatusOK, ledger.RiskGreen)
	other.ToolID = "routerXa/bit"
	for _, a := range []*ledger.RunArtifact{underscore, other} {
		if err := s.Put(ctx, a); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	// "_" must match literally, not as a single-character wildcard.
	page, err := s.List(ctx, &ledger.Query{ToolIDPrefix: "router_", Limit: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ToolID != "router_a/bit" {
		t.Errorf("LIKE escaping failed: got %d items", len(page.Items))
	}
}

func TestSQLiteStore_ListPagination(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	total := 7
	for i := 0; i < total; i++ {
		day := time.Date(2026, 5, 1+i, 12, 0, 0, 0, time.UTC)
		if err := s.Put(ctx, newTestArtifact(day, ledger.StatusOK, ledger.RiskGreen)); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	seen := map[string]bool{}
	cursor := ""
	var lastTop string
	for {
		page, err := s.List(ctx, &ledger.Query{Limit: 3, Cursor: cursor})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		for _, item := range page.Items {
			if seen[item.RunID] {
				t.Errorf("Run %s returned twice", item.RunID)
			}
			seen[item.RunID] = true
			partition := ledger.PartitionFor(item.CreatedAtUTC)
			if lastTop != "" && partition > lastTop {
				t.Errorf("Ordering violated: %s after %s", partition, lastTop)
			}
			lastTop = partition
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != total {
		t.Errorf("Pagination returned %d distinct runs, want %d", len(seen), total)
	}
}

func TestSQLiteStore_ListSkipsCorruptRowsWithoutEndingPagination(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	total := 5
	runIDs := make([]string, 0, total)
	for i := 0; i < total; i++ {
		day := time.Date(2026, 6, 1+i, 12, 0, 0, 0, time.UTC)
		artifact := newTestArtifact(day, ledger.StatusOK, ledger.RiskGreen)
		if err := s.Put(ctx, artifact); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
		runIDs = append(runIDs, artifact.RunID)
	}

	// Corrupt the newest row's body in place. It sits inside the first
	// page's fetch window; the page must still fill and keep paginating.
	if _, err := s.db.Exec(
		`UPDATE run_artifacts SET body = '{not json' WHERE run_id = ?`, runIDs[total-1]); err != nil {
		t.Fatalf("corrupting row failed: %v", err)
	}

	first, err := s.List(ctx, &ledger.Query{Limit: 2})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("First page has %d items, want 2", len(first.Items))
	}
	if first.NextCursor == "" {
		t.Fatal("First page must have a next cursor, more valid rows exist")
	}

	seen := map[string]bool{}
	cursor := ""
	for {
		page, err := s.List(ctx, &ledger.Query{Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		for _, item := range page.Items {
			if seen[item.RunID] {
				t.Errorf("Run %s returned twice", item.RunID)
			}
			seen[item.RunID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != total-1 {
		t.Errorf("Pagination returned %d distinct runs, want %d", len(seen), total-1)
	}
	if seen[runIDs[total-1]] {
		t.Error("Corrupt run must not appear in results")
	}
}

func TestSQLiteStore_PutIsUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Now().UTC(), ledger.StatusOK, ledger.RiskGreen)
	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	artifact.Status = ledger.StatusError
	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Second Put() failed: %v", err)
	}

	got, err := s.Get(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != ledger.StatusError {
		t.Errorf("Upsert did not replace row")
	}

	page, err := s.List(ctx, &ledger.Query{Limit: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("Upsert duplicated rows: %d", len(page.Items))
	}
}
