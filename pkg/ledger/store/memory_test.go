package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
)

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	artifact := newTestArtifact(time.Now().UTC(), ledger.StatusOK, ledger.RiskGreen)
	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := s.Get(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.RunID != artifact.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, artifact.RunID)
	}
	if s.Size() != 1 {
		t.Errorf("Size() = %d, want 1", s.Size())
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "run-20260514-1f2e3d4c-5a6b-4c8d-9e0f-112233445566")
	var nferr *ledger.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	artifact := newTestArtifact(time.Now().UTC(), ledger.StatusOK, ledger.RiskGreen)
	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, _ := s.Get(ctx, artifact.RunID)
	got.Status = ledger.StatusError

	again, _ := s.Get(ctx, artifact.RunID)
	if again.Status != ledger.StatusOK {
		t.Errorf("Caller mutation leaked into the store")
	}
}

func TestMemoryStore_ListPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	total := 5
	for i := 0; i < total; i++ {
		day := time.Date(2026, 5, 1+i, 12, 0, 0, 0, time.UTC)
		if err := s.Put(ctx, newTestArtifact(day, ledger.StatusOK, ledger.RiskGreen)); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
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

	if len(seen) != total {
		t.Errorf("Pagination returned %d distinct runs, want %d", len(seen), total)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	oldRun := newTestArtifact(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	newRun := newTestArtifact(time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	for _, a := range []*ledger.RunArtifact{oldRun, newRun} {
		if err := s.Put(ctx, a); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	page, err := s.List(ctx, &ledger.Query{Limit: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(page.Items))
	}
	if page.Items[0].RunID != newRun.RunID {
		t.Errorf("Expected newest run first")
	}
}

func TestMemoryStore_ListZeroLimitDoesNotPanic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, day := range []int{1, 2} {
		a := newTestArtifact(time.Date(2026, 5, day, 12, 0, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
		if err := s.Put(ctx, a); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	// Callers are expected to run ApplyDefaults first; a raw zero-limit
	// query must still come back empty instead of panicking.
	page, err := s.List(ctx, &ledger.Query{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("Expected empty page for zero limit, got %d items", len(page.Items))
	}
}

func TestMemoryStore_PatchMeta(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	artifact := newTestArtifact(time.Now().UTC(), ledger.StatusOK, ledger.RiskGreen)
	if err := s.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	patched, err := s.PatchMeta(ctx, artifact.RunID, &ledger.MetaPatch{
		Meta: ledger.Document{"note": "checked"},
	})
	if err != nil {
		t.Fatalf("PatchMeta() failed: %v", err)
	}
	if patched.Meta["note"] != "checked" {
		t.Errorf("Meta not merged")
	}

	got, _ := s.Get(ctx, artifact.RunID)
	if got.Meta["note"] != "checked" {
		t.Errorf("Patch not persisted")
	}
}
