package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tonewood-hq/vulcan/pkg/config"
	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/store"
	"tonewood-hq/vulcan/pkg/telemetry/metrics"
)

// newTestServer builds a server over a fresh in-memory store and returns
// both, with the full route and middleware chain mounted.
func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()

	memStore := store.NewMemoryStore()
	cfg := &config.ServerConfig{
		ListenAddress:   ":0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
	}

	srv := New(cfg, memStore, metrics.NewCollector(nil), BuildInfo{Version: "test"})
	ts := httptest.NewServer(srv.setupRoutes())
	t.Cleanup(ts.Close)

	return ts, memStore
}

func newTestArtifact(createdAt time.Time, status ledger.Status, risk ledger.RiskLevel) *ledger.RunArtifact {
	return &ledger.RunArtifact{
		RunID:        ledger.NewRunID(createdAt),
		CreatedAtUTC: createdAt,
		Mode:         "manufacture",
		ToolID:       "router/compression-3mm",
		PresetID:     "maple-neck-v3",
		Status:       status,
		RequestSummary: ledger.Document{
			"material": "maple",
		},
		Decision: ledger.Decision{RiskLevel: risk},
	}
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("failed to decode response from %s: %v", url, err)
		}
	}
	return resp
}

func TestServer_GetRun(t *testing.T) {
	ts, memStore := newTestServer(t)

	artifact := newTestArtifact(time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	if err := memStore.Put(context.Background(), artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	var got ledger.RunArtifact
	resp := getJSON(t, ts.URL+"/v1/runs/"+artifact.RunID, &got)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if got.RunID != artifact.RunID {
		t.Errorf("expected run id %s, got %s", artifact.RunID, got.RunID)
	}
	if got.Status != ledger.StatusOK {
		t.Errorf("expected status OK, got %s", got.Status)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a request id header on the response")
	}
}

func TestServer_GetUnknownRunIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, ts.URL+"/v1/runs/run-20260514-1f2e3d4c-5a6b-7c8d-9e0f-112233445566", &body)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Error("expected an error message in the response body")
	}
}

func TestServer_MalformedRunIDIs400(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := getJSON(t, ts.URL+"/v1/runs/not-a-run-id", nil)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestServer_ListRuns(t *testing.T) {
	ts, memStore := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		status := ledger.StatusOK
		if i == 1 {
			status = ledger.StatusBlocked
		}
		if err := memStore.Put(ctx, newTestArtifact(base.AddDate(0, 0, i), status, ledger.RiskGreen)); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	var page ledger.Page
	resp := getJSON(t, ts.URL+"/v1/runs?status=BLOCKED", &page)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}
	if page.Items[0].Status != ledger.StatusBlocked {
		t.Errorf("expected BLOCKED item, got %s", page.Items[0].Status)
	}
	if page.NextCursor != "" {
		t.Errorf("expected empty next cursor, got %q", page.NextCursor)
	}
}

func TestServer_ListPagination(t *testing.T) {
	ts, memStore := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := memStore.Put(ctx, newTestArtifact(base.AddDate(0, 0, i), ledger.StatusOK, ledger.RiskGreen)); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	seen := make(map[string]bool)
	cursor := ""
	for page := 0; page < 4; page++ {
		url := ts.URL + "/v1/runs?limit=2"
		if cursor != "" {
			url += "&cursor=" + cursor
		}

		var result ledger.Page
		resp := getJSON(t, url, &result)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("page %d: expected status 200, got %d", page, resp.StatusCode)
		}

		for _, item := range result.Items {
			if seen[item.RunID] {
				t.Errorf("run %s returned on more than one page", item.RunID)
			}
			seen[item.RunID] = true
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	if len(seen) != 5 {
		t.Errorf("expected 5 distinct runs across pages, got %d", len(seen))
	}
}

func TestServer_ListRejectsBadParams(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "status=HALTED"},
		{"unknown risk", "risk=ORANGE"},
		{"bad limit", "limit=many"},
		{"bad date", "from=May+14+2026"},
		{"inverted range", "from=2026-05-14&to=2026-05-01"},
		{"garbage cursor", "cursor=%21%21%21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := getJSON(t, ts.URL+"/v1/runs?"+tt.query, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestServer_Download(t *testing.T) {
	ts, memStore := newTestServer(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	if err := memStore.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	raw, err := memStore.GetRaw(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("GetRaw() failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/v1/runs/" + artifact.RunID + "/download")
	if err != nil {
		t.Fatalf("GET download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, artifact.RunID) {
		t.Errorf("expected content disposition naming the run, got %q", cd)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading download body failed: %v", err)
	}
	if string(body) != string(raw) {
		t.Error("downloaded bytes differ from the persisted bytes")
	}
}

func TestServer_PatchMeta(t *testing.T) {
	ts, memStore := newTestServer(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	if err := memStore.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	body := `{"meta":{"operator_note":"checked by hand"},"advisory_inputs":[{"kind":"calibration","ref":"cal-2026-05"}]}`
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/v1/runs/"+artifact.RunID+"/meta", strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var updated ledger.RunArtifact
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Meta["operator_note"] != "checked by hand" {
		t.Errorf("expected merged meta key, got %v", updated.Meta)
	}
	if len(updated.AdvisoryInputs) != 1 {
		t.Fatalf("expected 1 advisory input, got %d", len(updated.AdvisoryInputs))
	}
	if updated.AdvisoryInputs[0].AddedAt.IsZero() {
		t.Error("expected added_at to be stamped")
	}
	if updated.Status != ledger.StatusOK {
		t.Errorf("core status changed by patch: %s", updated.Status)
	}
}

func TestServer_PatchMetaRejectsUnknownFields(t *testing.T) {
	ts, memStore := newTestServer(t)
	ctx := context.Background()

	artifact := newTestArtifact(time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	if err := memStore.Put(ctx, artifact); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	// Core fields cannot be rewritten through the patch endpoint.
	body := `{"status":"BLOCKED"}`
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/v1/runs/"+artifact.RunID+"/meta", strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}

	unchanged, err := memStore.Get(ctx, artifact.RunID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if unchanged.Status != ledger.StatusOK {
		t.Errorf("status mutated by rejected patch: %s", unchanged.Status)
	}
}

func TestServer_Diff(t *testing.T) {
	ts, memStore := newTestServer(t)
	ctx := context.Background()

	a := newTestArtifact(time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskGreen)
	b := newTestArtifact(time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC), ledger.StatusOK, ledger.RiskYellow)
	for _, artifact := range []*ledger.RunArtifact{a, b} {
		if err := memStore.Put(ctx, artifact); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	var result struct {
		RunA    string           `json:"run_a"`
		RunB    string           `json:"run_b"`
		Total   int              `json:"total"`
		Entries []map[string]any `json:"entries"`
	}
	url := fmt.Sprintf("%s/v1/diff?a=%s&b=%s", ts.URL, a.RunID, b.RunID)
	resp := getJSON(t, url, &result)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if result.RunA != a.RunID || result.RunB != b.RunID {
		t.Errorf("diff names wrong runs: %s vs %s", result.RunA, result.RunB)
	}
	if result.Total == 0 {
		t.Error("expected at least one diff entry for differing risk levels")
	}
}

func TestServer_DiffRequiresBothRuns(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := getJSON(t, ts.URL+"/v1/diff?a=run-20260514-1f2e3d4c-5a6b-7c8d-9e0f-112233445566", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestServer_HealthAndReady(t *testing.T) {
	ts, _ := newTestServer(t)

	var live map[string]any
	if resp := getJSON(t, ts.URL+"/health", &live); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected liveness 200, got %d", resp.StatusCode)
	}
	if live["status"] != "ok" {
		t.Errorf("expected liveness status ok, got %v", live["status"])
	}

	var ready map[string]any
	if resp := getJSON(t, ts.URL+"/ready", &ready); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected readiness 200, got %d", resp.StatusCode)
	}
	checks, ok := ready["checks"].(map[string]any)
	if !ok {
		t.Fatalf("expected readiness checks, got %v", ready)
	}
	if _, ok := checks["ledger"]; !ok {
		t.Error("expected a ledger readiness check")
	}
}

func TestServer_Version(t *testing.T) {
	ts, _ := newTestServer(t)

	var info map[string]any
	if resp := getJSON(t, ts.URL+"/version", &info); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected version 200, got %d", resp.StatusCode)
	}
	if info["version"] != "test" {
		t.Errorf("expected version test, got %v", info["version"])
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestServer_StartRejectsDoubleStart(t *testing.T) {
	memStore := store.NewMemoryStore()
	cfg := &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
	srv := New(cfg, memStore, nil, BuildInfo{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	// Wait for the first Start to take the running flag.
	deadline := time.After(2 * time.Second)
	for {
		srv.mu.RLock()
		running := srv.isRunning
		srv.mu.RUnlock()
		if running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("server never reported running")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := srv.Start(context.Background()); err == nil {
		t.Error("expected second Start to fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error on shutdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
