package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/diff"
	"tonewood-hq/vulcan/pkg/ledger/query"
)

// maxPatchBodySize bounds the accepted meta patch payload.
const maxPatchBodySize = 1 << 20

// handleListRuns serves GET /v1/runs. Filters arrive as query parameters
// mirroring the ledger Query fields; responses are one Page with an opaque
// next_cursor when more results exist.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := &ledger.Query{
		Status:       ledger.Status(params.Get("status")),
		Mode:         params.Get("mode"),
		ToolIDPrefix: params.Get("tool"),
		RiskLevel:    ledger.RiskLevel(params.Get("risk")),
		PresetID:     params.Get("preset"),
		Cursor:       params.Get("cursor"),
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, ledger.NewQueryError(q, fmt.Errorf("invalid limit: %q", raw)))
			return
		}
		q.Limit = limit
	}

	if raw := params.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, r, ledger.NewQueryError(q, fmt.Errorf("invalid from date: %q", raw)))
			return
		}
		q.DateFrom = &from
	}
	if raw := params.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, r, ledger.NewQueryError(q, fmt.Errorf("invalid to date: %q", raw)))
			return
		}
		q.DateTo = &to
	}

	if err := query.Validate(q); err != nil {
		s.writeError(w, r, err)
		return
	}
	query.ApplyDefaults(q)

	page, err := s.store.List(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

// handleGetRun serves GET /v1/runs/{id}.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, artifact)
}

// handleDownloadRun serves GET /v1/runs/{id}/download, returning the exact
// persisted bytes so external hash verification sees what the store sees.
func (s *Server) handleDownloadRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	raw, err := s.store.GetRaw(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// handlePatchMeta serves PATCH /v1/runs/{id}/meta. The body is a MetaPatch:
// meta keys merge, advisory inputs append, core fields stay untouched.
func (s *Server) handlePatchMeta(w http.ResponseWriter, r *http.Request) {
	var patch ledger.MetaPatch

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		s.writeError(w, r, ledger.NewValidationError("body", fmt.Sprintf("invalid meta patch: %v", err)))
		return
	}

	updated, err := s.store.PatchMeta(r.Context(), r.PathValue("id"), &patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleDiff serves GET /v1/diff?a=<run>&b=<run>. max_items caps the entry
// count; truncation keeps the lexicographically first paths so repeated
// calls with the same cap return the same entries.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	runA := params.Get("a")
	runB := params.Get("b")
	if runA == "" || runB == "" {
		s.writeError(w, r, ledger.NewValidationError("query", "both a and b run ids are required"))
		return
	}

	maxItems := diff.DefaultMaxItems
	if raw := params.Get("max_items"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, ledger.NewValidationError("max_items", fmt.Sprintf("must be a positive integer, got %q", raw)))
			return
		}
		maxItems = n
	}

	a, err := s.store.Get(r.Context(), runA)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.store.Get(r.Context(), runB)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entries, err := diff.Artifacts(a, b, maxItems)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"run_a":   a.RunID,
		"run_b":   b.RunID,
		"total":   len(entries),
		"entries": entries,
	})
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: invalid input is 400,
// an unknown run is 404, and everything else is a 500 with the detail kept
// in the server log rather than the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *ledger.ValidationError
		queryErr      *ledger.QueryError
		notFoundErr   *ledger.NotFoundError
	)

	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.As(err, &validationErr), errors.As(err, &queryErr):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
		message = err.Error()
	default:
		s.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
	}

	s.writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": RequestIDFromContext(r.Context()),
	})
}
