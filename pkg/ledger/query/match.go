package query

import (
	"strings"
	"time"

	"tonewood-hq/vulcan/pkg/ledger"
)

// Matches reports whether an artifact satisfies every filter in the query.
// Date bounds are inclusive and resolved at day granularity, matching the
// store's date partitioning.
func Matches(a *ledger.RunArtifact, q *ledger.Query) bool {
	if q.Status != "" && a.Status != q.Status {
		return false
	}
	if q.Mode != "" && a.Mode != q.Mode {
		return false
	}
	if q.ToolIDPrefix != "" && !strings.HasPrefix(a.ToolID, q.ToolIDPrefix) {
		return false
	}
	if q.RiskLevel != "" && a.Decision.RiskLevel != q.RiskLevel {
		return false
	}
	if q.PresetID != "" && a.PresetID != q.PresetID {
		return false
	}

	day := a.CreatedAtUTC.UTC().Truncate(24 * time.Hour)
	if q.DateFrom != nil && day.Before(q.DateFrom.UTC().Truncate(24*time.Hour)) {
		return false
	}
	if q.DateTo != nil && day.After(q.DateTo.UTC().Truncate(24*time.Hour)) {
		return false
	}

	return true
}

// PartitionInRange reports whether a date partition name ("2006-01-02")
// can contain artifacts matching the query's date bounds. Stores use it to
// skip whole partitions without opening any file in them.
func PartitionInRange(partition string, q *ledger.Query) bool {
	if q.DateFrom != nil && partition < q.DateFrom.UTC().Format("2006-01-02") {
		return false
	}
	if q.DateTo != nil && partition > q.DateTo.UTC().Format("2006-01-02") {
		return false
	}
	return true
}
