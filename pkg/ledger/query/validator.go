package query

import (
	"fmt"

	"tonewood-hq/vulcan/pkg/ledger"
)

const (
	// DefaultLimit is the page size used when a query does not specify one.
	DefaultLimit = 50

	// MaxLimit is the largest page size a single listing may return.
	// Requests above it are clamped, not rejected.
	MaxLimit = 200
)

// ValidStatuses contains the statuses a query may filter on.
var ValidStatuses = map[ledger.Status]bool{
	ledger.StatusOK:      true,
	ledger.StatusBlocked: true,
	ledger.StatusError:   true,
}

// ValidRiskLevels contains the risk levels a query may filter on.
var ValidRiskLevels = map[ledger.RiskLevel]bool{
	ledger.RiskGreen:   true,
	ledger.RiskYellow:  true,
	ledger.RiskRed:     true,
	ledger.RiskUnknown: true,
}

// Validate checks a listing query and returns a QueryError if any
// parameter is invalid. It does not mutate the query.
func Validate(q *ledger.Query) error {
	if q.Limit < 0 {
		return ledger.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}

	if q.Status != "" && !ValidStatuses[q.Status] {
		return ledger.NewQueryError(q, fmt.Errorf("invalid status: %s", q.Status))
	}

	if q.RiskLevel != "" && !ValidRiskLevels[q.RiskLevel] {
		return ledger.NewQueryError(q, fmt.Errorf("invalid risk level: %s", q.RiskLevel))
	}

	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return ledger.NewQueryError(q, fmt.Errorf("date_from must not be after date_to"))
	}

	if q.Cursor != "" {
		if _, _, err := DecodeCursor(q.Cursor); err != nil {
			return ledger.NewQueryError(q, fmt.Errorf("invalid cursor: %w", err))
		}
	}

	return nil
}

// ApplyDefaults applies defaults to a listing query and clamps the limit
// to the safe range [1, MaxLimit].
func ApplyDefaults(q *ledger.Query) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}
