package ledger

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// runIDPattern is the only accepted shape for a run id: a fixed prefix, the
// creation date, and a UUID v4. Anything else, in particular anything
// resembling a path separator or a parent-directory reference, is rejected
// before a filesystem path is ever constructed from the id.
var runIDPattern = regexp.MustCompile(`^run-\d{8}-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NewRunID generates a run id for an artifact created at the given time.
func NewRunID(createdAt time.Time) string {
	return fmt.Sprintf("run-%s-%s", createdAt.UTC().Format("20060102"), uuid.New().String())
}

// ValidateRunID checks an externally-supplied run id against the fixed
// pattern. It returns a ValidationError for anything that does not match.
func ValidateRunID(runID string) error {
	if !runIDPattern.MatchString(runID) {
		return NewValidationError("run_id", fmt.Sprintf("malformed run id %q", runID))
	}
	return nil
}

// PartitionFor returns the date partition directory name for a creation
// time, e.g. "2026-08-30". Artifacts are grouped by partition so listing
// can skip irrelevant date ranges without opening files.
func PartitionFor(createdAt time.Time) string {
	return createdAt.UTC().Format("2006-01-02")
}
