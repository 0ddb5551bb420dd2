package ledger

import "fmt"

// ValidationError indicates a malformed identifier or input. It is returned
// before any filesystem path or SQL statement is constructed from the value.
type ValidationError struct {
	Field   string // Field that failed validation ("run_id", "limit", ...)
	Message string // Why it failed
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError indicates an unknown run id or token id. Corrupt stored
// records are also surfaced as NotFoundError to callers; the corruption
// itself is logged at the store.
type NotFoundError struct {
	Kind string // What was looked up ("run", "token")
	ID   string // The identifier that was not found
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// CorruptRecordError indicates a stored artifact that could not be decoded.
// It is recovered locally by the store and never escapes to policy engines;
// callers see a NotFoundError instead.
type CorruptRecordError struct {
	RunID string
	Cause error
}

// Error implements the error interface.
func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record [run_id=%s]: %v", e.RunID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CorruptRecordError) Unwrap() error {
	return e.Cause
}

// NewCorruptRecordError creates a new CorruptRecordError.
func NewCorruptRecordError(runID string, cause error) *CorruptRecordError {
	return &CorruptRecordError{RunID: runID, Cause: cause}
}

// StorageError represents an I/O failure in a storage backend. Store
// methods report it as a return value; it is never thrown past the store
// boundary as a panic.
type StorageError struct {
	Backend   string // Storage backend type ("fs", "sqlite", "memory")
	Operation string // Operation that failed ("put", "get", "patch_meta", "list")
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// QueryError represents an invalid listing query.
type QueryError struct {
	Query *Query
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(q *Query, cause error) *QueryError {
	return &QueryError{Query: q, Cause: cause}
}
