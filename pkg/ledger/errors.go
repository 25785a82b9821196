package ledger

import "fmt"

// StorageError wraps a failure of a storage backend. Op names the step,
// e.g. "store", "query" or "create_schema".
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// NewStorageError returns a *StorageError for backend and op.
func NewStorageError(backend, op string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: op, Cause: cause}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// RetentionError is returned by the pruner when old records could not be
// removed.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("ledger prune (keep %dd): %v", e.RetentionDays, e.Cause)
}

func (e *RetentionError) Unwrap() error { return e.Cause }

// ExportError is returned when records could not be written out.
type ExportError struct {
	Format      string
	RecordCount int
	Cause       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("ledger export of %d records as %s: %v", e.RecordCount, e.Format, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }
