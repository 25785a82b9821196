package ledger

import (
	"context"
	"time"
)

// Record kinds.
const (
	KindChat = "chat"
	KindCopy = "copy"
)

// Record statuses. Chat turns use the relay outcomes; copy generations use
// completed or failed.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Record is the outcome of one generation. It never holds conversation or
// copy text, only sizes and classification.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the HTTP layer, if any

	// What ran
	Kind      string `json:"kind"`                 // chat or copy
	SessionID string `json:"session_id,omitempty"` // Chat turns only
	Scene     string `json:"scene,omitempty"`      // Copy generations only
	Model     string `json:"model"`

	// How it ended
	Status    string `json:"status"`
	ErrorType string `json:"error_type,omitempty"` // providers.ErrorType classification

	// Sizes in characters
	InputChars  int `json:"input_chars"`
	OutputChars int `json:"output_chars"`
	Chunks      int `json:"chunks"`

	// Timing
	CreatedAt time.Time     `json:"created_at"`
	Latency   time.Duration `json:"latency"`
}

// Query defines filter parameters for querying records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	Kind      string `json:"kind,omitempty"`
	Status    string `json:"status,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Scene     string `json:"scene,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Ascending returns the oldest records first; the default is newest first.
	Ascending bool `json:"ascending,omitempty"`
}

// Matches reports whether r satisfies the query filters. Pagination is not
// considered.
func (q *Query) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && r.CreatedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.CreatedAt.After(*q.EndTime) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.SessionID != "" && r.SessionID != q.SessionID {
		return false
	}
	if q.Scene != "" && r.Scene != q.Scene {
		return false
	}
	return true
}

// Storage defines the interface for ledger backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns how
	// many were deleted. Pagination fields are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}
