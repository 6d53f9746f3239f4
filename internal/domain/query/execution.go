// internal/domain/query/execution.go
package query

import "time"

// Status represents the remote lifecycle state of one query execution.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusTimedOut  Status = "TIMED_OUT"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status is final. Transitions are driven only
// by polling responses from the remote service; a terminal handle never
// changes again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// Handle represents one in-flight or completed remote execution.
type Handle struct {
	QueryID     int64
	ExecutionID string
	Status      Status
	SubmittedAt time.Time
}
