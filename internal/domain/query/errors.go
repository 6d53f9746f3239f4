// internal/domain/query/errors.go
package query

import (
	"fmt"
	"time"
)

// ExecutionError indicates the remote service reported the execution as
// failed, or a step of driving it (submission, fetching results) failed
// terminally. Detail carries the remote error description when available.
type ExecutionError struct {
	QueryID     int64
	ExecutionID string
	Detail      string
}

func (e *ExecutionError) Error() string {
	if e.ExecutionID != "" {
		return fmt.Sprintf("query %d execution %s failed: %s", e.QueryID, e.ExecutionID, e.Detail)
	}
	return fmt.Sprintf("query %d failed: %s", e.QueryID, e.Detail)
}

// TimeoutError indicates the execution never reached a terminal state within
// the configured overall wait. A best-effort cancellation is issued before
// this error is returned.
type TimeoutError struct {
	QueryID     int64
	ExecutionID string
	Waited      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query %d execution %s timed out after %s", e.QueryID, e.ExecutionID, e.Waited)
}
