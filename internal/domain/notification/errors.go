// internal/domain/notification/errors.go
package notification

import "fmt"

// SummaryShapeError indicates the summary query returned a row count other
// than exactly one. The summary notification is skipped rather than guessing
// which row to use.
type SummaryShapeError struct {
	QueryID int64
	Rows    int
}

func (e *SummaryShapeError) Error() string {
	return fmt.Sprintf("summary query %d returned %d rows, expected exactly 1", e.QueryID, e.Rows)
}
