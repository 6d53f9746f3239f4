// internal/domain/notification/report.go
package notification

import "time"

// DispatchReport summarizes one dispatch of a result table: how many units
// were delivered, which row indexes failed after retries, and how long the
// whole batch took.
type DispatchReport struct {
	Sent       int
	Failed     int
	FailedRows []int
	Elapsed    time.Duration
}
