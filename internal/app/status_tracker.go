// internal/app/status_tracker.go
package app

import (
	"fmt"
	"sync"
	"time"

	"dune_notification_bot/internal/domain/schedule"
)

// StatusTracker records the outcome of cycles for the health-check surface.
// The cycle driver is the single writer; the bot command handlers read
// snapshots concurrently. Critical sections only copy the status value, so
// Snapshot never waits on an in-progress cycle.
type StatusTracker struct {
	mu     sync.Mutex
	status schedule.RunStatus
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

// RecordStart marks a cycle as running. The previous outcome stays visible
// until the cycle commits a new one.
func (t *StatusTracker) RecordStart(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastRunAt = at
	t.status.Running = true
}

// RecordSuccess commits a successful cycle with the number of rows sent.
func (t *StatusTracker) RecordSuccess(rowCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastOutcome = fmt.Sprintf("success: %d row(s) sent", rowCount)
	t.status.Running = false
}

// RecordFailure commits a failed cycle with the error summary.
func (t *StatusTracker) RecordFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastOutcome = fmt.Sprintf("error: %v", err)
	t.status.Running = false
}

// SetNextRun publishes the next scheduled trigger instant.
func (t *StatusTracker) SetNextRun(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.NextRunAt = at
}

// Snapshot returns a copy of the current status.
func (t *StatusTracker) Snapshot() schedule.RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
