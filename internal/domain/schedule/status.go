// internal/domain/schedule/status.go
package schedule

import "time"

// Trigger identifies what initiated a cycle.
type Trigger string

const (
	TriggerTimer  Trigger = "TIMER"
	TriggerManual Trigger = "MANUAL"
)

// RunStatus is the snapshot exposed to the health-check surface. It is a
// value copy; readers never observe a cycle in progress, only the last
// fully-committed state plus the Running flag.
type RunStatus struct {
	LastRunAt   time.Time
	LastOutcome string
	NextRunAt   time.Time
	Running     bool
}
