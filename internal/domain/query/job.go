// internal/domain/query/job.go
package query

import "fmt"

// Job identifies a saved remote query to execute. It is immutable once
// constructed; the component that issues it owns it exclusively.
type Job struct {
	QueryID int64
	Name    string // optional human-readable name from the query library
}

func (j Job) String() string {
	if j.Name != "" {
		return fmt.Sprintf("%s (#%d)", j.Name, j.QueryID)
	}
	return fmt.Sprintf("#%d", j.QueryID)
}
