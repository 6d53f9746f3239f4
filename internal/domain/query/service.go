// internal/domain/query/service.go
package query

import "context"

// Service defines the remote analytics service operations the executor
// drives. This decouples the execution algorithm from the concrete HTTP
// client in the infra layer.
type Service interface {
	// Submit starts an execution of the query and returns the execution ID
	// assigned by the remote service.
	Submit(ctx context.Context, queryID int64) (string, error)

	// Poll returns the current status of an execution. For failed
	// executions the second value carries the remote error detail.
	Poll(ctx context.Context, executionID string) (Status, string, error)

	// FetchResults returns one page of result rows in order, and whether
	// more pages follow. Pages are zero-indexed.
	FetchResults(ctx context.Context, executionID string, page int) ([]Row, bool, error)

	// Cancel requests cancellation of an in-flight execution. Best effort:
	// callers ignore its error beyond logging.
	Cancel(ctx context.Context, executionID string) error

	// LatestResults returns the most recent stored result rows for a query
	// without triggering a new execution.
	LatestResults(ctx context.Context, queryID int64) ([]Row, error)
}
