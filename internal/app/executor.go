// internal/app/executor.go
package app

import (
	"context"
	"fmt"
	"time"

	"dune_notification_bot/internal/domain/query"

	"github.com/sirupsen/logrus"
)

// PollPolicy bounds the status polling loop as data: a capped-exponential
// interval between polls and an overall wait limit. No implicit infinite
// loops; when MaxWait elapses without a terminal state the execution is
// cancelled best-effort and a TimeoutError is returned.
type PollPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxWait         time.Duration
}

// DefaultPollPolicy matches the remote service's typical completion times:
// poll quickly at first, back off to a capped interval, give up after a
// minute.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialInterval: 2 * time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      1.5,
		MaxWait:         60 * time.Second,
	}
}

// nextInterval grows the poll interval, capped at MaxInterval.
func (p PollPolicy) nextInterval(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * p.Multiplier)
	if next > p.MaxInterval {
		next = p.MaxInterval
	}
	if next < current {
		// Multiplier below 1 keeps the interval fixed.
		next = current
	}
	return next
}

// QueryExecutor submits a query to the remote analytics service and drives
// it to completion: submit, poll on a bounded backoff schedule, then fetch
// all result pages in order.
type QueryExecutor struct {
	service query.Service
	policy  PollPolicy
	logger  *logrus.Entry
}

func NewQueryExecutor(service query.Service, policy PollPolicy, logger *logrus.Entry) *QueryExecutor {
	return &QueryExecutor{
		service: service,
		policy:  policy,
		logger:  logger.WithField("component", "query_executor"),
	}
}

// Execute runs the job and returns its full ordered result table. An empty
// table is a valid success. Errors are *query.ExecutionError for remote
// failures and *query.TimeoutError when no terminal state was reached within
// the policy's MaxWait.
func (e *QueryExecutor) Execute(ctx context.Context, job query.Job) (*query.ResultTable, error) {
	logCtx := e.logger.WithField("query_id", job.QueryID)
	logCtx.Info("Submitting query execution")

	executionID, err := e.service.Submit(ctx, job.QueryID)
	if err != nil {
		return nil, &query.ExecutionError{QueryID: job.QueryID, Detail: fmt.Sprintf("submit: %v", err)}
	}

	handle := query.Handle{
		QueryID:     job.QueryID,
		ExecutionID: executionID,
		Status:      query.StatusPending,
		SubmittedAt: time.Now(),
	}
	logCtx = logCtx.WithField("execution_id", executionID)
	logCtx.Info("Execution submitted, polling for completion")

	deadline := handle.SubmittedAt.Add(e.policy.MaxWait)
	interval := e.policy.InitialInterval

	for {
		status, detail, pollErr := e.service.Poll(ctx, executionID)
		switch {
		case pollErr != nil:
			// Poll failures are transient until the overall bound elapses.
			logCtx.WithError(pollErr).Warn("Status poll failed, will retry")
		case status == query.StatusCompleted:
			handle.Status = status
			return e.fetchAll(ctx, job, executionID, logCtx)
		case status == query.StatusFailed:
			handle.Status = status
			if detail == "" {
				detail = "remote execution failed"
			}
			logCtx.WithField("detail", detail).Error("Execution failed remotely")
			return nil, &query.ExecutionError{QueryID: job.QueryID, ExecutionID: executionID, Detail: detail}
		case status == query.StatusCancelled:
			handle.Status = status
			return nil, &query.ExecutionError{QueryID: job.QueryID, ExecutionID: executionID, Detail: "execution was cancelled by the remote service"}
		default:
			handle.Status = status
		}

		if time.Now().After(deadline) {
			handle.Status = query.StatusTimedOut
			e.cancelBestEffort(executionID, logCtx)
			waited := time.Since(handle.SubmittedAt)
			logCtx.WithField("waited", waited.String()).Error("Execution timed out")
			return nil, &query.TimeoutError{QueryID: job.QueryID, ExecutionID: executionID, Waited: waited}
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			e.cancelBestEffort(executionID, logCtx)
			return nil, ctx.Err()
		}
		interval = e.policy.nextInterval(interval)
	}
}

// fetchAll retrieves every result page in order and concatenates the rows,
// preserving row order.
func (e *QueryExecutor) fetchAll(ctx context.Context, job query.Job, executionID string, logCtx *logrus.Entry) (*query.ResultTable, error) {
	var rows []query.Row
	for page := 0; ; page++ {
		pageRows, hasMore, err := e.service.FetchResults(ctx, executionID, page)
		if err != nil {
			return nil, &query.ExecutionError{
				QueryID:     job.QueryID,
				ExecutionID: executionID,
				Detail:      fmt.Sprintf("fetch results page %d: %v", page, err),
			}
		}
		rows = append(rows, pageRows...)
		if !hasMore {
			break
		}
	}
	logCtx.WithField("rows", len(rows)).Info("Execution completed")
	return &query.ResultTable{QueryID: job.QueryID, ExecutionID: executionID, Rows: rows}, nil
}

// Latest returns the most recent stored result rows for the job's query
// without triggering a new execution.
func (e *QueryExecutor) Latest(ctx context.Context, job query.Job) (*query.ResultTable, error) {
	rows, err := e.service.LatestResults(ctx, job.QueryID)
	if err != nil {
		return nil, &query.ExecutionError{QueryID: job.QueryID, Detail: fmt.Sprintf("latest results: %v", err)}
	}
	return &query.ResultTable{QueryID: job.QueryID, Rows: rows}, nil
}

// cancelBestEffort asks the remote service to stop an execution we gave up
// on. Uses a fresh short-lived context so a cancelled cycle context does not
// suppress the request.
func (e *QueryExecutor) cancelBestEffort(executionID string, logCtx *logrus.Entry) {
	cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.service.Cancel(cancelCtx, executionID); err != nil {
		logCtx.WithError(err).Warn("Best-effort cancellation failed")
	}
}
