package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"dune_notification_bot/internal/domain/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPollPolicy() PollPolicy {
	return PollPolicy{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
		MaxWait:         time.Second,
	}
}

func TestExecuteConcatenatesPagesInOrder(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(42, &queryScript{
		statuses: []query.Status{query.StatusPending, query.StatusPending, query.StatusCompleted},
		pages: [][]query.Row{
			{{"n": float64(1)}, {"n": float64(2)}},
			{{"n": float64(3)}},
		},
	})
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())

	table, err := executor.Execute(context.Background(), query.Job{QueryID: 42})
	require.NoError(t, err)

	require.Equal(t, 3, table.RowCount())
	for i, row := range table.Rows {
		v, ok := row.Column("n")
		require.True(t, ok)
		assert.Equal(t, float64(i+1), v)
	}
	assert.Equal(t, int64(42), table.QueryID)
	assert.Equal(t, "exec-42", table.ExecutionID)
	// One fetch sequence covering both pages, nothing more.
	assert.Equal(t, 2, svc.fetchCalls)
}

func TestExecuteEmptyResultIsSuccess(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(7, &queryScript{
		statuses: []query.Status{query.StatusCompleted},
		pages:    [][]query.Row{{}},
	})
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())

	table, err := executor.Execute(context.Background(), query.Job{QueryID: 7})
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
}

func TestExecuteRemoteFailure(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(7, &queryScript{
		statuses: []query.Status{query.StatusRunning, query.StatusFailed},
		detail:   "division by zero",
	})
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())

	_, err := executor.Execute(context.Background(), query.Job{QueryID: 7})
	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, int64(7), execErr.QueryID)
	assert.Contains(t, execErr.Detail, "division by zero")
}

func TestExecuteSubmitFailure(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(7, &queryScript{submitErr: errors.New("no credits left")})
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())

	_, err := executor.Execute(context.Background(), query.Job{QueryID: 7})
	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Detail, "no credits left")
}

func TestExecuteTimeoutCancelsExecution(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(9, &queryScript{
		statuses: []query.Status{query.StatusPending},
	})
	policy := fastPollPolicy()
	policy.MaxWait = 15 * time.Millisecond
	executor := NewQueryExecutor(svc, policy, testLogger())

	_, err := executor.Execute(context.Background(), query.Job{QueryID: 9})
	var timeoutErr *query.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int64(9), timeoutErr.QueryID)
	assert.Contains(t, svc.cancelledIDs(), "exec-9")
}

func TestExecuteContextCancellation(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(9, &queryScript{
		statuses: []query.Status{query.StatusPending},
	})
	policy := fastPollPolicy()
	policy.InitialInterval = 50 * time.Millisecond
	executor := NewQueryExecutor(svc, policy, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := executor.Execute(ctx, query.Job{QueryID: 9})
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, svc.cancelledIDs(), "exec-9")
}

func TestLatestBuildsTableWithoutExecution(t *testing.T) {
	svc := newFakeQueryService()
	svc.latestRows = []query.Row{{"total": float64(12)}}
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())

	table, err := executor.Latest(context.Background(), query.Job{QueryID: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
	assert.Empty(t, svc.cancelledIDs())
}
