package app

import (
	"context"
	"testing"

	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryRenderer() *notification.RowRenderer {
	return &notification.RowRenderer{
		Title: "24h Summary",
		Columns: []notification.ColumnMapping{
			{Column: "total_volume", Label: "Total volume"},
			{Column: "tx_count", Label: "Transactions"},
		},
	}
}

func TestSummarizeSingleRow(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(8, &queryScript{
		statuses: []query.Status{query.StatusCompleted},
		pages: [][]query.Row{
			{{"total_volume": "1.5M USD", "tx_count": float64(37)}},
		},
	})
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())
	agg := NewSummaryAggregator(executor, summaryRenderer(), testLogger())

	unit, err := agg.Summarize(context.Background(), query.Job{QueryID: 8})
	require.NoError(t, err)

	assert.Equal(t, "24h Summary", unit.Title)
	require.Len(t, unit.Fields, 2)
	assert.Equal(t, "Total volume", unit.Fields[0].Name)
	assert.Equal(t, "1.5M USD", unit.Fields[0].Value)
	assert.Equal(t, "Transactions", unit.Fields[1].Name)
	assert.Equal(t, "37", unit.Fields[1].Value)
}

func TestSummarizeRejectsWrongRowCount(t *testing.T) {
	cases := []struct {
		name  string
		pages [][]query.Row
		rows  int
	}{
		{name: "zero rows", pages: [][]query.Row{{}}, rows: 0},
		{name: "two rows", pages: [][]query.Row{{{"a": float64(1)}, {"a": float64(2)}}}, rows: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeQueryService()
			svc.script(8, &queryScript{
				statuses: []query.Status{query.StatusCompleted},
				pages:    tc.pages,
			})
			executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())
			agg := NewSummaryAggregator(executor, summaryRenderer(), testLogger())

			unit, err := agg.Summarize(context.Background(), query.Job{QueryID: 8})
			require.Nil(t, unit)

			var shapeErr *notification.SummaryShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, int64(8), shapeErr.QueryID)
			assert.Equal(t, tc.rows, shapeErr.Rows)
		})
	}
}

func TestSummarizePropagatesExecutionError(t *testing.T) {
	svc := newFakeQueryService()
	svc.script(8, &queryScript{
		statuses: []query.Status{query.StatusFailed},
		detail:   "aggregate overflow",
	})
	executor := NewQueryExecutor(svc, fastPollPolicy(), testLogger())
	agg := NewSummaryAggregator(executor, summaryRenderer(), testLogger())

	_, err := agg.Summarize(context.Background(), query.Job{QueryID: 8})
	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
}
