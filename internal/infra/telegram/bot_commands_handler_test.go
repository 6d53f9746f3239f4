package telegram

import (
	"testing"
	"time"

	"dune_notification_bot/internal/domain/schedule"
	"dune_notification_bot/internal/infra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary() *config.QueryLibrary {
	return &config.QueryLibrary{
		Queries: map[string]config.QuerySpec{
			"whale_transfers": {
				ID:    42,
				Title: "Whale Alert",
				Columns: []config.ColumnSpec{
					{Column: "amount", Label: "Amount"},
				},
			},
		},
	}
}

func TestResolveJobByLibraryName(t *testing.T) {
	job, renderer, err := resolveJob(testLibrary(), []string{"whale_transfers"})
	require.NoError(t, err)

	assert.Equal(t, int64(42), job.QueryID)
	assert.Equal(t, "whale_transfers", job.Name)
	require.NotNil(t, renderer)
	assert.Equal(t, "Whale Alert", renderer.Title)
	require.Len(t, renderer.Columns, 1)
}

func TestResolveJobByNumericID(t *testing.T) {
	job, renderer, err := resolveJob(testLibrary(), []string{"123456"})
	require.NoError(t, err)

	assert.Equal(t, int64(123456), job.QueryID)
	assert.Empty(t, job.Name)
	require.NotNil(t, renderer)
	// Unknown queries get the default all-columns rendering.
	assert.Empty(t, renderer.Columns)
	assert.Equal(t, "Dune Query #123456", renderer.Title)
}

func TestResolveJobRejectsBadInput(t *testing.T) {
	_, _, err := resolveJob(testLibrary(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage:")

	_, _, err = resolveJob(testLibrary(), []string{"no_such_query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_query")
}

func TestFormatStatusNeverRan(t *testing.T) {
	got := formatStatus(schedule.RunStatus{})
	assert.Contains(t, got, "Last run: never")
	assert.Contains(t, got, "Next run: not scheduled")
	assert.NotContains(t, got, "running right now")
}

func TestFormatStatusAfterSuccessfulRun(t *testing.T) {
	last := time.Date(2026, 8, 14, 14, 30, 0, 0, time.UTC)
	next := last.Add(24 * time.Hour)
	got := formatStatus(schedule.RunStatus{
		LastRunAt:   last,
		LastOutcome: "success: 3 row(s) sent",
		NextRunAt:   next,
	})

	assert.Contains(t, got, "Last run: "+last.Format(time.RFC1123))
	assert.Contains(t, got, "Last outcome: success: 3 row(s) sent")
	assert.Contains(t, got, "Next run: "+next.Format(time.RFC1123))
}

func TestFormatStatusWhileRunning(t *testing.T) {
	got := formatStatus(schedule.RunStatus{
		LastRunAt: time.Now(),
		Running:   true,
	})
	assert.Contains(t, got, "A cycle is running right now.")
}
