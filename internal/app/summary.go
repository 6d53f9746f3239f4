// internal/app/summary.go
package app

import (
	"context"

	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"

	"github.com/sirupsen/logrus"
)

// SummaryAggregator runs the pre-defined summary query and renders its
// single row of aggregate totals as one notification unit. It reuses the
// executor's submission/polling algorithm.
type SummaryAggregator struct {
	executor *QueryExecutor
	renderer *notification.RowRenderer
	logger   *logrus.Entry
}

func NewSummaryAggregator(executor *QueryExecutor, renderer *notification.RowRenderer, logger *logrus.Entry) *SummaryAggregator {
	return &SummaryAggregator{
		executor: executor,
		renderer: renderer,
		logger:   logger.WithField("component", "summary_aggregator"),
	}
}

// Summarize executes the summary job and returns the rendered unit. A row
// count other than exactly one is a configuration/data error reported as
// *notification.SummaryShapeError; no unit is produced in that case.
func (a *SummaryAggregator) Summarize(ctx context.Context, job query.Job) (*notification.Unit, error) {
	logCtx := a.logger.WithField("query_id", job.QueryID)
	logCtx.Info("Executing summary query")

	table, err := a.executor.Execute(ctx, job)
	if err != nil {
		return nil, err
	}
	if table.RowCount() != 1 {
		logCtx.WithField("rows", table.RowCount()).Error("Summary query returned an unexpected row count")
		return nil, &notification.SummaryShapeError{QueryID: job.QueryID, Rows: table.RowCount()}
	}

	unit := a.renderer.Render(table.Rows[0])
	logCtx.Info("Summary rendered")
	return &unit, nil
}
