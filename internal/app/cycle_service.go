// internal/app/cycle_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"
	"dune_notification_bot/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrCycleInProgress is returned when a cycle trigger arrives while another
// cycle is still running. At most one cycle is ever active.
var ErrCycleInProgress = errors.New("a notification cycle is already in progress")

// CycleConfig carries the static parameters of the scheduled cycle.
type CycleConfig struct {
	MainJob         query.Job
	SummaryJob      *query.Job // nil disables the summary step
	ChatID          int64
	RowDelay        time.Duration
	RowRenderer     *notification.RowRenderer
	SummaryRenderer *notification.RowRenderer
}

// CycleService drives one full cycle: main query execution, per-row
// dispatch, then the optional aggregate summary. The timer and the manual
// trigger share this single code path; only the trigger source differs.
// All per-cycle errors are recorded in the StatusTracker and never escape
// past the cycle boundary into the scheduling loop.
type CycleService struct {
	executor   *QueryExecutor
	dispatcher *ResultDispatcher
	summary    *SummaryAggregator
	tracker    *StatusTracker
	cfg        CycleConfig
	logger     *logrus.Entry
	running    atomic.Bool
}

func NewCycleService(
	executor *QueryExecutor,
	dispatcher *ResultDispatcher,
	summary *SummaryAggregator,
	tracker *StatusTracker,
	cfg CycleConfig,
	logger *logrus.Entry,
) *CycleService {
	return &CycleService{
		executor:   executor,
		dispatcher: dispatcher,
		summary:    summary,
		tracker:    tracker,
		cfg:        cfg,
		logger:     logger.WithField("component", "cycle_service"),
	}
}

// RunCycle executes one cycle. The returned error is informational for the
// caller (the scheduler logs it and keeps its cadence); the authoritative
// record is the StatusTracker.
func (s *CycleService) RunCycle(ctx context.Context, trigger schedule.Trigger) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	defer s.running.Store(false)

	logCtx := s.logger.WithFields(logrus.Fields{
		"correlation_id": uuid.NewString(),
		"trigger":        trigger,
		"query_id":       s.cfg.MainJob.QueryID,
	})
	logCtx.Info("Cycle started")
	s.tracker.RecordStart(time.Now())

	table, err := s.executor.Execute(ctx, s.cfg.MainJob)
	if err != nil {
		// No partial notifications for a cycle that failed before dispatch.
		logCtx.WithError(err).Error("Main query failed, cycle aborted")
		s.tracker.RecordFailure(err)
		return err
	}

	report, err := s.dispatcher.Dispatch(ctx, table, s.cfg.ChatID, s.cfg.RowRenderer, s.cfg.RowDelay)
	if err != nil {
		dispatchErr := fmt.Errorf("dispatch interrupted after %d of %d rows: %w", report.Sent, table.RowCount(), err)
		logCtx.WithError(err).Warn("Dispatch interrupted")
		s.tracker.RecordFailure(dispatchErr)
		return dispatchErr
	}

	if s.cfg.SummaryJob != nil {
		if err := s.runSummary(ctx, logCtx, report); err != nil {
			return err
		}
	}

	logCtx.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Info("Cycle completed")
	s.tracker.RecordSuccess(report.Sent)
	return nil
}

// runSummary appends the aggregate summary notification after the per-row
// dispatch. A summary failure is recorded but never rolls back or repeats
// the already-sent row notifications.
func (s *CycleService) runSummary(ctx context.Context, logCtx *logrus.Entry, report *notification.DispatchReport) error {
	unit, err := s.summary.Summarize(ctx, *s.cfg.SummaryJob)
	if err != nil {
		summaryErr := fmt.Errorf("sent %d row(s), summary step failed: %w", report.Sent, err)
		logCtx.WithError(err).Error("Summary step failed")
		s.tracker.RecordFailure(summaryErr)
		return summaryErr
	}
	if err := s.dispatcher.SendOne(ctx, s.cfg.ChatID, *unit); err != nil {
		summaryErr := fmt.Errorf("sent %d row(s), summary notification failed: %w", report.Sent, err)
		logCtx.WithError(err).Error("Summary notification failed")
		s.tracker.RecordFailure(summaryErr)
		return summaryErr
	}
	return nil
}

// RunQuery executes an ad-hoc query and dispatches its rows to the given
// chat through the same execution and dispatch path as the scheduled cycle.
// Used by the interactive command surface; it does not touch the scheduled
// cycle's status record.
func (s *CycleService) RunQuery(
	ctx context.Context,
	job query.Job,
	chatID int64,
	renderer *notification.RowRenderer,
) (*notification.DispatchReport, error) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"correlation_id": uuid.NewString(),
		"trigger":        schedule.TriggerManual,
		"query_id":       job.QueryID,
	})
	logCtx.Info("Ad-hoc query started")

	table, err := s.executor.Execute(ctx, job)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Dispatch(ctx, table, chatID, renderer, s.cfg.RowDelay)
}

// RunLatest dispatches the most recent stored results of a query to the
// given chat, without triggering a new remote execution.
func (s *CycleService) RunLatest(
	ctx context.Context,
	job query.Job,
	chatID int64,
	renderer *notification.RowRenderer,
) (*notification.DispatchReport, error) {
	table, err := s.executor.Latest(ctx, job)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Dispatch(ctx, table, chatID, renderer, s.cfg.RowDelay)
}
