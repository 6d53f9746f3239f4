package scheduler

import (
	"context"
	"time"

	"dune_notification_bot/internal/app"
	"dune_notification_bot/internal/domain/schedule"
	"dune_notification_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const defaultCadence = 24 * time.Hour

// CycleRunner is the single entry point the scheduler drives once per
// trigger. Implemented by app.CycleService.
type CycleRunner interface {
	RunCycle(ctx context.Context, trigger schedule.Trigger) error
}

// DailyScheduler fires one cycle per day at the configured local
// time-of-day. The first trigger is the nearest future occurrence of that
// time; every following trigger is exactly the previous cycle's start plus
// 24 hours, never recomputed from the clock, so the cadence is immune to
// cycle duration and query latency.
type DailyScheduler struct {
	runner  CycleRunner
	tracker *app.StatusTracker
	logger  *logrus.Entry

	hour    int
	minute  int
	cadence time.Duration
	now     func() time.Time
}

func NewDailyScheduler(
	runner CycleRunner,
	tracker *app.StatusTracker,
	logger *logrus.Entry,
	timeOfDay config.TimeOfDay,
) *DailyScheduler {
	return &DailyScheduler{
		runner:  runner,
		tracker: tracker,
		logger:  logger.WithField("component", "scheduler"),
		hour:    timeOfDay.Hour,
		minute:  timeOfDay.Minute,
		cadence: defaultCadence,
		now:     time.Now,
	}
}

// NextTrigger computes the nearest future occurrence of the time-of-day:
// today if the reference instant is strictly before it, otherwise tomorrow.
func NextTrigger(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run drives the daily loop until the context is cancelled. A cycle failure
// never stops the loop; the error is recorded by the cycle driver and the
// next trigger is scheduled normally.
func (s *DailyScheduler) Run(ctx context.Context) error {
	next := NextTrigger(s.now(), s.hour, s.minute)
	s.logger.WithField("next_trigger", next.Format(time.RFC3339)).Info("Scheduler started")

	for {
		var err error
		next, err = s.waitAndRun(ctx, next)
		if err != nil {
			s.logger.Info("Scheduler stopped")
			return err
		}
	}
}

// waitAndRun sleeps until the trigger instant, runs one cycle, and returns
// the next trigger: cycle start plus the fixed cadence. Returns an error
// only on context cancellation.
func (s *DailyScheduler) waitAndRun(ctx context.Context, next time.Time) (time.Time, error) {
	s.tracker.SetNextRun(next)
	wait := next.Sub(s.now())
	s.logger.WithFields(logrus.Fields{
		"next_trigger": next.Format(time.RFC3339),
		"wait":         wait.String(),
	}).Info("Waiting for next trigger")

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()
		return next, ctx.Err()
	case <-timer.C:
	}

	started := s.now()
	if err := s.runner.RunCycle(ctx, schedule.TriggerTimer); err != nil {
		if ctx.Err() != nil {
			return next, ctx.Err()
		}
		s.logger.WithError(err).Error("Scheduled cycle failed; next trigger unchanged by the failure")
	}
	return started.Add(s.cadence), nil
}
