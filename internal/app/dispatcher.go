// internal/app/dispatcher.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"
	"dune_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// SendRetryPolicy bounds delivery retries for a single notification unit.
// Formula per attempt: delay = min(initial * multiplier^(attempt-1), max),
// raised to the platform's retry-after hint when one is given.
type SendRetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

func DefaultSendRetryPolicy() SendRetryPolicy {
	return SendRetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

// delay calculates the wait before the next attempt after a failed attempt.
func (p SendRetryPolicy) delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// ResultDispatcher turns an ordered result table into a sequence of
// rate-limited notifications: one unit per row, in table order, with an
// enforced minimum delay between sends. A single bad row never aborts the
// remainder of the batch.
type ResultDispatcher struct {
	client telegram.Client
	retry  SendRetryPolicy
	logger *logrus.Entry
}

func NewResultDispatcher(client telegram.Client, retry SendRetryPolicy, logger *logrus.Entry) *ResultDispatcher {
	return &ResultDispatcher{
		client: client,
		retry:  retry,
		logger: logger.WithField("component", "result_dispatcher"),
	}
}

// Dispatch renders and sends one unit per row. The delay applies between
// sends, not before the first or after the last. The returned report is
// always non-nil; the error is non-nil only when the context was cancelled
// mid-batch, in which case the report covers the rows processed so far.
func (d *ResultDispatcher) Dispatch(
	ctx context.Context,
	table *query.ResultTable,
	chatID int64,
	renderer *notification.RowRenderer,
	delay time.Duration,
) (*notification.DispatchReport, error) {
	report := &notification.DispatchReport{}
	start := time.Now()
	defer func() { report.Elapsed = time.Since(start) }()

	total := table.RowCount()
	logCtx := d.logger.WithFields(logrus.Fields{"query_id": table.QueryID, "rows": total})
	if table.IsEmpty() {
		logCtx.Info("Result table is empty, nothing to send")
		return report, nil
	}
	logCtx.WithField("row_delay", delay.String()).Info("Dispatching result rows")

	for i, row := range table.Rows {
		if i > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}

		unit := renderer.Render(row)
		unit.Footer = fmt.Sprintf("Query #%d · row %d of %d", table.QueryID, i+1, total)

		if err := d.SendOne(ctx, chatID, unit); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logCtx.WithError(err).WithField("row", i).Error("Row delivery failed after retries, continuing with next row")
			report.Failed++
			report.FailedRows = append(report.FailedRows, i)
			continue
		}
		report.Sent++
	}

	logCtx.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Info("Dispatch finished")
	return report, nil
}

// SendOne delivers a single unit with bounded retries. Rate-limited and
// transient errors are retried with backoff; fatal errors are returned
// immediately.
func (d *ResultDispatcher) SendOne(ctx context.Context, chatID int64, unit notification.Unit) error {
	var lastErr error
	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		err := d.client.SendUnit(ctx, chatID, unit)
		if err == nil {
			return nil
		}
		lastErr = err

		var fatal *telegram.FatalError
		if errors.As(err, &fatal) {
			return err
		}
		if attempt == d.retry.MaxAttempts {
			break
		}

		wait := d.retry.delay(attempt)
		var rateLimited *telegram.RateLimitedError
		if errors.As(err, &rateLimited) && rateLimited.RetryAfter > wait {
			wait = rateLimited.RetryAfter
		}
		d.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":    attempt,
			"next_retry": wait.String(),
		}).Warn("Send failed, retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("delivery failed after %d attempts: %w", d.retry.MaxAttempts, lastErr)
}
