// Package scheduler runs a task once a day at a fixed UTC wall-clock time.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"dealflow/internal/logging"
)

// Task is one scheduled unit of work.
type Task func(ctx context.Context) error

// Daily fires a task every day at Hour:Minute UTC.
type Daily struct {
	hour   int
	minute int
	logger *slog.Logger

	now      func() time.Time
	newTimer func(time.Duration) (<-chan time.Time, func() bool)
}

// NewDaily builds a daily schedule. Out-of-range values are clamped.
func NewDaily(hour, minute int, logger *slog.Logger) *Daily {
	return &Daily{
		hour:   min(max(hour, 0), 23),
		minute: min(max(minute, 0), 59),
		logger: logging.NewComponentLogger(logger, "scheduler"),
		now:    time.Now,
		newTimer: func(d time.Duration) (<-chan time.Time, func() bool) {
			t := time.NewTimer(d)
			return t.C, t.Stop
		},
	}
}

// Next returns the first run time strictly after from.
func (d *Daily) Next(from time.Time) time.Time {
	from = from.UTC()
	next := time.Date(from.Year(), from.Month(), from.Day(), d.hour, d.minute, 0, 0, time.UTC)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is cancelled, invoking task at each scheduled time.
// Task errors are logged and do not stop the schedule.
func (d *Daily) Run(ctx context.Context, name string, task Task) {
	for {
		next := d.Next(d.now())
		wait := next.Sub(d.now())
		d.logger.Info("next run scheduled",
			logging.String("task", name),
			logging.String("at", next.Format(time.RFC3339)),
		)

		fired, stop := d.newTimer(wait)
		select {
		case <-ctx.Done():
			stop()
			return
		case <-fired:
		}

		start := time.Now()
		if err := task(ctx); err != nil {
			logging.WarnWithContext(d.logger, "scheduled task failed", "scheduled_task_failed",
				logging.String("task", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "see the task's own log lines"),
				logging.String(logging.FieldImpact, "retried at the next scheduled time"),
			)
			continue
		}
		d.logger.Info("scheduled task finished",
			logging.String("task", name),
			logging.Duration("duration", time.Since(start)),
		)
	}
}
