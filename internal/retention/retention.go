// Package retention prunes conversation turns older than a configured age.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ashureev/recovery-coach/internal/shared"
)

// Pruner deletes conversation turns recorded before a cutoff.
type Pruner interface {
	DeleteConversationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Worker runs Sweep on a cron schedule.
type Worker struct {
	repo     Pruner
	maxAge   time.Duration
	schedule string
	now      func() time.Time
	cron     *cron.Cron
}

// NewWorker creates a retention worker. schedule uses standard cron syntax
// or descriptors such as "@daily".
func NewWorker(repo Pruner, maxAge time.Duration, schedule string) (*Worker, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be > 0, got %s", maxAge)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse retention schedule %q: %w", schedule, err)
	}
	return &Worker{
		repo:     repo,
		maxAge:   maxAge,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Sweep deletes turns older than maxAge. SQLITE_BUSY failures are retried.
func (w *Worker) Sweep(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.maxAge)
	var deleted int64
	err := shared.RetryOnConflict(ctx, 3, 100*time.Millisecond, "retention_sweep", func() error {
		n, err := w.repo.DeleteConversationsBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("retention sweep before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return deleted, nil
}

// Run sweeps on schedule until ctx is cancelled, then waits for an
// in-flight sweep to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.schedule, func() { w.sweepAndLog(ctx) }); err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}
	w.cron.Start()
	slog.Info("retention worker started", "schedule", w.schedule, "max_age", w.maxAge)

	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()
	slog.Info("retention worker shutting down", "reason", ctx.Err())
	return nil
}

func (w *Worker) sweepAndLog(ctx context.Context) {
	deleted, err := w.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("retention sweep canceled", "error", err)
			return
		}
		slog.Error("retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("retention sweep removed conversation turns", "count", deleted)
	}
}
