// Package jobs runs the periodic reconciliation work that keeps sessions and
// slots consistent with the passage of time.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of periodic work. Run must be safe to call while the API
// mutates the same rows.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Runner struct {
	jobs     []Job
	interval time.Duration
	logger   *zap.Logger
}

func NewRunner(interval time.Duration, logger *zap.Logger, jobs ...Job) *Runner {
	return &Runner{
		jobs:     jobs,
		interval: interval,
		logger:   logger.Named("jobs"),
	}
}

// Run starts every job immediately and then once per interval until ctx is
// cancelled. Jobs run concurrently; a failing run is logged and retried on
// the next tick.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting background jobs", zap.Duration("interval", r.interval), zap.Int("jobs", len(r.jobs)))

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range r.jobs {
		g.Go(func() error {
			r.loop(gctx, job)
			return nil
		})
	}
	err := g.Wait()

	r.logger.Info("background jobs stopped")
	return err
}

func (r *Runner) loop(ctx context.Context, job Job) {
	r.runJob(ctx, job)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runJob(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce runs every job once, concurrently, and returns their combined errors.
func (r *Runner) RunOnce(ctx context.Context) error {
	errs := make([]error, len(r.jobs))
	var g errgroup.Group
	for i, job := range r.jobs {
		g.Go(func() error {
			errs[i] = r.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (r *Runner) runJob(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("job failed", zap.String("job", job.Name()), zap.Error(err))
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	r.logger.Debug("job finished", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)))
	return nil
}
