package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/internal/pipeline"
)

// RunScheduler periodically triggers a full curation run, for deployments
// where inbound files are dropped on a schedule rather than pushed through
// the API.
type RunScheduler struct {
	logger   *zap.Logger
	pipe     *pipeline.Pipeline
	interval time.Duration
	stopCh   chan struct{}
}

// NewRunScheduler constructs a background job that runs periodically.
func NewRunScheduler(logger *zap.Logger, pipe *pipeline.Pipeline, interval time.Duration) *RunScheduler {
	return &RunScheduler{
		logger:   logger,
		pipe:     pipe,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the scheduling loop until stopped or the context ends.
func (r *RunScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("run_scheduler.started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ticker.C:
			if _, err := r.pipe.Execute(ctx); err != nil {
				r.logger.Error("run_scheduler.run_failed", zap.Error(err))
			}
		case <-r.stopCh:
			r.logger.Info("run_scheduler.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("run_scheduler.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the scheduler.
func (r *RunScheduler) Stop() {
	close(r.stopCh)
}
