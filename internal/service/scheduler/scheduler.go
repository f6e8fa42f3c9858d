package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"routedesk/pkg/trace"
)

// Job is one scheduled run. Runs never overlap.
type Job func(ctx context.Context) error

// CronScheduler runs a job on every tick of a cron expression.
type CronScheduler struct {
	name   string
	expr   string
	job    Job
	logger *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(name, expr string, job Job, logger *zap.Logger) (*CronScheduler, error) {
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression for %s: %q", name, expr)
	}
	return &CronScheduler{
		name:   name,
		expr:   expr,
		job:    job,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		sleep:  sleepCtx,
	}, nil
}

// Run blocks until ctx is cancelled.
func (s *CronScheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started", zap.String("job", s.name), zap.String("cron", s.expr))
	for {
		next, err := gronx.NextTickAfter(s.expr, s.now(), false)
		if err != nil {
			s.logger.Error("Failed to compute next tick", zap.String("job", s.name), zap.Error(err))
			if !s.sleep(ctx, 30*time.Second) {
				break
			}
			continue
		}

		if !s.sleep(ctx, next.Sub(s.now())) {
			break
		}
		s.runOnce(ctx)
	}
	s.logger.Info("Scheduler stopped", zap.String("job", s.name))
}

func (s *CronScheduler) runOnce(ctx context.Context) {
	traceID := trace.GenerateTraceID()
	ctx = trace.WithContext(ctx, traceID)

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", s.name),
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Scheduled job finished",
		zap.String("job", s.name),
		zap.String("trace_id", traceID),
		zap.Duration("took", time.Since(start)),
	)
}

// sleepCtx reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
