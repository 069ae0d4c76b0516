// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"croco_webapp/internal/logger"
)

// Job is one tick of a periodic task.
type Job func(ctx context.Context) error

// Every runs job once immediately and then every interval until ctx is done.
// Errors and panics are logged and the loop keeps going. It returns nil when
// ctx is cancelled, so it can be run directly under an errgroup.
func Every(ctx context.Context, interval time.Duration, name string, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler %s: interval must be positive", name)
	}

	log := logger.With("component", "scheduler", "job", name)
	log.Info("job started", "interval", interval.String())

	run(ctx, name, job)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("job stopped")
			return nil
		case <-ticker.C:
			run(ctx, name, job)
		}
	}
}

func run(ctx context.Context, name string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "job", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	if err := job(ctx); err != nil {
		logger.Error("job failed", "job", name, "error", err, "took", time.Since(start).String())
		return
	}
	logger.Debug("job done", "job", name, "took", time.Since(start).String())
}
