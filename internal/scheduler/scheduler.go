package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobdigest-engine/internal/logger"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx ends.
// Task errors are logged; they never stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *zap.Logger) {
	log = logger.OrNop(log).With(zap.String("task", name))
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil {
			log.Error("task failed", zap.Error(err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
