package homework

import (
	"context"
	"runtime/debug"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/homework-backend/internal/platform/envutil"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// Dispatcher runs submitted work on background goroutines, capped by a
// weighted semaphore so a burst of uploads cannot spawn unbounded workers.
// Submission is fire-and-forget: callers get no completion signal and must
// observe progress through the store.
type Dispatcher struct {
	log *logger.Logger
	sem *semaphore.Weighted
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	limit := int64(envutil.Int("HOMEWORK_WORKER_LIMIT", 16))
	if limit <= 0 {
		limit = 16
	}
	return &Dispatcher{
		log: log.With("service", "Dispatcher"),
		sem: semaphore.NewWeighted(limit),
	}
}

// Submit schedules fn. The function receives a fresh background context;
// request contexts are deliberately not propagated, work outlives the
// triggering request. Panics are recovered and logged so one bad step
// cannot take down the process.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context)) {
	go func() {
		ctx := context.Background()
		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.log.Error("background task not scheduled", "task", name, "error", err)
			return
		}
		defer d.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("background task panicked",
					"task", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn(ctx)
	}()
}
