package upload

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Background runs detached upload jobs bound to a base context that outlives
// the request which started them. At most maxConcurrent jobs run at once;
// the rest wait for a slot while their tasks stay queued.
type Background struct {
	base   context.Context
	sem    chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

func NewBackground(base context.Context, maxConcurrent int, logger *zap.Logger) *Background {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Background{
		base:   base,
		sem:    make(chan struct{}, maxConcurrent),
		logger: logger,
	}
}

// Submit schedules job. If the base context ends before a slot frees up the
// job still runs, with the cancelled context, so it can record its failure.
func (b *Background) Submit(taskID string, job func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if recovered := recover(); recovered != nil {
				b.logger.Error("background upload panicked", zap.String("task_id", taskID), zap.Any("panic", recovered))
			}
		}()

		select {
		case b.sem <- struct{}{}:
			defer func() { <-b.sem }()
		case <-b.base.Done():
		}
		job(b.base)
	}()
}

// Wait blocks until every submitted job returned or ctx ends.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
