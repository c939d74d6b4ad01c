package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/utkarsh5026/fibload/internal/types"
)

var (
	ErrSchedulerClosed error = errors.New("scheduler is closed")

	// ErrTaskPanic wraps a panic raised by a task's process function.
	ErrTaskPanic = errors.New("worker panic")
)

type workerRunner[T, R any] struct {
	config *ProcessorConfig[T, R]
}

func newWorkerRunner[T, R any](conf *ProcessorConfig[T, R]) *workerRunner[T, R] {
	return &workerRunner[T, R]{config: conf}
}

// Execute runs one submitted task and hands its result to h.
// Task errors are delivered through the result and never stop the worker.
func (w *workerRunner[T, R]) Execute(ctx context.Context, s *types.SubmittedTask[T, R], f types.ProcessFunc[T, R], h types.ResultHandler[T, R]) {
	result, err := w.executeTask(ctx, s.Task, f)
	if err != nil {
		w.config.Logger.Debug("task failed", zap.Int64("task_id", s.Id), zap.Error(err))
	}
	h(s, types.NewResult(result, s.Id, err))
}

// executeTask handles rate limiting, hook execution (BeforeTaskStart and OnTaskEnd), and task processing.
func (w *workerRunner[T, R]) executeTask(
	ctx context.Context,
	task T,
	f types.ProcessFunc[T, R],
) (R, error) {
	if w.config.RateLimiter != nil {
		if err := w.config.RateLimiter.Wait(ctx); err != nil {
			var zero R
			// Rate limiter's error doesn't wrap context errors, so check context explicitly
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			return zero, err
		}
	}

	if w.config.BeforeTaskStart != nil {
		w.config.BeforeTaskStart(task)
	}

	result, err := w.processWithRecovery(ctx, task, f)

	if w.config.OnTaskEnd != nil {
		w.config.OnTaskEnd(task, result, err)
	}

	return result, err
}

// processWithRecovery executes a task with panic recovery.
// If a panic occurs, it's converted to an error wrapping ErrTaskPanic.
func (w *workerRunner[T, R]) processWithRecovery(
	ctx context.Context,
	task T,
	processFn types.ProcessFunc[T, R],
) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("%w: %v\nstack trace:\n%s", ErrTaskPanic, r, buf[:n])
		}
	}()

	return processFn(ctx, task)
}
