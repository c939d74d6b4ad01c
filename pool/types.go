package pool

import (
	"context"

	"github.com/utkarsh5026/fibload/internal/types"
)

// ProcessFunc defines how individual tasks are processed in the worker pool.
// It takes a context for cancellation control and a task of type T, returning a result of type R.
//
// Type parameters:
//   - T: The type of input task to be processed
//   - R: The type of result produced after processing
type ProcessFunc[T any, R any] = types.ProcessFunc[T, R]

// Result represents the outcome of processing a single task.
//
// Fields:
//   - Value: The result produced by processing the task (only valid if Error is nil)
//   - Error: Any error that occurred during task processing (nil if successful)
//   - Key: The id assigned to the task when it was submitted
type Result[R any, K comparable] = types.Result[R, K]

// Future is a handle to a submitted task's eventual result.
type Future[R any, K comparable] = types.Future[R, K]

// WorkerInfo identifies the pool worker executing a task.
type WorkerInfo = types.WorkerInfo

// WorkerFromContext reports which pool worker is running the task that received ctx.
func WorkerFromContext(ctx context.Context) (WorkerInfo, bool) {
	return types.WorkerFromContext(ctx)
}
