package types

import "context"

// ProcessFunc defines how a single task is processed by a worker.
// It takes a context for cancellation control and a task of type T, returning a result of type R.
type ProcessFunc[T any, R any] func(ctx context.Context, task T) (R, error)

// Result represents the outcome of processing a single task.
// It carries both successful values and errors, along with the key the task was submitted under.
//
// Type parameters:
//   - R: The type of the result value
//   - K: The type of the key identifying the task
type Result[R any, K comparable] struct {
	Value R
	Error error
	Key   K
}

// NewResult creates a result for the given key.
func NewResult[R any, K comparable](value R, key K, err error) *Result[R, K] {
	return &Result[R, K]{
		Value: value,
		Error: err,
		Key:   key,
	}
}

// SubmittedTask is a task that has been accepted by a scheduler together with
// the future its result will be delivered to.
type SubmittedTask[T any, R any] struct {
	Task   T
	Id     int64
	Future *Future[R, int64]
}

// NewSubmittedTask wraps task with a fresh future.
func NewSubmittedTask[T any, R any](task T, id int64) *SubmittedTask[T, R] {
	return &SubmittedTask[T, R]{
		Task:   task,
		Id:     id,
		Future: NewFuture[R, int64](),
	}
}

// ResultHandler receives the result of an executed task.
type ResultHandler[T, R any] func(task *SubmittedTask[T, R], result *Result[R, int64])
