package types

import "context"

// WorkerInfo identifies the worker goroutine executing a task.
type WorkerInfo struct {
	Pool string
	ID   int64
}

type workerKey struct{}

// WithWorker returns a copy of ctx carrying the executing worker's identity.
func WithWorker(ctx context.Context, w WorkerInfo) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

// WorkerFromContext returns the identity of the worker running the current task.
func WorkerFromContext(ctx context.Context) (WorkerInfo, bool) {
	w, ok := ctx.Value(workerKey{}).(WorkerInfo)
	return w, ok
}
