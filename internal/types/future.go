package types

import (
	"context"
	"sync"
)

// Future is a handle to the eventual result of a submitted task.
// It is resolved exactly once; every Get call after resolution returns the same result.
//
// Type parameters:
//   - R: The result value type
//   - K: The key type identifying the task
type Future[R any, K comparable] struct {
	done  chan struct{}
	once  sync.Once
	value Result[R, K]
}

// NewFuture creates an unresolved future.
func NewFuture[R any, K comparable]() *Future[R, K] {
	return &Future[R, K]{
		done: make(chan struct{}),
	}
}

// Resolve delivers the result to the future and reports whether it was the first call.
// Later calls have no effect.
func (f *Future[R, K]) Resolve(r Result[R, K]) bool {
	resolved := false
	f.once.Do(func() {
		f.value = r
		close(f.done)
		resolved = true
	})
	return resolved
}

// Get blocks until the result is available and returns it.
func (f *Future[R, K]) Get() (R, K, error) {
	<-f.done
	return f.value.Value, f.value.Key, f.value.Error
}

// GetWithContext blocks until the result is available or ctx is done.
// On cancellation the zero value and key are returned together with ctx.Err().
func (f *Future[R, K]) GetWithContext(ctx context.Context) (R, K, error) {
	select {
	case <-f.done:
		return f.value.Value, f.value.Key, f.value.Error
	case <-ctx.Done():
		var zeroR R
		var zeroK K
		return zeroR, zeroK, ctx.Err()
	}
}

// TryGet returns the result without blocking. ready is false if the task has not finished.
func (f *Future[R, K]) TryGet() (value R, key K, err error, ready bool) {
	if !f.IsReady() {
		return value, key, nil, false
	}
	return f.value.Value, f.value.Key, f.value.Error, true
}

// Done returns a channel that is closed once the result is available.
func (f *Future[R, K]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the result is available.
func (f *Future[R, K]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
