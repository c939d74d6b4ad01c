package pool

import (
	"context"
	"iter"
)

// AwaitAll yields every future's result as it completes, paired with the future's
// index in futures. Completion order is whatever finishes first.
//
// If ctx is done before all futures resolve, AwaitAll yields one final result with
// index -1 and ctx.Err() as its error, then stops. Breaking out of the loop early is
// allowed; the tasks themselves keep running.
func AwaitAll[R any, K comparable](ctx context.Context, futures []*Future[R, K]) iter.Seq2[int, Result[R, K]] {
	return func(yield func(int, Result[R, K]) bool) {
		if len(futures) == 0 {
			return
		}

		stop := make(chan struct{})
		defer close(stop)

		ready := make(chan int, len(futures))
		for i, f := range futures {
			go func() {
				select {
				case <-f.Done():
					ready <- i
				case <-stop:
				}
			}()
		}

		for range futures {
			select {
			case i := <-ready:
				value, key, err := futures[i].Get()
				if !yield(i, Result[R, K]{Value: value, Key: key, Error: err}) {
					return
				}
			case <-ctx.Done():
				yield(-1, Result[R, K]{Error: ctx.Err()})
				return
			}
		}
	}
}

// Collect waits for all futures and returns their values in submission order.
// It returns as soon as the first error is observed; values of unfinished tasks
// are left as zero values in that case.
func Collect[R any, K comparable](ctx context.Context, futures []*Future[R, K]) ([]R, error) {
	values := make([]R, len(futures))
	for i, res := range AwaitAll(ctx, futures) {
		if res.Error != nil {
			return values, res.Error
		}
		values[i] = res.Value
	}
	return values, nil
}
