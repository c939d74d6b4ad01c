// Package pool provides a long-running, generic, bounded worker pool whose tasks
// are submitted one at a time and observed through futures.
//
// The primary type is Scheduler[T, R]: a fixed number of workers process tasks of
// type T and produce results of type R. At most WithWorkerCount tasks execute at
// any instant; further submissions wait in an unbounded FIFO queue, so Submit never
// blocks the caller. That property is what makes nested dispatch safe: a task
// running inside one Scheduler may submit a batch to another Scheduler and wait
// for it without starving either pool.
//
// # Basic Usage
//
//	s := pool.NewScheduler[int, int](pool.WithWorkerCount(4), pool.WithName("square"))
//	if err := s.Start(ctx, func(ctx context.Context, n int) (int, error) {
//	    return n * n, nil
//	}); err != nil {
//	    return err
//	}
//	defer s.Shutdown(0)
//
//	futures := make([]*pool.Future[int, int64], 0, 10)
//	for i := range 10 {
//	    f, err := s.Submit(i)
//	    if err != nil {
//	        return err
//	    }
//	    futures = append(futures, f)
//	}
//	squares, err := pool.Collect(ctx, futures)
//
// # Awaiting Results
//
// AwaitAll yields results in completion order, which lets a caller react to the
// first failure without waiting for slower tasks:
//
//	for i, res := range pool.AwaitAll(ctx, futures) {
//	    if res.Error != nil {
//	        return fmt.Errorf("task %d: %w", i, res.Error)
//	    }
//	}
//
// Collect drains AwaitAll and returns values in submission order, or the first
// error observed. Task errors are never aggregated and never cancel sibling tasks.
//
// # Shutdown
//
// Shutdown refuses new submissions and waits for queued and executing tasks to
// finish. Submit after Shutdown fails with ErrPoolClosed. When one pool receives
// nested submissions from another, shut the submitting pool down first.
//
// # Configuration Options
//
//   - WithWorkerCount(n): number of concurrent workers (default: GOMAXPROCS)
//   - WithName(name): pool name used in logs and WorkerFromContext
//   - WithSchedulingStrategy(s): SchedulingQueue (default) or SchedulingChannel
//   - WithTaskBuffer(n): channel buffer for SchedulingChannel (default: worker count)
//   - WithRateLimit(tasksPerSecond, burst): throttle task starts
//   - WithPinWorkers(): lock each worker to an OS thread pinned to a core
//   - WithBeforeTaskStart(fn), WithOnTaskEnd(fn): task lifecycle hooks
//   - WithLogger(l): zap logger for debug-level scheduling events
//
// Panics inside tasks are recovered and reported as errors wrapping ErrTaskPanic.
package pool
