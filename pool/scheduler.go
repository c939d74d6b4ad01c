package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/fibload/internal/cpu"
	"github.com/utkarsh5026/fibload/internal/scheduler"
	"github.com/utkarsh5026/fibload/internal/types"
)

// Scheduler represents a long-running, reusable worker pool that can be started and then
// accept asynchronous task submissions. It maintains worker goroutines, schedules work, and tracks state
// for lifecycle management and safe concurrent usage.
//
// Type parameters:
//   - T: The input task type processed by workers
//   - R: The output/result type produced by processing tasks
type Scheduler[T, R any] struct {
	config *scheduler.ProcessorConfig[T, R]
	mu     sync.RWMutex
	state  *poolState[T, R]
}

// NewScheduler creates a new Scheduler instance with the specified configuration options.
// This does NOT start any workers immediately; use Start to begin processing tasks.
//
// Example:
//
//	sched := NewScheduler[int, string](WithWorkerCount(8), WithName("render"))
//	_ = sched.Start(ctx, processFunc)
//	future, err := sched.Submit(5)
func NewScheduler[T, R any](opts ...WorkerPoolOption) *Scheduler[T, R] {
	return &Scheduler[T, R]{
		config: createConfig[T, R](opts...),
	}
}

// Name returns the pool name.
func (wp *Scheduler[T, R]) Name() string {
	return wp.config.Name
}

// Workers returns the configured number of workers.
func (wp *Scheduler[T, R]) Workers() int {
	return wp.config.WorkerCount
}

// Start launches the workers. Every task submitted afterwards is processed by processFn
// with a context derived from ctx that also carries the worker's WorkerInfo.
//
// Returns:
//   - error: ErrPoolAlreadyStarted if the pool was started before
func (wp *Scheduler[T, R]) Start(ctx context.Context, processFn ProcessFunc[T, R]) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.state != nil {
		return ErrPoolAlreadyStarted
	}

	strategy, err := scheduler.CreateSchedulingStrategy(wp.config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	state := &poolState[T, R]{
		strategy: strategy,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	wp.state = state

	counted := track(&state.stats, processFn)
	var resHandler types.ResultHandler[T, R] = func(t *types.SubmittedTask[T, R], r *types.Result[R, int64]) {
		state.stats.record(r.Error)
		t.Future.Resolve(*r)
	}

	var g errgroup.Group
	for i := range wp.config.WorkerCount {
		workerID := int64(i)
		g.Go(func() error {
			if wp.config.PinWorkers {
				core, release := cpu.SetupWorkerAffinity(i)
				defer release()
				wp.config.Logger.Debug("worker pinned", zap.Int64("worker", workerID), zap.Int("core", core))
			}
			wctx := types.WithWorker(ctx, types.WorkerInfo{Pool: wp.config.Name, ID: workerID})
			return strategy.Worker(wctx, workerID, counted, resHandler)
		})
	}

	go func() {
		_ = g.Wait()
		close(state.done)
	}()

	wp.config.Logger.Debug("pool started",
		zap.Int("workers", wp.config.WorkerCount),
		zap.Stringer("strategy", wp.config.SchedulingStrategy))
	return nil
}

// Submit queues a single task for asynchronous processing and returns its Future.
// With the default strategy it never blocks.
//
// Returns:
//   - future: A Future[R, int64] keyed by the task id (ids start at 1)
//   - error: ErrPoolNotStarted before Start, ErrPoolClosed after Shutdown
//
// Example:
//
//	future, err := pool.Submit(42)
//	if err != nil {
//	    return err
//	}
//
//	// Option 1: Block until result is ready
//	result, _, err := future.Get()
//
//	// Option 2: Wait with a deadline
//	result, _, err := future.GetWithContext(ctx)
//
//	// Option 3: Check if ready without blocking
//	if future.IsReady() {
//	    result, _, _ := future.Get()
//	}
func (wp *Scheduler[T, R]) Submit(task T) (*Future[R, int64], error) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	state := wp.state
	if state == nil {
		return nil, ErrPoolNotStarted
	}
	if state.shutdown.Load() {
		return nil, ErrPoolClosed
	}

	st := types.NewSubmittedTask[T, R](task, state.taskIDCounter.Add(1))
	state.stats.submitted.Add(1)
	if err := state.strategy.Submit(st); err != nil {
		state.stats.submitted.Add(-1)
		if errors.Is(err, scheduler.ErrSchedulerClosed) {
			return nil, ErrPoolClosed
		}
		return nil, err
	}
	return st.Future, nil
}

// Shutdown gracefully shuts down the worker pool started with Start.
// New submissions are refused immediately; queued and executing tasks run to completion.
//
// Parameters:
//   - timeout: Maximum duration to wait for the drain (0 = wait forever)
//
// Returns:
//   - error: ErrPoolNotStarted, ErrPoolClosed if already shut down, or ErrShutdownTimeout
//
// Example:
//
//	pool.Start(ctx, processFn)
//	defer pool.Shutdown(10 * time.Second)
func (wp *Scheduler[T, R]) Shutdown(timeout time.Duration) error {
	state, err := wp.close()
	if err != nil {
		return err
	}

	if err := waitUntil(state.done, timeout); err != nil {
		return err
	}
	state.cancel()
	wp.config.Logger.Debug("pool drained", zap.Int64("completed", state.stats.completed.Load()))
	return nil
}

// ShutdownNoWait refuses new submissions and returns immediately.
// Already queued tasks keep draining in the background; Done reports when they finish.
func (wp *Scheduler[T, R]) ShutdownNoWait() error {
	state, err := wp.close()
	if err != nil {
		return err
	}

	go func() {
		<-state.done
		state.cancel()
	}()
	return nil
}

// Done returns a channel closed once every worker has exited after shutdown.
// It returns nil before Start.
func (wp *Scheduler[T, R]) Done() <-chan struct{} {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.state == nil {
		return nil
	}
	return wp.state.done
}

// Stats returns a snapshot of the pool's counters.
func (wp *Scheduler[T, R]) Stats() Stats {
	wp.mu.RLock()
	state := wp.state
	wp.mu.RUnlock()

	if state == nil {
		return Stats{Name: wp.config.Name, Workers: wp.config.WorkerCount}
	}
	s := state.stats.snapshot()
	s.Name = wp.config.Name
	s.Workers = wp.config.WorkerCount
	s.Closed = state.shutdown.Load()
	return s
}

// close flips the shutdown flag under the write lock so no Submit can be in flight
// when the strategy is told to stop.
func (wp *Scheduler[T, R]) close() (*poolState[T, R], error) {
	wp.mu.Lock()
	state := wp.state
	if state == nil {
		wp.mu.Unlock()
		return nil, ErrPoolNotStarted
	}
	if !state.shutdown.CompareAndSwap(false, true) {
		wp.mu.Unlock()
		return nil, ErrPoolClosed
	}
	wp.mu.Unlock()

	state.strategy.Shutdown()
	return state, nil
}

// poolState holds the runtime state for a started pool.
type poolState[T any, R any] struct {
	cancel        context.CancelFunc
	shutdown      atomic.Bool
	taskIDCounter atomic.Int64
	strategy      scheduler.SchedulingStrategy[T, R]
	stats         counters
	done          chan struct{} // Closed when all workers have finished
}
