package pool

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/utkarsh5026/fibload/internal/scheduler"
)

var (
	// ErrPoolClosed is returned by Submit once Shutdown has been called.
	ErrPoolClosed = errors.New("pool closed")

	// ErrPoolNotStarted is returned when a pool is used before Start.
	ErrPoolNotStarted = errors.New("pool not started")

	// ErrPoolAlreadyStarted is returned by a second Start call.
	ErrPoolAlreadyStarted = errors.New("pool already started")

	// ErrShutdownTimeout is returned when Shutdown gives up waiting for workers.
	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")

	// ErrTaskPanic is wrapped by the error of a task whose process function panicked.
	ErrTaskPanic = scheduler.ErrTaskPanic
)

const defaultPoolName = "pool"

// checkfuncs validates user-supplied hook functions against the pool's task and result
// types and returns typed wrappers for use within the workers.
//
// Panics:
//
//	If any hook's type does not match the expected task/result types.
//	The panic message describes the mismatch.
func checkfuncs[T any, R any](
	cfg *workerPoolConfig,
	expectedTaskType, expectedResultType string,
) (
	beforeTaskStart func(T),
	onTaskEnd func(T, R, error),
) {
	if cfg.beforeTaskStart != nil {
		if cfg.beforeTaskStartType != expectedTaskType {
			panic(fmt.Sprintf("WithBeforeTaskStart hook expects task type %s, but pool processes type %s",
				cfg.beforeTaskStartType, expectedTaskType))
		}
		beforeTaskStart = func(task T) {
			cfg.beforeTaskStart(task)
		}
	}

	if cfg.onTaskEnd != nil {
		if cfg.onTaskEndTaskType != expectedTaskType {
			panic(fmt.Sprintf("WithOnTaskEnd hook expects task type %s, but pool processes type %s",
				cfg.onTaskEndTaskType, expectedTaskType))
		}
		if cfg.onTaskEndResultType != expectedResultType {
			panic(fmt.Sprintf("WithOnTaskEnd hook expects result type %s, but pool produces type %s",
				cfg.onTaskEndResultType, expectedResultType))
		}
		onTaskEnd = func(task T, result R, err error) {
			cfg.onTaskEnd(task, result, err)
		}
	}

	return beforeTaskStart, onTaskEnd
}

func createConfig[T, R any](opts ...WorkerPoolOption) *scheduler.ProcessorConfig[T, R] {
	cfg := &workerPoolConfig{
		name:               defaultPoolName,
		workerCount:        runtime.GOMAXPROCS(0),
		taskBuffer:         0, // Will be set to workerCount if not specified
		schedulingStrategy: SchedulingQueue,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.taskBuffer == 0 {
		cfg.taskBuffer = cfg.workerCount
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var zeroT T
	var zeroR R
	beforeTaskStart, onTaskEnd := checkfuncs[T, R](cfg, fmt.Sprintf("%T", zeroT), fmt.Sprintf("%T", zeroR))

	return &scheduler.ProcessorConfig[T, R]{
		Name:               cfg.name,
		WorkerCount:        cfg.workerCount,
		TaskBuffer:         cfg.taskBuffer,
		RateLimiter:        cfg.rateLimiter,
		SchedulingStrategy: cfg.schedulingStrategy,
		PinWorkers:         cfg.pinWorkers,
		BeforeTaskStart:    beforeTaskStart,
		OnTaskEnd:          onTaskEnd,
		Logger:             logger.With(zap.String("pool", cfg.name)),
	}
}

// waitUntil blocks until either the done channel is closed or the timeout is reached.
// It is used during graceful shutdown to wait for workers to complete their tasks.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	select {
	case <-d:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
