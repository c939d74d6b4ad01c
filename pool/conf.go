package pool

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/fibload/internal/scheduler"
)

// SchedulingStrategyType selects how submitted tasks reach workers.
type SchedulingStrategyType = scheduler.SchedulingStrategyType

const (
	// SchedulingQueue uses an unbounded FIFO queue; Submit never blocks. This is the default.
	SchedulingQueue = scheduler.SchedulingQueue

	// SchedulingChannel uses a bounded channel; Submit blocks while the buffer is full.
	SchedulingChannel = scheduler.SchedulingChannel
)

// WorkerPoolOption is a functional option for configuring the worker pool.
type WorkerPoolOption func(*workerPoolConfig)

type workerPoolConfig struct {
	name               string
	workerCount        int
	taskBuffer         int
	rateLimiter        *rate.Limiter
	schedulingStrategy SchedulingStrategyType
	pinWorkers         bool
	logger             *zap.Logger

	beforeTaskStart     func(any)
	beforeTaskStartType string

	onTaskEnd           func(any, any, error)
	onTaskEndTaskType   string
	onTaskEndResultType string
}

// WithName sets the pool name reported in logs and by WorkerFromContext.
func WithName(name string) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithWorkerCount sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithTaskBuffer sets the buffer size for the task channel used by SchedulingChannel.
// If not specified, defaults to the number of workers.
func WithTaskBuffer(size int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if size >= 0 {
			cfg.taskBuffer = size
		}
	}
}

// WithSchedulingStrategy selects the scheduling strategy.
func WithSchedulingStrategy(s SchedulingStrategyType) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		cfg.schedulingStrategy = s
	}
}

// WithRateLimit sets a rate limiter for controlling how fast tasks start.
// tasksPerSecond specifies the maximum number of task starts per second and
// burst the number that may start at once. Non-positive values disable limiting.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithPinWorkers locks every worker goroutine to an OS thread pinned to a CPU core.
// Pinning is best effort and only takes effect on Linux.
func WithPinWorkers() WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		cfg.pinWorkers = true
	}
}

// WithLogger sets the logger used for debug-level scheduling events.
func WithLogger(l *zap.Logger) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithBeforeTaskStart registers a hook called on the worker goroutine right before a task runs.
// T must match the pool's task type; NewScheduler panics otherwise.
func WithBeforeTaskStart[T any](fn func(T)) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if fn == nil {
			return
		}
		var zero T
		cfg.beforeTaskStartType = fmt.Sprintf("%T", zero)
		cfg.beforeTaskStart = func(task any) {
			t, _ := task.(T)
			fn(t)
		}
	}
}

// WithOnTaskEnd registers a hook called after a task returns, with its result and error.
// T and R must match the pool's task and result types; NewScheduler panics otherwise.
func WithOnTaskEnd[T, R any](fn func(T, R, error)) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if fn == nil {
			return
		}
		var zeroT T
		var zeroR R
		cfg.onTaskEndTaskType = fmt.Sprintf("%T", zeroT)
		cfg.onTaskEndResultType = fmt.Sprintf("%T", zeroR)
		cfg.onTaskEnd = func(task any, result any, err error) {
			t, _ := task.(T)
			r, _ := result.(R)
			fn(t, r, err)
		}
	}
}
