package scheduler

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type SchedulingStrategyType int

const (
	// SchedulingQueue dispatches from a single unbounded FIFO queue. Submit never blocks.
	SchedulingQueue SchedulingStrategyType = iota

	// SchedulingChannel dispatches from a bounded channel. Submit blocks while the buffer is full.
	SchedulingChannel
)

// String returns the human-readable strategy name.
func (s SchedulingStrategyType) String() string {
	switch s {
	case SchedulingQueue:
		return "queue"
	case SchedulingChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// ProcessorConfig holds all configuration for a pool of workers and task scheduling.
type ProcessorConfig[T, R any] struct {
	// Name identifies the pool in logs and worker contexts.
	Name string

	// Number of worker goroutines in the pool.
	WorkerCount int

	// Size of the task channel buffer (SchedulingChannel only).
	TaskBuffer int

	// Optional token bucket rate limiter applied before each task starts (may be nil).
	RateLimiter *rate.Limiter

	// The scheduling strategy used for distributing tasks.
	SchedulingStrategy SchedulingStrategyType

	// If true, each worker locks its OS thread and pins it to a CPU core.
	PinWorkers bool

	// Hook called before a task starts.
	BeforeTaskStart func(T)

	// Hook called after a task ends (receives the input, result, and error if any).
	OnTaskEnd func(T, R, error)

	// Logger receives debug-level scheduling events. Never nil once the pool is built.
	Logger *zap.Logger
}
