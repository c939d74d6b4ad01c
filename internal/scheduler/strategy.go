package scheduler

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/fibload/internal/types"
)

// SchedulingStrategy defines how submitted tasks reach workers.
type SchedulingStrategy[T any, R any] interface {
	// Submit accepts a task into the scheduling system.
	// It returns ErrSchedulerClosed once Shutdown has been called.
	Submit(task *types.SubmittedTask[T, R]) error

	// Shutdown stops accepting tasks. Workers finish what is already queued and then return.
	Shutdown()

	// Worker runs the event loop of one worker until the strategy is shut down and drained.
	Worker(ctx context.Context, workerID int64, executor types.ProcessFunc[T, R], resHandler types.ResultHandler[T, R]) error
}

// CreateSchedulingStrategy builds the strategy selected in conf.
func CreateSchedulingStrategy[T, R any](conf *ProcessorConfig[T, R]) (SchedulingStrategy[T, R], error) {
	switch conf.SchedulingStrategy {
	case SchedulingQueue:
		return newQueueStrategy(conf), nil
	case SchedulingChannel:
		return newChannelStrategy(conf), nil
	default:
		return nil, fmt.Errorf("unknown scheduling strategy %d", conf.SchedulingStrategy)
	}
}
