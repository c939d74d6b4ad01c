package scheduler

import (
	"context"
	"sync"

	"github.com/utkarsh5026/fibload/internal/types"
)

// channelStrategy distributes tasks through one shared buffered channel.
//
// Submit blocks while the buffer is full, so this strategy applies backpressure to
// producers. It must not be used for a pool that receives nested submissions from
// tasks of the same pool, since a full buffer would then wait on itself.
type channelStrategy[T any, R any] struct {
	config   *ProcessorConfig[T, R]
	runner   *workerRunner[T, R]
	taskChan chan *types.SubmittedTask[T, R]
	quit     chan struct{}
	once     sync.Once
}

// newChannelStrategy creates a channel strategy with a buffer of conf.TaskBuffer.
func newChannelStrategy[T any, R any](conf *ProcessorConfig[T, R]) *channelStrategy[T, R] {
	return &channelStrategy[T, R]{
		config:   conf,
		runner:   newWorkerRunner(conf),
		taskChan: make(chan *types.SubmittedTask[T, R], conf.TaskBuffer),
		quit:     make(chan struct{}),
	}
}

// Submit sends the task to the shared channel.
// The caller must guarantee that Submit and Shutdown do not race; the pool does this
// by refusing submissions once its shutdown flag is set.
func (s *channelStrategy[T, R]) Submit(task *types.SubmittedTask[T, R]) error {
	select {
	case <-s.quit:
		return ErrSchedulerClosed
	default:
	}

	select {
	case s.taskChan <- task:
		return nil
	case <-s.quit:
		return ErrSchedulerClosed
	}
}

// Shutdown closes the task channel. Workers drain the buffered tasks and exit.
func (s *channelStrategy[T, R]) Shutdown() {
	s.once.Do(func() {
		close(s.quit)
		close(s.taskChan)
	})
}

// Worker receives tasks until the channel is closed and empty.
func (s *channelStrategy[T, R]) Worker(ctx context.Context, workerID int64, executor types.ProcessFunc[T, R], h types.ResultHandler[T, R]) error {
	for t := range s.taskChan {
		s.runner.Execute(ctx, t, executor, h)
	}
	return nil
}
