package scheduler

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/utkarsh5026/fibload/internal/types"
)

// queueStrategy keeps submitted tasks in an unbounded FIFO slice guarded by a mutex.
// Workers block on a condition variable while the queue is empty.
//
// Submit never blocks on capacity, which is what lets a task running inside one pool
// enqueue a whole batch onto another pool without waiting for a free worker.
type queueStrategy[T any, R any] struct {
	config *ProcessorConfig[T, R]
	runner *workerRunner[T, R]

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []*types.SubmittedTask[T, R]
	closed bool
}

func newQueueStrategy[T any, R any](conf *ProcessorConfig[T, R]) *queueStrategy[T, R] {
	s := &queueStrategy[T, R]{
		config: conf,
		tasks:  make([]*types.SubmittedTask[T, R], 0, conf.WorkerCount),
	}
	s.cond = sync.NewCond(&s.mu)
	s.runner = newWorkerRunner(conf)
	return s
}

// Submit appends the task to the tail of the queue and wakes one idle worker.
func (s *queueStrategy[T, R]) Submit(task *types.SubmittedTask[T, R]) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.tasks = append(s.tasks, task)
	depth := len(s.tasks)
	s.mu.Unlock()

	s.cond.Signal()
	s.config.Logger.Debug("task queued", zap.Int64("task_id", task.Id), zap.Int("depth", depth))
	return nil
}

// Shutdown marks the queue closed and wakes every worker so idle ones can exit.
// Tasks already queued are still handed out.
func (s *queueStrategy[T, R]) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Worker pops tasks in arrival order until the queue is closed and empty.
func (s *queueStrategy[T, R]) Worker(ctx context.Context, workerID int64, executor types.ProcessFunc[T, R], h types.ResultHandler[T, R]) error {
	for {
		t, ok := s.next()
		if !ok {
			s.config.Logger.Debug("worker exiting", zap.Int64("worker", workerID))
			return nil
		}
		s.runner.Execute(ctx, t, executor, h)
	}
}

func (s *queueStrategy[T, R]) next() (*types.SubmittedTask[T, R], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.tasks) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.tasks) == 0 {
		return nil, false
	}

	t := s.tasks[0]
	s.tasks[0] = nil
	s.tasks = s.tasks[1:]
	return t, true
}

// Len returns the number of tasks waiting for a worker.
func (s *queueStrategy[T, R]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
