package pool

import (
	"context"
	"sync/atomic"

	"github.com/utkarsh5026/fibload/internal/types"
)

// Stats is a point-in-time view of a pool's activity.
type Stats struct {
	Name      string
	Workers   int
	Submitted int64
	Completed int64
	Failed    int64
	Running   int64
	// Peak is the highest number of tasks observed executing at once.
	Peak   int64
	Closed bool
}

// Pending returns the number of submitted tasks that have not finished yet.
func (s Stats) Pending() int64 {
	return s.Submitted - s.Completed
}

type counters struct {
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	running   atomic.Int64
	peak      atomic.Int64
}

// track wraps fn so the running gauge and its high-water mark follow task execution.
func track[T, R any](c *counters, fn types.ProcessFunc[T, R]) types.ProcessFunc[T, R] {
	return func(ctx context.Context, task T) (R, error) {
		n := c.running.Add(1)
		for {
			p := c.peak.Load()
			if n <= p || c.peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer c.running.Add(-1)
		return fn(ctx, task)
	}
}

func (c *counters) record(err error) {
	if err != nil {
		c.failed.Add(1)
	}
	c.completed.Add(1)
}

func (c *counters) snapshot() Stats {
	return Stats{
		Submitted: c.submitted.Load(),
		Completed: c.completed.Load(),
		Failed:    c.failed.Load(),
		Running:   c.running.Load(),
		Peak:      c.peak.Load(),
	}
}
