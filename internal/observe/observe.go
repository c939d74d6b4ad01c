// Package observe wraps task boundaries with observers, the in-process stand-in
// for an external tracing agent.
//
// A task body stays a plain ProcessFunc; Wrap decorates it so observers see
// Begin before the body runs and exactly one of End or Error after it returns.
package observe

import (
	"context"
	"time"

	"github.com/utkarsh5026/fibload/internal/trace"
	"github.com/utkarsh5026/fibload/pool"
)

// Span describes one execution of a task.
type Span struct {
	Name      string
	N         int
	Trace     trace.Context
	Worker    pool.WorkerInfo
	HasWorker bool
	Start     time.Time
}

// Observer receives task boundary events. Implementations must be safe for concurrent use.
type Observer interface {
	Begin(span Span)
	End(span Span, result any, elapsed time.Duration)
	Error(span Span, err error, elapsed time.Duration)
}

// Subject is implemented by task inputs that can describe themselves to a span.
type Subject interface {
	SpanInput() (n int, tc trace.Context)
}

// Wrap decorates fn so that o observes every call. A nil observer returns fn unchanged.
func Wrap[T Subject, R any](o Observer, name string, fn pool.ProcessFunc[T, R]) pool.ProcessFunc[T, R] {
	if o == nil {
		return fn
	}

	return func(ctx context.Context, task T) (R, error) {
		n, tc := task.SpanInput()
		span := Span{Name: name, N: n, Trace: tc, Start: time.Now()}
		span.Worker, span.HasWorker = pool.WorkerFromContext(ctx)

		o.Begin(span)
		result, err := fn(ctx, task)
		elapsed := time.Since(span.Start)
		if err != nil {
			o.Error(span, err, elapsed)
		} else {
			o.End(span, result, elapsed)
		}
		return result, err
	}
}

type multi []Observer

// Multi fans every event out to each non-nil observer in order.
func Multi(observers ...Observer) Observer {
	m := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multi) Begin(span Span) {
	for _, o := range m {
		o.Begin(span)
	}
}

func (m multi) End(span Span, result any, elapsed time.Duration) {
	for _, o := range m {
		o.End(span, result, elapsed)
	}
}

func (m multi) Error(span Span, err error, elapsed time.Duration) {
	for _, o := range m {
		o.Error(span, err, elapsed)
	}
}
