package workload

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/utkarsh5026/fibload/internal/observe"
	"github.com/utkarsh5026/fibload/pool"
)

// FactorialSubmitter is the secondary pool as seen by a nested dispatch.
type FactorialSubmitter interface {
	Submit(in Input) (*pool.Future[*big.Int, int64], error)
}

// Tasks binds the task bodies to their settings, logger, observer and the
// secondary pool that nested dispatches submit to.
type Tasks struct {
	settings   Settings
	factorials FactorialSubmitter
	log        *zap.Logger

	factorialFn pool.ProcessFunc[Input, *big.Int]
	fibonacciFn pool.ProcessFunc[Input, uint64]
	retrieveFn  pool.ProcessFunc[Job, struct{}]
}

// Option configures Tasks.
type Option func(*tasksOptions)

type tasksOptions struct {
	log      *zap.Logger
	observer observe.Observer
}

// WithLogger sets the logger used for task start/end lines.
func WithLogger(l *zap.Logger) Option {
	return func(o *tasksOptions) {
		o.log = l
	}
}

// WithObserver wraps every task boundary with o.
func WithObserver(o observe.Observer) Option {
	return func(opts *tasksOptions) {
		opts.observer = o
	}
}

// NewTasks creates the task set. factorials must stay open for as long as any
// nested-fibonacci task may run.
func NewTasks(s Settings, factorials FactorialSubmitter, opts ...Option) *Tasks {
	o := tasksOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	t := &Tasks{
		settings:   s,
		factorials: factorials,
		log:        o.log,
	}
	t.factorialFn = observe.Wrap(o.observer, SpanFactorial, t.factorial)
	t.fibonacciFn = observe.Wrap(o.observer, SpanFibonacci, t.nestedFibonacci)
	t.retrieveFn = observe.Wrap(o.observer, SpanRetrieve, t.retrieve)
	return t
}

// Factorial is the secondary pool's process function.
func (t *Tasks) Factorial(ctx context.Context, in Input) (fact *big.Int, err error) {
	defer guard(KindFactorial, in.N, &err)
	return t.factorialFn(ctx, in)
}

// NestedFibonacci dispatches FactorialCount factorial tasks, waits for all of them and
// then returns F(n). Any sub-task failure aborts it with a NestedDispatchFailure.
func (t *Tasks) NestedFibonacci(ctx context.Context, in Input) (uint64, error) {
	return t.fibonacciFn(ctx, in)
}

// Retrieve pretends to fetch job.URL by sleeping.
func (t *Tasks) Retrieve(ctx context.Context, job Job) (struct{}, error) {
	return t.retrieveFn(ctx, job)
}

// Run is the primary pool's process function; it dispatches on the job kind.
func (t *Tasks) Run(ctx context.Context, job Job) (out Outcome, err error) {
	defer guard(job.Kind, job.N, &err)
	out = Outcome{Kind: job.Kind, N: job.N}

	switch job.Kind {
	case KindNestedFibonacci:
		f, err := t.NestedFibonacci(ctx, job.Input)
		out.Fibonacci = f
		return out, err
	case KindRetrieve:
		_, err := t.Retrieve(ctx, job)
		return out, err
	default:
		return out, &TaskFailure{Kind: job.Kind, N: job.N, Err: fmt.Errorf("unknown task kind %q", job.Kind)}
	}
}

// guard turns a panic in a task body into a TaskFailure.
func guard(kind Kind, n int, err *error) {
	if r := recover(); r != nil {
		*err = &TaskFailure{Kind: kind, N: n, Err: fmt.Errorf("%w: %v", pool.ErrTaskPanic, r)}
	}
}

func (t *Tasks) factorial(ctx context.Context, in Input) (*big.Int, error) {
	if in.N < 0 {
		return nil, &TaskFailure{Kind: KindFactorial, N: in.N, Err: ErrNegativeInput}
	}

	log := t.log.With(zap.Int("n", in.N), zap.String("trace_id", in.Trace.TraceID))
	log.Info("Starts calculating Factorial number")

	delay := Delay(t.settings.FactorialDelay, in.N, t.settings.FactorialCount)
	if err := Sleep(ctx, delay); err != nil {
		return nil, &TaskFailure{Kind: KindFactorial, N: in.N, Err: err}
	}

	fact, err := Factorial(in.N)
	if err != nil {
		return nil, &TaskFailure{Kind: KindFactorial, N: in.N, Err: err}
	}

	log.Info("Done calculating Factorial number",
		zap.Stringer("result", fact),
		zap.Float64("delay_in_secs", delay.Seconds()))
	return fact, nil
}

func (t *Tasks) nestedFibonacci(ctx context.Context, in Input) (uint64, error) {
	log := t.log.With(zap.Int("n", in.N), zap.String("trace_id", in.Trace.TraceID))
	log.Info("Starts calculating Fibonacci number")

	if err := t.dispatchFactorials(ctx, in); err != nil {
		return 0, err
	}

	f, err := FibonacciLoad(in.N, t.settings.WorkFactor)
	if err != nil {
		return 0, &TaskFailure{Kind: KindNestedFibonacci, N: in.N, Err: err}
	}

	log.Info("Done calculating Fibonacci number", zap.Uint64("result", f))
	return f, nil
}

// dispatchFactorials submits the whole factorial batch before awaiting any of it.
func (t *Tasks) dispatchFactorials(ctx context.Context, in Input) error {
	forwarded := in.Trace.WithN(in.N).Child()

	futures := make([]*pool.Future[*big.Int, int64], 0, t.settings.FactorialCount)
	for i := range t.settings.FactorialCount {
		f, err := t.factorials.Submit(Input{N: i, Trace: forwarded})
		if err != nil {
			return &NestedDispatchFailure{N: in.N, Err: err}
		}
		futures = append(futures, f)
	}

	if _, err := pool.Collect(ctx, futures); err != nil {
		return &NestedDispatchFailure{N: in.N, Err: err}
	}
	return nil
}

func (t *Tasks) retrieve(ctx context.Context, job Job) (struct{}, error) {
	log := t.log.With(zap.Int("n", job.N), zap.String("url", job.URL), zap.String("trace_id", job.Trace.TraceID))
	log.Info("Starts retrieving contents from URL")

	delay := Delay(t.settings.RetrieveDelay, job.N, t.settings.FiboCount)
	if err := Sleep(ctx, delay); err != nil {
		return struct{}{}, &TaskFailure{Kind: KindRetrieve, N: job.N, Err: err}
	}

	log.Info("Done retrieving contents from URL", zap.Float64("delay_in_secs", delay.Seconds()))
	return struct{}{}, nil
}
