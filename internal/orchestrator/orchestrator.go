// Package orchestrator runs one load-generation cycle: it wires the primary and
// secondary pools, dispatches both batches, drains them and shuts the pools down
// in dependency order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/fibload/internal/observe"
	"github.com/utkarsh5026/fibload/internal/trace"
	"github.com/utkarsh5026/fibload/internal/workload"
	"github.com/utkarsh5026/fibload/pool"
)

const (
	PrimaryPoolName   = "main"
	SecondaryPoolName = "factorials"
)

// Config holds the run parameters.
type Config struct {
	WorkerCount int
	Settings    workload.Settings

	// URLTemplate formats the retrieval target for input n.
	URLTemplate string
}

// JobMiddleware decorates the primary pool's process function.
type JobMiddleware func(pool.ProcessFunc[workload.Job, workload.Outcome]) pool.ProcessFunc[workload.Job, workload.Outcome]

// Orchestrator runs a single cycle. It is not reusable.
type Orchestrator struct {
	cfg             Config
	log             *zap.Logger
	observer        observe.Observer
	poolOpts        []pool.WorkerPoolOption
	middleware      []JobMiddleware
	onState         func(State)
	onPoolClosed    func(pool.Stats)
	shutdownTimeout time.Duration

	state atomic.Int32
	ran   atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for orchestration and task lines.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithObserver attaches an observer to every task boundary.
func WithObserver(obs observe.Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// WithPoolOptions adds options applied to both pools.
func WithPoolOptions(opts ...pool.WorkerPoolOption) Option {
	return func(o *Orchestrator) {
		o.poolOpts = append(o.poolOpts, opts...)
	}
}

// WithJobMiddleware wraps the primary pool's process function; the first
// middleware given is the outermost.
func WithJobMiddleware(mw ...JobMiddleware) Option {
	return func(o *Orchestrator) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(o *Orchestrator) {
		o.onState = fn
	}
}

// WithPoolClosedHook registers fn to be called with a pool's stats right after it drained.
func WithPoolClosedHook(fn func(pool.Stats)) Option {
	return func(o *Orchestrator) {
		o.onPoolClosed = fn
	}
}

// WithShutdownTimeout bounds how long each pool may take to drain. Zero waits forever.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.shutdownTimeout = d
		}
	}
}

// Report is the outcome of a run.
type Report struct {
	// Fibonacci holds F(n) at index n for every nested-fibonacci task that completed.
	Fibonacci []uint64

	// Retrievals counts completed retrieval tasks.
	Retrievals int

	TraceID   string
	Started   time.Time
	Elapsed   time.Duration
	Primary   pool.Stats
	Secondary pool.Stats

	// Settled is closed once both pools have exited. When the primary pool misses the
	// shutdown timeout, the secondary pool stays open until the primary drains, so
	// Settled may close after Run returns.
	Settled <-chan struct{}
}

// New validates cfg and creates an Orchestrator.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.Settings.FiboCount <= 0 || cfg.Settings.FactorialCount <= 0 {
		return nil, fmt.Errorf("task counts must be positive, got fibo=%d factorial=%d",
			cfg.Settings.FiboCount, cfg.Settings.FactorialCount)
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = "https://google.local/%d.html"
	}

	o := &Orchestrator{
		cfg: cfg,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
	o.log.Debug("state changed", zap.Stringer("state", s))
	if o.onState != nil {
		o.onState(s)
	}
}

// Run executes the cycle. Both pools are shut down on failure too, the main pool first;
// if it misses the shutdown timeout, the factorial pool closes in the background once the
// main pool exits (see Report.Settled). The first task error observed while draining is returned.
// The returned Report is never nil and holds whatever completed.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if !o.ran.CompareAndSwap(false, true) {
		return nil, errors.New("orchestrator already ran")
	}

	root := trace.New()
	report := &Report{
		Fibonacci: make([]uint64, o.cfg.Settings.FiboCount),
		TraceID:   root.TraceID,
		Started:   time.Now(),
	}

	err := o.run(ctx, root, report)
	report.Elapsed = time.Since(report.Started)

	if err != nil {
		o.setState(StateFailed)
		return report, err
	}
	o.setState(StateDone)
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, root trace.Context, report *Report) (err error) {
	o.setState(StateDispatching)

	secondary := pool.NewScheduler[workload.Input, *big.Int](o.poolOptions(SecondaryPoolName)...)
	tasks := workload.NewTasks(o.cfg.Settings, secondary,
		workload.WithLogger(o.log),
		workload.WithObserver(o.observer))
	if err := secondary.Start(ctx, tasks.Factorial); err != nil {
		return fmt.Errorf("start %s pool: %w", SecondaryPoolName, err)
	}

	primary := pool.NewScheduler[workload.Job, workload.Outcome](o.poolOptions(PrimaryPoolName)...)
	if err := primary.Start(ctx, o.jobFunc(tasks)); err != nil {
		o.closePool(secondary)
		return fmt.Errorf("start %s pool: %w", PrimaryPoolName, err)
	}

	defer func() {
		o.setState(StateShuttingDown)
		serr := o.shutdown(primary, secondary, report)
		if err == nil {
			err = serr
		}
	}()

	o.log.Info("Scheduling main tasks",
		zap.Int("worker_count", o.cfg.WorkerCount),
		zap.Int("fibo_count", o.cfg.Settings.FiboCount),
		zap.Int("factorial_count", o.cfg.Settings.FactorialCount),
		zap.String("trace_id", root.TraceID))

	fibos, retrievals, err := o.dispatch(primary, root)
	if err != nil {
		return err
	}

	o.setState(StateDraining)
	return o.drain(ctx, fibos, retrievals, report)
}

func (o *Orchestrator) poolOptions(name string) []pool.WorkerPoolOption {
	opts := []pool.WorkerPoolOption{
		pool.WithName(name),
		pool.WithWorkerCount(o.cfg.WorkerCount),
		pool.WithLogger(o.log),
	}
	return append(opts, o.poolOpts...)
}

func (o *Orchestrator) jobFunc(tasks *workload.Tasks) pool.ProcessFunc[workload.Job, workload.Outcome] {
	fn := tasks.Run
	for i := len(o.middleware) - 1; i >= 0; i-- {
		fn = o.middleware[i](fn)
	}
	return fn
}

// dispatch submits both batches before anything is awaited.
func (o *Orchestrator) dispatch(
	primary *pool.Scheduler[workload.Job, workload.Outcome],
	root trace.Context,
) (fibos, retrievals []*pool.Future[workload.Outcome, int64], err error) {
	count := o.cfg.Settings.FiboCount
	fibos = make([]*pool.Future[workload.Outcome, int64], 0, count)
	retrievals = make([]*pool.Future[workload.Outcome, int64], 0, count)

	for n := range count {
		f, err := primary.Submit(workload.Job{
			Input: workload.Input{N: n, Trace: root.WithN(n)},
			Kind:  workload.KindNestedFibonacci,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("submit fibonacci n=%d: %w", n, err)
		}
		fibos = append(fibos, f)
	}

	for n := range count {
		f, err := primary.Submit(workload.Job{
			Input: workload.Input{N: n, Trace: root.WithN(n)},
			Kind:  workload.KindRetrieve,
			URL:   fmt.Sprintf(o.cfg.URLTemplate, n),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("submit retrieval n=%d: %w", n, err)
		}
		retrievals = append(retrievals, f)
	}
	return fibos, retrievals, nil
}

// drain awaits both batches concurrently; the first error stops the wait on the other.
func (o *Orchestrator) drain(
	ctx context.Context,
	fibos, retrievals []*pool.Future[workload.Outcome, int64],
	report *Report,
) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for _, res := range pool.AwaitAll(gctx, retrievals) {
			if res.Error != nil {
				return res.Error
			}
			report.Retrievals++
		}
		return nil
	})

	g.Go(func() error {
		count := 0
		for _, res := range pool.AwaitAll(gctx, fibos) {
			if res.Error != nil {
				return res.Error
			}
			report.Fibonacci[res.Value.N] = res.Value.Fibonacci
			count++
		}
		o.log.Info("Fibonacci done", zap.Int("fibonacci_result_count", count))
		return nil
	})

	return g.Wait()
}

// shutdown drains the primary pool, then the secondary one. If the primary pool misses
// the shutdown timeout, some of its nested dispatchers may still submit factorials, so
// the secondary pool is only closed in the background once the primary has exited.
func (o *Orchestrator) shutdown(
	primary *pool.Scheduler[workload.Job, workload.Outcome],
	secondary *pool.Scheduler[workload.Input, *big.Int],
	report *Report,
) error {
	settled := make(chan struct{})
	report.Settled = settled

	perr := o.closePool(primary)
	report.Primary = primary.Stats()
	if perr == nil {
		serr := o.closePool(secondary)
		o.log.Info("Shutdown factorial pool")
		report.Secondary = secondary.Stats()
		close(settled)
		return serr
	}

	report.Secondary = secondary.Stats()
	o.log.Warn("factorial pool shutdown deferred until main pool drains",
		zap.Int64("main_pending", report.Primary.Pending()))
	go func() {
		defer close(settled)
		<-primary.Done()
		if err := secondary.ShutdownNoWait(); err != nil {
			o.log.Warn("factorial pool shutdown failed", zap.Error(err))
			return
		}
		<-secondary.Done()
		o.log.Info("Shutdown factorial pool")
		if o.onPoolClosed != nil {
			o.onPoolClosed(secondary.Stats())
		}
	}()
	return perr
}

type drainer interface {
	Shutdown(timeout time.Duration) error
	Stats() pool.Stats
}

func (o *Orchestrator) closePool(p drainer) error {
	err := p.Shutdown(o.shutdownTimeout)
	stats := p.Stats()
	if err != nil {
		o.log.Warn("pool shutdown incomplete", zap.String("pool", stats.Name), zap.Error(err))
		err = fmt.Errorf("shutdown %s pool: %w", stats.Name, err)
	} else {
		o.log.Debug("pool drained",
			zap.String("pool", stats.Name),
			zap.Int64("completed", stats.Completed),
			zap.Int64("failed", stats.Failed),
			zap.Int64("peak", stats.Peak))
	}
	if o.onPoolClosed != nil {
		o.onPoolClosed(stats)
	}
	return err
}
