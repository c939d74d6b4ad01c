package orchestrator

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/utkarsh5026/fibload/internal/observe"
	"github.com/utkarsh5026/fibload/internal/workload"
	"github.com/utkarsh5026/fibload/pool"
)

func testConfig(workers, fibo, factorials int) Config {
	return Config{
		WorkerCount: workers,
		Settings: workload.Settings{
			FiboCount:      fibo,
			FactorialCount: factorials,
			FactorialDelay: 30 * time.Millisecond,
			RetrieveDelay:  40 * time.Millisecond,
			WorkFactor:     1,
		},
	}
}

type history struct {
	mu     sync.Mutex
	states []State
	closed []pool.Stats
}

func (h *history) state(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, s)
}

func (h *history) poolClosed(s pool.Stats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = append(h.closed, s)
}

func TestRun_EndToEnd(t *testing.T) {
	h := &history{}
	rec := observe.NewRecorder()
	o, err := New(testConfig(2, 4, 3),
		WithStateHook(h.state),
		WithPoolClosedHook(h.poolClosed),
		WithObserver(rec))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if want := []uint64{0, 1, 1, 2}; !slices.Equal(report.Fibonacci, want) {
		t.Errorf("Fibonacci = %v, want %v", report.Fibonacci, want)
	}
	if report.Retrievals != 4 {
		t.Errorf("Retrievals = %d, want 4", report.Retrievals)
	}
	if report.TraceID == "" {
		t.Error("report should carry the run's trace id")
	}

	wantStates := []State{StateDispatching, StateDraining, StateShuttingDown, StateDone}
	if !slices.Equal(h.states, wantStates) {
		t.Errorf("states = %v, want %v", h.states, wantStates)
	}
	if o.State() != StateDone {
		t.Errorf("final state = %v, want done", o.State())
	}

	if len(h.closed) != 2 {
		t.Fatalf("expected 2 pool closures, got %d", len(h.closed))
	}
	if h.closed[0].Name != PrimaryPoolName || h.closed[1].Name != SecondaryPoolName {
		t.Errorf("shutdown order = [%s %s], want [%s %s]",
			h.closed[0].Name, h.closed[1].Name, PrimaryPoolName, SecondaryPoolName)
	}
	if h.closed[0].Completed != 8 || h.closed[0].Pending() != 0 {
		t.Errorf("primary not drained when closed: %+v", h.closed[0])
	}
	if h.closed[1].Completed != 12 {
		t.Errorf("secondary completed = %d, want 12", h.closed[1].Completed)
	}

	for _, s := range []pool.Stats{report.Primary, report.Secondary} {
		if s.Peak > 2 {
			t.Errorf("pool %s ran %d tasks at once, capacity is 2", s.Name, s.Peak)
		}
		if !s.Closed {
			t.Errorf("pool %s should be closed", s.Name)
		}
	}

	calls := map[string]int64{}
	for _, fs := range rec.FuncStats() {
		calls[fs.Name] = fs.Calls
	}
	if calls[workload.SpanFibonacci] != 4 || calls[workload.SpanRetrieve] != 4 || calls[workload.SpanFactorial] != 12 {
		t.Errorf("unexpected span counts: %v", calls)
	}
}

func TestRun_TaskFailurePropagates(t *testing.T) {
	h := &history{}
	failRetrieval := func(next pool.ProcessFunc[workload.Job, workload.Outcome]) pool.ProcessFunc[workload.Job, workload.Outcome] {
		return func(ctx context.Context, job workload.Job) (workload.Outcome, error) {
			if job.Kind == workload.KindRetrieve && job.N == 2 {
				return workload.Outcome{Kind: job.Kind, N: job.N}, &workload.TaskFailure{
					Kind: job.Kind, N: job.N, Err: errors.New("connection refused"),
				}
			}
			return next(ctx, job)
		}
	}

	o, err := New(testConfig(2, 4, 2),
		WithStateHook(h.state),
		WithPoolClosedHook(h.poolClosed),
		WithJobMiddleware(failRetrieval))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := o.Run(context.Background())
	var tf *workload.TaskFailure
	if !errors.As(err, &tf) {
		t.Fatalf("expected TaskFailure, got %v", err)
	}
	if tf.Kind != workload.KindRetrieve || tf.N != 2 {
		t.Errorf("unexpected failure %+v", tf)
	}
	if report == nil {
		t.Fatal("report should be returned on failure")
	}

	if got := h.states[len(h.states)-1]; got != StateFailed {
		t.Errorf("final state = %v, want failed", got)
	}
	if !slices.Contains(h.states, StateShuttingDown) {
		t.Errorf("pools should be shut down on failure, states = %v", h.states)
	}
	if len(h.closed) != 2 || h.closed[0].Name != PrimaryPoolName {
		t.Fatalf("unexpected closures %+v", h.closed)
	}
	if h.closed[0].Failed != 1 {
		t.Errorf("primary failed = %d, want 1", h.closed[0].Failed)
	}
	if h.closed[0].Pending() != 0 {
		t.Errorf("primary should be drained before close, pending %d", h.closed[0].Pending())
	}
}

func TestRun_ShutdownTimeoutKeepsFactorialPoolOpen(t *testing.T) {
	cfg := testConfig(1, 3, 2)
	cfg.Settings.FactorialDelay = 300 * time.Millisecond

	var mu sync.Mutex
	results := map[int]error{}
	failFirst := func(next pool.ProcessFunc[workload.Job, workload.Outcome]) pool.ProcessFunc[workload.Job, workload.Outcome] {
		return func(ctx context.Context, job workload.Job) (workload.Outcome, error) {
			if job.Kind != workload.KindNestedFibonacci {
				return next(ctx, job)
			}
			if job.N == 0 {
				return workload.Outcome{Kind: job.Kind}, &workload.TaskFailure{
					Kind: job.Kind, N: job.N, Err: errors.New("injected"),
				}
			}
			out, err := next(ctx, job)
			mu.Lock()
			results[job.N] = err
			mu.Unlock()
			return out, err
		}
	}

	h := &history{}
	o, err := New(cfg,
		WithShutdownTimeout(20*time.Millisecond),
		WithPoolClosedHook(h.poolClosed),
		WithJobMiddleware(failFirst))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := o.Run(context.Background())
	var tf *workload.TaskFailure
	if !errors.As(err, &tf) || tf.N != 0 {
		t.Fatalf("expected injected failure for n=0, got %v", err)
	}

	select {
	case <-report.Settled:
	case <-time.After(5 * time.Second):
		t.Fatal("pools never settled")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, n := range []int{1, 2} {
		got, ok := results[n]
		if !ok {
			t.Errorf("nested fibonacci n=%d never ran", n)
			continue
		}
		if got != nil {
			t.Errorf("nested fibonacci n=%d failed: %v", n, got)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.closed) != 2 {
		t.Fatalf("expected 2 pool closures, got %+v", h.closed)
	}
	if h.closed[0].Name != PrimaryPoolName || h.closed[1].Name != SecondaryPoolName {
		t.Errorf("unexpected shutdown order %s, %s", h.closed[0].Name, h.closed[1].Name)
	}
	if h.closed[1].Pending() != 0 || h.closed[1].Completed != 4 {
		t.Errorf("factorial pool closed early: %+v", h.closed[1])
	}
}

func TestRun_Cancelled(t *testing.T) {
	cfg := testConfig(2, 4, 2)
	cfg.Settings.RetrieveDelay = time.Minute

	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if o.State() != StateFailed {
		t.Errorf("state = %v, want failed", o.State())
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	o, err := New(testConfig(1, 1, 1))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := o.Run(context.Background()); err == nil {
		t.Error("second Run should fail")
	}
}

func TestRun_MiddlewareOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	tag := func(name string) JobMiddleware {
		return func(next pool.ProcessFunc[workload.Job, workload.Outcome]) pool.ProcessFunc[workload.Job, workload.Outcome] {
			return func(ctx context.Context, job workload.Job) (workload.Outcome, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return next(ctx, job)
			}
		}
	}

	o, err := New(testConfig(1, 1, 1), WithJobMiddleware(tag("outer"), tag("inner")))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// One fibonacci job and one retrieval job, each passing outer then inner.
	want := []string{"outer", "inner", "outer", "inner"}
	if !slices.Equal(order, want) {
		t.Errorf("middleware order = %v, want %v", order, want)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero workers", testConfig(0, 1, 1)},
		{"zero fibo", testConfig(1, 0, 1)},
		{"negative factorials", testConfig(1, 1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateInit, "init"},
		{StateDispatching, "dispatching"},
		{StateDraining, "draining"},
		{StateShuttingDown, "shutting-down"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
	if !StateDone.Terminal() || !StateFailed.Terminal() || StateDraining.Terminal() {
		t.Error("unexpected Terminal result")
	}
}
