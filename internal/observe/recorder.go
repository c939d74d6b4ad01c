package observe

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// FuncStat aggregates every execution of one task name.
type FuncStat struct {
	Name   string
	Calls  int64
	Errors int64
	Total  time.Duration
	Max    time.Duration
}

// Mean returns the average execution time.
func (s FuncStat) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// ThreadStat aggregates the work done by one pool worker.
type ThreadStat struct {
	Pool   string
	Worker int64
	Tasks  int64
	Busy   time.Duration
	First  time.Time
	Last   time.Time
}

type threadKey struct {
	pool   string
	worker int64
}

// Recorder keeps per-task and per-worker timing statistics in memory.
// It is the profiler whose snapshot is exported when the process exits.
type Recorder struct {
	mu      sync.Mutex
	funcs   map[string]*FuncStat
	threads map[threadKey]*ThreadStat
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		funcs:   make(map[string]*FuncStat),
		threads: make(map[threadKey]*ThreadStat),
	}
}

func (r *Recorder) Begin(Span) {}

func (r *Recorder) End(span Span, _ any, elapsed time.Duration) {
	r.record(span, elapsed, false)
}

func (r *Recorder) Error(span Span, _ error, elapsed time.Duration) {
	r.record(span, elapsed, true)
}

func (r *Recorder) record(span Span, elapsed time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fs, ok := r.funcs[span.Name]
	if !ok {
		fs = &FuncStat{Name: span.Name}
		r.funcs[span.Name] = fs
	}
	fs.Calls++
	if failed {
		fs.Errors++
	}
	fs.Total += elapsed
	fs.Max = max(fs.Max, elapsed)

	key := threadKey{pool: "-", worker: -1}
	if span.HasWorker {
		key = threadKey{pool: span.Worker.Pool, worker: span.Worker.ID}
	}
	ts, ok := r.threads[key]
	if !ok {
		ts = &ThreadStat{Pool: key.pool, Worker: key.worker, First: span.Start}
		r.threads[key] = ts
	}
	ts.Tasks++
	ts.Busy += elapsed
	if end := span.Start.Add(elapsed); end.After(ts.Last) {
		ts.Last = end
	}
	if span.Start.Before(ts.First) {
		ts.First = span.Start
	}
}

// FuncStats returns a copy of the per-task statistics sorted by name.
func (r *Recorder) FuncStats() []FuncStat {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]FuncStat, 0, len(r.funcs))
	for _, fs := range r.funcs {
		out = append(out, *fs)
	}
	slices.SortFunc(out, func(a, b FuncStat) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// ThreadStats returns a copy of the per-worker statistics sorted by pool then worker id.
func (r *Recorder) ThreadStats() []ThreadStat {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ThreadStat, 0, len(r.threads))
	for _, ts := range r.threads {
		out = append(out, *ts)
	}
	slices.SortFunc(out, func(a, b ThreadStat) int {
		if c := cmp.Compare(a.Pool, b.Pool); c != 0 {
			return c
		}
		return cmp.Compare(a.Worker, b.Worker)
	})
	return out
}
