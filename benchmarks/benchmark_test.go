package benchmarks

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/utkarsh5026/fibload/internal/workload"
	"github.com/utkarsh5026/fibload/pool"
)

// strategyConfig defines a benchmark configuration for a scheduling strategy
type strategyConfig struct {
	name string
	opts []pool.WorkerPoolOption
}

func getAllStrategies(workerCount int) []strategyConfig {
	return []strategyConfig{
		{
			name: "Queue",
			opts: []pool.WorkerPoolOption{
				pool.WithWorkerCount(workerCount),
				pool.WithSchedulingStrategy(pool.SchedulingQueue),
			},
		},
		{
			name: "Channel",
			opts: []pool.WorkerPoolOption{
				pool.WithWorkerCount(workerCount),
				pool.WithSchedulingStrategy(pool.SchedulingChannel),
				pool.WithTaskBuffer(1024),
			},
		},
	}
}

// cpuBoundWork burns CPU with the naive fibonacci recurrence.
func cpuBoundWork(n int) pool.ProcessFunc[int, uint64] {
	return func(ctx context.Context, task int) (uint64, error) {
		return workload.FibonacciLoad(n, 1)
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) pool.ProcessFunc[int, uint64] {
	return func(ctx context.Context, task int) (uint64, error) {
		if err := workload.Sleep(ctx, delay); err != nil {
			return 0, err
		}
		return uint64(task), nil
	}
}

func runBatch(b *testing.B, opts []pool.WorkerPoolOption, fn pool.ProcessFunc[int, uint64], tasks int) {
	b.Helper()
	p := pool.NewScheduler[int, uint64](opts...)
	if err := p.Start(context.Background(), fn); err != nil {
		b.Fatalf("start failed: %v", err)
	}
	defer p.Shutdown(0)

	futures := make([]*pool.Future[uint64, int64], 0, tasks)
	for i := range tasks {
		f, err := p.Submit(i)
		if err != nil {
			b.Fatalf("submit failed: %v", err)
		}
		futures = append(futures, f)
	}
	if _, err := pool.Collect(context.Background(), futures); err != nil {
		b.Fatalf("collect failed: %v", err)
	}
}

func BenchmarkThroughput_WorkerScaling(b *testing.B) {
	const taskCount = 2000

	for _, workers := range []int{2, 4, 8, 16} {
		for _, s := range getAllStrategies(workers) {
			b.Run(fmt.Sprintf("%s/workers=%d", s.name, workers), func(b *testing.B) {
				fn := cpuBoundWork(15)
				b.ReportAllocs()
				for b.Loop() {
					runBatch(b, s.opts, fn, taskCount)
				}
				b.ReportMetric(float64(taskCount*b.N)/b.Elapsed().Seconds(), "tasks/s")
			})
		}
	}
}

func BenchmarkThroughput_IOBound(b *testing.B) {
	const taskCount = 200

	for _, s := range getAllStrategies(32) {
		b.Run(s.name, func(b *testing.B) {
			fn := ioBoundWork(time.Millisecond)
			for b.Loop() {
				runBatch(b, s.opts, fn, taskCount)
			}
		})
	}
}

// BenchmarkNestedDispatch measures a full fan-out: every primary task submits and awaits
// a batch of factorials on the secondary pool.
func BenchmarkNestedDispatch(b *testing.B) {
	settings := workload.Settings{
		FiboCount:      16,
		FactorialCount: 8,
		WorkFactor:     1,
	}

	for _, workers := range []int{2, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for b.Loop() {
				secondary := pool.NewScheduler[workload.Input, *big.Int](pool.WithWorkerCount(workers))
				tasks := workload.NewTasks(settings, secondary)
				if err := secondary.Start(context.Background(), tasks.Factorial); err != nil {
					b.Fatal(err)
				}

				primary := pool.NewScheduler[workload.Input, uint64](pool.WithWorkerCount(workers))
				if err := primary.Start(context.Background(), tasks.NestedFibonacci); err != nil {
					b.Fatal(err)
				}

				futures := make([]*pool.Future[uint64, int64], 0, settings.FiboCount)
				for n := range settings.FiboCount {
					f, err := primary.Submit(workload.Input{N: n})
					if err != nil {
						b.Fatal(err)
					}
					futures = append(futures, f)
				}
				if _, err := pool.Collect(context.Background(), futures); err != nil {
					b.Fatal(err)
				}

				_ = primary.Shutdown(0)
				_ = secondary.Shutdown(0)
			}
		})
	}
}
