package workload

import (
	"context"
	"math/big"
	"time"
)

// MaxFibonacciInput is the largest n whose Fibonacci number fits in a uint64.
// It also bounds the recursion depth of the naive computation.
const MaxFibonacciInput = 93

// Factorial returns n! exactly.
func Factorial(n int) (*big.Int, error) {
	if n < 0 {
		return nil, ErrNegativeInput
	}
	return new(big.Int).MulRange(1, int64(n)), nil
}

// Fibonacci returns F(n) with F(0)=0 and F(1)=1 using the naive exponential recursion.
// The cost is deliberate: it is the CPU load being generated.
func Fibonacci(n int) (uint64, error) {
	return FibonacciLoad(n, 1)
}

// FibonacciLoad computes F(n) workFactor times, multiplying the CPU burn without changing the result.
func FibonacciLoad(n, workFactor int) (uint64, error) {
	if n < 0 {
		return 0, ErrNegativeInput
	}
	if n > MaxFibonacciInput {
		return 0, ErrInputTooLarge
	}

	var f uint64
	for range max(workFactor, 1) {
		f = fib(n)
	}
	return f, nil
}

func fib(n int) uint64 {
	if n <= 1 {
		return uint64(n)
	}
	return fib(n-1) + fib(n-2)
}

// Delay returns k * n / total, the load-shaping pause taken before a task's work.
// A non-positive total yields no delay.
func Delay(k time.Duration, n, total int) time.Duration {
	if total <= 0 || n <= 0 || k <= 0 {
		return 0
	}
	return time.Duration(int64(k) * int64(n) / int64(total))
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
