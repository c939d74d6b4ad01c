package workload

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestFibonacci(t *testing.T) {
	want := []uint64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377, 610}

	for n, expected := range want {
		got, err := Fibonacci(n)
		if err != nil {
			t.Fatalf("Fibonacci(%d) returned error: %v", n, err)
		}
		if got != expected {
			t.Errorf("Fibonacci(%d) = %d, want %d", n, got, expected)
		}
	}
}

func TestFibonacci_MatchesIterative(t *testing.T) {
	a, b := uint64(0), uint64(1)
	for n := range 30 {
		got, err := FibonacciLoad(n, 2)
		if err != nil {
			t.Fatalf("FibonacciLoad(%d) returned error: %v", n, err)
		}
		if got != a {
			t.Errorf("FibonacciLoad(%d) = %d, want %d", n, got, a)
		}
		a, b = b, a+b
	}
}

func TestFibonacci_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want error
	}{
		{"negative", -1, ErrNegativeInput},
		{"beyond uint64", MaxFibonacciInput + 1, ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fibonacci(tt.n)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFactorial(t *testing.T) {
	want := []int64{1, 1, 2, 6, 24, 120, 720, 5040, 40320, 362880, 3628800}

	for n, expected := range want {
		got, err := Factorial(n)
		if err != nil {
			t.Fatalf("Factorial(%d) returned error: %v", n, err)
		}
		if got.Cmp(big.NewInt(expected)) != 0 {
			t.Errorf("Factorial(%d) = %s, want %d", n, got, expected)
		}
	}
}

func TestFactorial_Large(t *testing.T) {
	got, err := Factorial(25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "15511210043330985984000000" {
		t.Errorf("Factorial(25) = %s", got)
	}
}

func TestFactorial_Negative(t *testing.T) {
	if _, err := Factorial(-1); !errors.Is(err, ErrNegativeInput) {
		t.Errorf("expected ErrNegativeInput, got %v", err)
	}
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name  string
		k     time.Duration
		n     int
		total int
		want  time.Duration
	}{
		{"first task has no delay", 3 * time.Second, 0, 8, 0},
		{"proportional", 3 * time.Second, 4, 8, 1500 * time.Millisecond},
		{"last task", 10 * time.Second, 7, 8, 8750 * time.Millisecond},
		{"zero total", time.Second, 3, 0, 0},
		{"zero k", 0, 3, 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Delay(tt.k, tt.n, tt.total); got != tt.want {
				t.Errorf("Delay(%v, %d, %d) = %v, want %v", tt.k, tt.n, tt.total, got, tt.want)
			}
		})
	}
}

func TestSleep(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		start := time.Now()
		if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if time.Since(start) < 20*time.Millisecond {
			t.Error("Sleep returned early")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
