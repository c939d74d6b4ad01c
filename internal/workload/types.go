package workload

import (
	"time"

	"github.com/utkarsh5026/fibload/internal/trace"
)

// Kind names a task type.
type Kind string

const (
	KindFactorial       Kind = "factorial"
	KindNestedFibonacci Kind = "nested-fibonacci"
	KindRetrieve        Kind = "retrieve"
)

// Span names reported to observers, one per task boundary.
const (
	SpanFactorial = "FactorialTask"
	SpanFibonacci = "FibonacciTask"
	SpanRetrieve  = "RetrieverTask"
)

// Input is the argument of every task: its index and the trace context it forwards.
type Input struct {
	N     int
	Trace trace.Context
}

// SpanInput describes the input to an observer span.
func (in Input) SpanInput() (int, trace.Context) {
	return in.N, in.Trace
}

// Job is a unit of work for the primary pool, which runs two task kinds.
type Job struct {
	Input
	Kind Kind
	URL  string
}

// Outcome is the result of a Job. Fibonacci is only set for KindNestedFibonacci.
type Outcome struct {
	Kind      Kind
	N         int
	Fibonacci uint64
}

// Settings shape the synthetic load.
type Settings struct {
	// FiboCount is the number of nested-fibonacci (and retrieval) tasks; it scales retrieval delays.
	FiboCount int

	// FactorialCount is the number of factorial tasks each nested dispatch submits; it scales factorial delays.
	FactorialCount int

	// FactorialDelay is k in delay = k * n / FactorialCount.
	FactorialDelay time.Duration

	// RetrieveDelay is k in delay = k * n / FiboCount.
	RetrieveDelay time.Duration

	// WorkFactor repeats the naive Fibonacci computation to scale CPU burn. Values below 1 mean 1.
	WorkFactor int
}

// DefaultSettings mirrors the load profile the generator was tuned for.
func DefaultSettings() Settings {
	return Settings{
		FiboCount:      8,
		FactorialCount: 8,
		FactorialDelay: 3 * time.Second,
		RetrieveDelay:  10 * time.Second,
		WorkFactor:     1,
	}
}
