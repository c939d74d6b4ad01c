package workload

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeInput is the cause of a TaskFailure for n < 0.
	ErrNegativeInput = errors.New("input must not be negative")

	// ErrInputTooLarge is the cause of a TaskFailure for n beyond what a task accepts.
	ErrInputTooLarge = errors.New("input too large")
)

// TaskFailure reports that a task's own computation failed.
type TaskFailure struct {
	Kind Kind
	N    int
	Err  error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("%s task n=%d: %v", e.Kind, e.N, e.Err)
}

func (e *TaskFailure) Unwrap() error {
	return e.Err
}

// NestedDispatchFailure reports that a sub-task of a nested batch failed, or that the
// batch could not be dispatched. Err is the first failure observed.
type NestedDispatchFailure struct {
	N   int
	Err error
}

func (e *NestedDispatchFailure) Error() string {
	return fmt.Sprintf("nested dispatch for n=%d: %v", e.N, e.Err)
}

func (e *NestedDispatchFailure) Unwrap() error {
	return e.Err
}
