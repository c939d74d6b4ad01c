package orchestrator

// State is a stage of a run.
type State int

const (
	StateInit State = iota
	StateDispatching
	StateDraining
	StateShuttingDown
	StateDone

	// StateFailed replaces StateDone when the run ended with an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateShuttingDown:
		return "shutting-down"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
