package agent

import "fmt"

// State defines the agent lifecycle states.
type State string

const (
	StateIdle        State = "idle"        // Ready to accept a task
	StateBusy        State = "busy"        // Holds exactly one in-flight task
	StateUnavailable State = "unavailable" // Removed or administratively offline
)

// validTransitions defines the legal agent state transitions.
var validTransitions = map[State][]State{
	StateIdle:        {StateBusy, StateUnavailable},
	StateBusy:        {StateIdle, StateUnavailable},
	StateUnavailable: {StateIdle},
}

// CanTransition reports whether from -> to is a legal state transition.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition reports an illegal agent state transition.
type ErrInvalidTransition struct {
	From State
	To   State
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid agent state transition: %s -> %s", e.From, e.To)
}
