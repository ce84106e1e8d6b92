package session

import "fmt"

// State is the lifecycle state of the session machine.
//
//	Idle -> Loading -> Studying -> Complete
//	Loading -> Error
//	Loading -> Idle (nothing to study)
//
// Start and Resume are accepted from every state; Finish returns to Idle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateStudying
	StateComplete
	StateError
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StateLoading:  "loading",
	StateStudying: "studying",
	StateComplete: "complete",
	StateError:    "error",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
