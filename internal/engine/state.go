package engine

// State is the lifecycle position of a single migration run.
type State int

// Migration lifecycle states.
const (
	StateIdle State = iota
	StateCounting
	StatePaging
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateCounting:  "counting",
	StatePaging:    "paging",
	StateCompleted: "completed",
	StateFailed:    "failed",
}

// String returns the lowercase state name.
func (state State) String() string {
	if stateName, known := stateNames[state]; known {
		return stateName
	}
	return "unknown"
}

// Terminal reports whether the state ends a migration run.
func (state State) Terminal() bool {
	return state == StateCompleted || state == StateFailed
}
