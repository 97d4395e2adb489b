package session

// State is a position in the session lifecycle.
type State int

// Session states. Idle -> Loading -> Active <-> Reviewing -> Completed, with
// Errored reachable from Loading or Reviewing.
const (
	StateIdle State = iota
	StateLoading
	StateActive
	StateReviewing
	StateCompleted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateReviewing:
		return "reviewing"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
