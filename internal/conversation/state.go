package conversation

type State int

const (
	StateIdle State = iota
	StateAwaiting
	StateRevealing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting-response"
	case StateRevealing:
		return "revealing"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of everything a front end renders.
type Snapshot struct {
	Messages  []Message
	Input     string
	State     State
	Listening bool
	Speaking  bool
}

// Busy reports whether a new submit would be refused or cut a reveal short.
func (s Snapshot) Busy() bool { return s.State != StateIdle }
