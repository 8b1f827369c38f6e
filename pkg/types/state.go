package types

// State is the lifecycle state of a Handle.
type State int

// Handle states. A handle moves Closed -> Opening -> Open; a failed open or
// Close returns it to Closed.
const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
