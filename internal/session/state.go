package session

import "fmt"

type State int

const (
	Idle State = iota
	Connecting
	Running
	Paused
	// Error is resumable like Paused; the failure has already been surfaced.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Active reports whether a connection is open or being opened.
func (s State) Active() bool {
	return s == Connecting || s == Running
}
