package stream

import "fmt"

type EventKind int

const (
	EventOpened EventKind = iota
	EventData
	EventInit
	EventFailure
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventData:
		return "data"
	case EventInit:
		return "init"
	case EventFailure:
		return "failure"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// FailureKind separates failures the server reported from failures of the
// connection itself.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureMalformed
	FailureServer
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureMalformed:
		return "malformed"
	case FailureServer:
		return "server"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Event is the closed set of things a connection reports. Conn identifies the
// connection that produced it so consumers can drop events from a connection
// they already closed.
type Event struct {
	Kind    EventKind
	Conn    uint64
	Sample  Sample
	Init    Init
	Failure FailureKind
	Message string
	Err     error
}

// Sink receives events. It is called from the connection's goroutine and
// must not block for long.
type Sink func(Event)

func Opened(conn uint64) Event { return Event{Kind: EventOpened, Conn: conn} }

func Data(conn uint64, s Sample) Event { return Event{Kind: EventData, Conn: conn, Sample: s} }

func Closed(conn uint64) Event { return Event{Kind: EventClosed, Conn: conn} }

func Failure(conn uint64, kind FailureKind, msg string, err error) Event {
	return Event{Kind: EventFailure, Conn: conn, Failure: kind, Message: msg, Err: err}
}
