package stream

import "context"

// Transport opens streaming connections. Open never blocks: the dial runs in
// the background and its outcome reaches sink as Opened, or as Failure
// followed by Closed.
type Transport interface {
	Open(ctx context.Context, sink Sink) Conn
}

// Conn is the handle of one underlying connection.
//
// Send is valid only after the Opened event and before Close. Close is
// idempotent and never waits on the sink. One event the reader had already
// accepted when Close was called may still reach the sink after Close
// returns; nothing after it does. Consumers drop such late events by
// Event.Conn.
type Conn interface {
	ID() uint64
	Send(msg StartMessage) error
	Close() error
}
