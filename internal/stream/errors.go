package stream

import "errors"

var (
	// ErrNotOpen is returned by Send before the connection reported Opened.
	ErrNotOpen = errors.New("stream: connection not open")

	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("stream: connection closed")

	// ErrMalformedFrame marks inbound frames that could not be decoded.
	ErrMalformedFrame = errors.New("stream: malformed frame")
)
