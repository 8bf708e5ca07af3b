package stream

import (
	"encoding/json"
	"fmt"
)

const (
	TypeData  = "DATA"
	TypeError = "ERROR"
	TypeInit  = "INIT"
)

// frame is the flat union of every inbound message shape.
type frame struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	T       *float64  `json:"t"`
	X       float64   `json:"x"`
	V       float64   `json:"v"`
	A       float64   `json:"a"`
	AllX    []float64 `json:"all_x"`
	AllV    []float64 `json:"all_v"`

	Dofs     int       `json:"dofs"`
	Periods  []float64 `json:"periods"`
	Duration float64   `json:"duration"`
}

// DecodeFrame turns one inbound text frame into an event. Frames that cannot
// be decoded become FailureMalformed events; DecodeFrame never panics.
func DecodeFrame(conn uint64, data []byte) Event {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return malformed(conn, fmt.Errorf("%w: %v", ErrMalformedFrame, err))
	}

	switch f.Type {
	case "":
		return malformed(conn, fmt.Errorf("%w: missing message type", ErrMalformedFrame))
	case TypeData:
		if f.T == nil {
			return malformed(conn, fmt.Errorf("%w: data frame without t", ErrMalformedFrame))
		}
		if *f.T < 0 {
			return malformed(conn, fmt.Errorf("%w: negative time %g", ErrMalformedFrame, *f.T))
		}
		return Data(conn, Sample{
			T:    *f.T,
			X:    f.X,
			V:    f.V,
			A:    f.A,
			AllX: f.AllX,
			AllV: f.AllV,
		})
	case TypeError:
		msg := f.Message
		if msg == "" {
			msg = "server reported an error"
		}
		return Failure(conn, FailureServer, msg, nil)
	case TypeInit:
		return Event{
			Kind: EventInit,
			Conn: conn,
			Init: Init{Dofs: f.Dofs, Frequencies: f.Periods, Duration: f.Duration},
		}
	default:
		return malformed(conn, fmt.Errorf("%w: unknown message type %q", ErrMalformedFrame, f.Type))
	}
}

func malformed(conn uint64, err error) Event {
	return Failure(conn, FailureMalformed, err.Error(), err)
}
