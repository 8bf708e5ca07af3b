package session_test

import (
	"context"
	"errors"

	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/stream"
)

type fakeConn struct {
	id      uint64
	sent    []stream.StartMessage
	closes  int
	sendErr error
}

func (c *fakeConn) ID() uint64 { return c.id }

func (c *fakeConn) Send(msg stream.StartMessage) error {
	if c.closes > 0 {
		return stream.ErrClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.closes++
	return nil
}

// fakeTransport hands out connections without touching the network. Tests
// feed events back through Controller.Handle.
type fakeTransport struct {
	conns   []*fakeConn
	sendErr error
}

func (t *fakeTransport) Open(_ context.Context, _ stream.Sink) stream.Conn {
	c := &fakeConn{id: uint64(len(t.conns) + 1), sendErr: t.sendErr}
	t.conns = append(t.conns, c)
	return c
}

func (t *fakeTransport) last() *fakeConn {
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

type fakeConfig struct {
	floors int
	err    error
}

func (f fakeConfig) ModelRequest() (stream.ModelRequest, error) {
	if f.err != nil {
		return stream.ModelRequest{}, f.err
	}
	hc := make([]float64, f.floors)
	for i := range hc {
		hc[i] = 3
	}
	return stream.ModelRequest{Hc: hc, Depth: 6, BaseCondition: 1}, nil
}

func (f fakeConfig) SimRequest() stream.SimRequest {
	return stream.SimRequest{
		Dt:            0.02,
		ForceFunction: stream.ForceFunction{Type: "pulse", Amp: 1000, Freq: 6.28, Duration: 2},
	}
}

var errMissingHeights = errors.New("model.story_heights: missing")

type appended struct {
	mode   int
	point  series.Point
	window series.Window
}

type recordingRenderer struct {
	states   []session.State
	failures []error
	clears   int
	appends  []appended
	frames   []stream.Sample
	windows  [][]series.Window
	rebuilds [][]float64
	relabels [][]float64
}

func (r *recordingRenderer) State(s session.State) { r.states = append(r.states, s) }
func (r *recordingRenderer) Failure(err error) { r.failures = append(r.failures, err) }
func (r *recordingRenderer) Clear([]series.Window) { r.clears++ }
func (r *recordingRenderer) Frame(s stream.Sample) { r.frames = append(r.frames, s) }
func (r *recordingRenderer) Windows(w []series.Window) { r.windows = append(r.windows, w) }
func (r *recordingRenderer) Rebuild(p []float64) { r.rebuilds = append(r.rebuilds, p) }
func (r *recordingRenderer) Relabel(p []float64) { r.relabels = append(r.relabels, p) }

func (r *recordingRenderer) Append(mode int, p series.Point, w series.Window) {
	r.appends = append(r.appends, appended{mode: mode, point: p, window: w})
}

type countingMetrics struct {
	samples, stale, failures, reconciles, mismatches int
}

func (m *countingMetrics) SampleApplied(float64) { m.samples++ }
func (m *countingMetrics) Transition(string, string) {}
func (m *countingMetrics) Failure(string) { m.failures++ }
func (m *countingMetrics) StaleEvent(string) { m.stale++ }

func (m *countingMetrics) Reconciled(_ string, mismatch bool) {
	m.reconciles++
	if mismatch {
		m.mismatches++
	}
}
