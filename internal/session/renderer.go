package session

import (
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/stream"
)

// Renderer is the view layer the controller drives. All calls happen on the
// goroutine that drives the controller.
type Renderer interface {
	// State is called after every transition.
	State(s State)
	// Failure surfaces a user-visible failure before any further action.
	Failure(err error)
	// Clear empties every chart; windows are the reset frames.
	Clear(windows []series.Window)
	// Append adds one point to the chart of mode and moves its window.
	Append(mode int, p series.Point, w series.Window)
	// Frame redraws the schematic from the full-system state.
	Frame(s stream.Sample)
	// Windows reframes every chart after a scrub.
	Windows(ws []series.Window)
	// Rebuild replaces every chart, one per period.
	Rebuild(periods []float64)
	// Relabel updates period-dependent titles in place.
	Relabel(periods []float64)
}

// NopRenderer ignores every call. Embed it to implement a subset.
type NopRenderer struct{}

func (NopRenderer) State(State) {}
func (NopRenderer) Failure(error) {}
func (NopRenderer) Clear([]series.Window) {}
func (NopRenderer) Append(int, series.Point, series.Window) {}
func (NopRenderer) Frame(stream.Sample) {}
func (NopRenderer) Windows([]series.Window) {}
func (NopRenderer) Rebuild([]float64) {}
func (NopRenderer) Relabel([]float64) {}

// Metrics receives controller counters. metrics.Recorder implements it.
type Metrics interface {
	SampleApplied(t float64)
	Transition(from, to string)
	Failure(kind string)
	StaleEvent(event string)
	Reconciled(outcome string, mismatch bool)
}

type nopMetrics struct{}

func (nopMetrics) SampleApplied(float64) {}
func (nopMetrics) Transition(string, string) {}
func (nopMetrics) Failure(string) {}
func (nopMetrics) StaleEvent(string) {}
func (nopMetrics) Reconciled(string, bool) {}
