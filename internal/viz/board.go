package viz

import (
	"github.com/san-kum/modalstream/internal/metrics"
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/stream"
)

var _ session.Renderer = (*Board)(nil)

// Board is the view state the session controller renders into. The TUI
// reads it back when drawing.
type Board struct {
	periods []float64
	windows []series.Window
	width   float64

	state   session.State
	failure error
	sample  stream.Sample
	sampled bool
	peak    *metrics.Peak
	metrics []metrics.Metric
}

// NewBoard creates a board whose windows default to width periods. The
// extra metrics are fed every frame and reset on every clear.
func NewBoard(width float64, ms ...metrics.Metric) *Board {
	if width <= 0 {
		width = series.DefaultWidth
	}
	return &Board{width: width, peak: metrics.NewPeak(), metrics: ms}
}

func (b *Board) State(s session.State) {
	b.state = s
	if s == session.Connecting || s == session.Idle {
		b.failure = nil
	}
}

func (b *Board) Failure(err error) { b.failure = err }

func (b *Board) Clear(ws []series.Window) {
	b.windows = append(b.windows[:0], ws...)
	b.sample = stream.Sample{}
	b.sampled = false
	b.peak.Reset()
	for _, m := range b.metrics {
		m.Reset()
	}
}

func (b *Board) Append(mode int, _ series.Point, w series.Window) {
	if mode < len(b.windows) {
		b.windows[mode] = w
	}
}

func (b *Board) Frame(s stream.Sample) {
	b.sample = s
	b.sampled = true
	b.peak.Observe(s)
	for _, m := range b.metrics {
		m.Observe(s)
	}
}

func (b *Board) Windows(ws []series.Window) {
	b.windows = append(b.windows[:0], ws...)
}

func (b *Board) Rebuild(periods []float64) {
	b.periods = append([]float64(nil), periods...)
	b.windows = make([]series.Window, len(periods))
	for i := range b.windows {
		b.windows[i] = series.Window{Min: 0, Max: b.width}
	}
}

func (b *Board) Relabel(periods []float64) {
	b.periods = append(b.periods[:0], periods...)
}

func (b *Board) Periods() []float64 { return b.periods }

func (b *Board) Window(mode int) series.Window {
	if mode < 0 || mode >= len(b.windows) {
		return series.Window{Min: 0, Max: b.width}
	}
	return b.windows[mode]
}

func (b *Board) SessionState() session.State { return b.state }

func (b *Board) LastFailure() error { return b.failure }

// Sample returns the latest full-system state, if one arrived since the
// last clear.
func (b *Board) Sample() (stream.Sample, bool) { return b.sample, b.sampled }

// Scale is the running peak displacement used to size the schematic.
func (b *Board) Scale() float64 { return b.peak.Value() }

func (b *Board) Peak() *metrics.Peak { return b.peak }

func (b *Board) Metrics() []metrics.Metric { return b.metrics }
