package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/modalstream/internal/series"
)

type Quantity int

const (
	Displacement Quantity = iota
	Velocity
	Acceleration
)

var quantityNames = [...]string{"x [m]", "v [m/s]", "a [m/s²]"}

func (q Quantity) String() string { return quantityNames[q] }

// Value picks this quantity out of a point.
func (q Quantity) Value(p series.Point) float64 {
	switch q {
	case Velocity:
		return p.V
	case Acceleration:
		return p.A
	default:
		return p.X
	}
}

// Resample bins points into cols columns spanning w. Each column holds the
// last value that fell inside it; empty columns are NaN.
func Resample(points []series.Point, w series.Window, cols int, q Quantity) []float64 {
	out := make([]float64, cols)
	for i := range out {
		out[i] = math.NaN()
	}
	span := w.Max - w.Min
	if cols == 0 || span <= 0 {
		return out
	}
	for _, p := range points {
		if p.T < w.Min || p.T > w.Max {
			continue
		}
		col := int((p.T - w.Min) / span * float64(cols-1))
		out[col] = q.Value(p)
	}
	return out
}

type ChartOptions struct {
	Width  int
	Height int
	Show   [3]bool
	// PulseEnd is the end of the pulse in simulated seconds; zero hides the
	// marker.
	PulseEnd float64
}

// RenderChart draws the visible part of one mode's series, one graph per
// enabled quantity.
func RenderChart(sr *series.Series, opts ChartOptions) string {
	if opts.Width < 10 {
		opts.Width = 10
	}
	if opts.Height < 2 {
		opts.Height = 2
	}
	w := sr.Window()
	visible := sr.Visible()

	var b strings.Builder
	b.WriteString(titleStyle().Render(fmt.Sprintf("Mode %d  T = %.3f s", sr.Index+1, sr.Period)))
	b.WriteString("\n")

	colors := []lipgloss.Color{CurrentTheme.Primary, CurrentTheme.Accent, CurrentTheme.Warning}
	shown := 0
	for q := Displacement; q <= Acceleration; q++ {
		if !opts.Show[q] {
			continue
		}
		shown++
		data := Resample(visible, w, opts.Width, q)
		peak, ok := peakAbs(data)
		if !ok {
			b.WriteString(mutedStyle().Render(fmt.Sprintf("%s  waiting for samples", q)))
			b.WriteString("\n")
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(opts.Height),
			asciigraph.Precision(4),
			asciigraph.Caption(fmt.Sprintf("%s  peak %.3e", q, peak)),
		)
		b.WriteString(chartStyle(colors[q]).Render(graph))
		b.WriteString("\n")
	}
	if shown == 0 {
		b.WriteString(mutedStyle().Render("all datasets hidden (1/2/3)"))
		b.WriteString("\n")
	}

	tau := 0.0
	if opts.PulseEnd > 0 {
		tau = sr.Normalize(opts.PulseEnd)
	}
	b.WriteString(AxisStrip(w, opts.Width, tau))
	return b.String()
}

func peakAbs(data []float64) (float64, bool) {
	peak, ok := 0.0, false
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak, ok
}

// AxisStrip labels the window ends in normalized time and marks tau when it
// lies inside the window.
func AxisStrip(w series.Window, cols int, tau float64) string {
	line := []rune(strings.Repeat("─", cols))
	marked := false
	if tau > 0 && tau >= w.Min && tau <= w.Max && w.Max > w.Min {
		col := int((tau - w.Min) / (w.Max - w.Min) * float64(cols-1))
		line[col] = '┃'
		marked = true
	}
	s := fmt.Sprintf("t/T %-6.1f %s %6.1f", w.Min, string(line), w.Max)
	if marked {
		s += fmt.Sprintf("  ┃ pulse end %.1f", tau)
	}
	return mutedStyle().Render(s)
}
