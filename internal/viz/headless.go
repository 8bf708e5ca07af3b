package viz

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/stream"
)

var _ session.Renderer = (*Printer)(nil)

// Printer renders a session as plain lines, one per Every samples. It backs
// the non-interactive stream command.
type Printer struct {
	Out   io.Writer
	Every int

	frames int
}

func NewPrinter(out io.Writer, every int) *Printer {
	if every < 1 {
		every = 1
	}
	return &Printer{Out: out, Every: every}
}

func (p *Printer) State(s session.State) {
	fmt.Fprintf(p.Out, "# state %s\n", s)
}

func (p *Printer) Failure(err error) {
	fmt.Fprintf(p.Out, "# error %v\n", err)
}

func (p *Printer) Clear([]series.Window) {
	p.frames = 0
	fmt.Fprintln(p.Out, "# t x v a all_x")
}

func (p *Printer) Append(int, series.Point, series.Window) {}

func (p *Printer) Frame(s stream.Sample) {
	p.frames++
	if (p.frames-1)%p.Every != 0 {
		return
	}
	floors := make([]string, len(s.AllX))
	for i, x := range s.AllX {
		floors[i] = fmt.Sprintf("%.6e", x)
	}
	fmt.Fprintf(p.Out, "%.4f %.6e %.6e %.6e [%s]\n", s.T, s.X, s.V, s.A, strings.Join(floors, " "))
}

func (p *Printer) Windows([]series.Window) {}

func (p *Printer) Rebuild(periods []float64) {
	fmt.Fprintf(p.Out, "# periods %s\n", formatPeriods(periods))
}

func (p *Printer) Relabel(periods []float64) {
	fmt.Fprintf(p.Out, "# periods %s\n", formatPeriods(periods))
}

func formatPeriods(periods []float64) string {
	parts := make([]string, len(periods))
	for i, t := range periods {
		parts[i] = fmt.Sprintf("T%d=%.4fs", i+1, t)
	}
	return strings.Join(parts, " ")
}
