package analysis

import (
	"math"

	"github.com/san-kum/modalstream/internal/series"
)

// Portrait is the displacement/velocity trajectory of one mode.
type Portrait struct {
	X, V []float64
}

// PhasePortrait pairs displacement with velocity for every recorded point.
func PhasePortrait(points []series.Point) Portrait {
	p := Portrait{
		X: make([]float64, len(points)),
		V: make([]float64, len(points)),
	}
	for i, pt := range points {
		p.X[i] = pt.X
		p.V[i] = pt.V
	}
	return p
}

// Len is the number of states in the trajectory.
func (p Portrait) Len() int { return len(p.X) }

// Peaks returns the largest absolute displacement and velocity, each at
// least a tiny positive value so callers can divide by them.
func (p Portrait) Peaks() (x, v float64) {
	x, v = 1e-12, 1e-12
	for i := range p.X {
		x = math.Max(x, math.Abs(p.X[i]))
		v = math.Max(v, math.Abs(p.V[i]))
	}
	return x, v
}
