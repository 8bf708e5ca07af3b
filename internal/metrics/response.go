package metrics

import (
	"math"

	"github.com/san-kum/modalstream/internal/stream"
)

// Metric summarizes a stream of samples.
type Metric interface {
	Name() string
	Observe(s stream.Sample)
	Value() float64
	Reset()
}

// Peak tracks the largest absolute floor displacement seen.
type Peak struct {
	name  string
	floor []float64
	peak  float64
}

func NewPeak() *Peak {
	return &Peak{name: "peak_displacement"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s stream.Sample) {
	if len(p.floor) < len(s.AllX) {
		p.floor = append(p.floor, make([]float64, len(s.AllX)-len(p.floor))...)
	}
	for i, x := range s.AllX {
		ax := math.Abs(x)
		if ax > p.floor[i] {
			p.floor[i] = ax
		}
		if ax > p.peak {
			p.peak = ax
		}
	}
}

func (p *Peak) Value() float64 { return p.peak }

// Floor returns the peak of floor i, zero if never observed.
func (p *Peak) Floor(i int) float64 {
	if i < 0 || i >= len(p.floor) {
		return 0
	}
	return p.floor[i]
}

func (p *Peak) Reset() {
	p.floor = p.floor[:0]
	p.peak = 0
}

// KineticEnergy is the sum of ½·m·v² over floors for the latest sample.
// Masses are in tonnes, the result in kJ.
type KineticEnergy struct {
	name    string
	masses  []float64
	current float64
	max     float64
	samples int
}

func NewKineticEnergy(masses []float64) *KineticEnergy {
	return &KineticEnergy{
		name:   "kinetic_energy",
		masses: masses,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s stream.Sample) {
	ke := 0.0
	for i, v := range s.AllV {
		if i >= len(e.masses) {
			break
		}
		ke += 0.5 * e.masses[i] * v * v
	}
	e.current = ke
	if ke > e.max {
		e.max = ke
	}
	e.samples++
}

func (e *KineticEnergy) Value() float64 { return e.current }

func (e *KineticEnergy) Max() float64 { return e.max }

func (e *KineticEnergy) Reset() {
	e.current = 0
	e.max = 0
	e.samples = 0
}

// Drift tracks the largest interstory drift ratio |x_i - x_{i-1}| / h_i.
// The ground floor drifts relative to the base.
type Drift struct {
	name      string
	heights   []float64
	limit     float64
	max       float64
	samples   int
	exceeding int
}

func NewDrift(heights []float64, limit float64) *Drift {
	return &Drift{
		name:    "interstory_drift",
		heights: heights,
		limit:   limit,
	}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(s stream.Sample) {
	d.samples++
	below := 0.0
	over := false
	for i, x := range s.AllX {
		if i >= len(d.heights) || d.heights[i] <= 0 {
			break
		}
		ratio := math.Abs(x-below) / d.heights[i]
		if ratio > d.max {
			d.max = ratio
		}
		if ratio > d.limit {
			over = true
		}
		below = x
	}
	if over {
		d.exceeding++
	}
}

func (d *Drift) Value() float64 { return d.max }

// Exceedance is the fraction of samples where any story exceeded the limit.
func (d *Drift) Exceedance() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.exceeding) / float64(d.samples)
}

func (d *Drift) Reset() {
	d.max = 0
	d.samples = 0
	d.exceeding = 0
}
