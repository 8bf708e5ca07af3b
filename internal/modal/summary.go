// Package modal fetches modal summaries from the analysis service and
// reconciles them with the mode charts already on screen.
package modal

import (
	"math"
)

// Gravity is the acceleration used to express floor mass as a load.
const Gravity = 9.807

// Summary is the ordered sequence of natural periods, one per mode.
type Summary struct {
	Periods []float64
}

// SummaryFromFrequencies converts natural circular frequencies (rad/s) to
// periods T = 2π/ω. A zero frequency yields +Inf, which Reconcile rejects.
func SummaryFromFrequencies(omegas []float64) Summary {
	periods := make([]float64, len(omegas))
	for i, w := range omegas {
		periods[i] = 2 * math.Pi / w
	}
	return Summary{Periods: periods}
}

func (s Summary) Len() int { return len(s.Periods) }

// Analysis is the analysis service response.
type Analysis struct {
	Frequencies []float64   `json:"frequencies"`
	Periods     []float64   `json:"periods"`
	Modes       [][]float64 `json:"modes"`
	M           [][]float64 `json:"M_matrix"`
	K           [][]float64 `json:"K_matrix"`
}

// Summary derives periods from the frequency sequence, which is the only
// part of the response the streaming core relies on.
func (a *Analysis) Summary() Summary {
	return SummaryFromFrequencies(a.Frequencies)
}

// FrequencyHz returns mode i's natural frequency in Hz.
func (a *Analysis) FrequencyHz(i int) float64 {
	return a.Frequencies[i] / (2 * math.Pi)
}

// FloorLoads returns the equivalent floor load q = M_ii·g/A in kN/m² for a
// plan area in m².
func (a *Analysis) FloorLoads(area float64) []float64 {
	loads := make([]float64, len(a.M))
	for i := range a.M {
		if i < len(a.M[i]) && area > 0 {
			loads[i] = a.M[i][i] * Gravity / area / 1000
		}
	}
	return loads
}
