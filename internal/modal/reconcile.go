package modal

import (
	"math"

	"github.com/san-kum/modalstream/internal/series"
)

type Outcome int

const (
	// Rebuilt means every series was replaced and all buffers are empty.
	Rebuilt Outcome = iota
	// Retuned means periods were updated in place and buffers kept.
	Retuned
)

func (o Outcome) String() string {
	if o == Retuned {
		return "retuned"
	}
	return "rebuilt"
}

type Result struct {
	Outcome Outcome
	Periods []float64
	// Mismatch is set when the summary contained periods that cannot
	// normalize time (non-finite or non-positive). Those entries are dropped
	// and a rebuild is forced.
	Mismatch bool
	Dropped  int
}

// Reconcile applies a freshly computed summary to set. A different mode count
// rebuilds every series; the same count only retunes their periods.
func Reconcile(set *series.Set, summary Summary) Result {
	periods, dropped := sanitize(summary.Periods)
	if dropped > 0 {
		set.Rebuild(periods)
		return Result{Outcome: Rebuilt, Periods: periods, Mismatch: true, Dropped: dropped}
	}
	if set.Retune(periods) {
		return Result{Outcome: Retuned, Periods: periods}
	}
	set.Rebuild(periods)
	return Result{Outcome: Rebuilt, Periods: periods}
}

func sanitize(in []float64) ([]float64, int) {
	out := make([]float64, 0, len(in))
	for _, p := range in {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out, len(in) - len(out)
}
