package analysis

// DominantPeriod returns the period of the largest non-DC spectral peak of
// a signal sampled every dt seconds. ok is false for signals too short or
// flat to have one.
func DominantPeriod(data []float64, dt float64) (period float64, ok bool) {
	if len(data) < 4 || dt <= 0 {
		return 0, false
	}
	ps := PowerSpectrum(data)
	best, bestMag := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestMag {
			best, bestMag = k, ps[k]
		}
	}
	if best == 0 || bestMag == 0 {
		return 0, false
	}
	freq := refine(ps, best) / (float64(PaddedLen(len(data))) * dt)
	return 1 / freq, true
}

// refine interpolates the bin position of a peak with a parabola through its
// neighbours.
func refine(ps []float64, k int) float64 {
	if k <= 0 || k >= len(ps)-1 {
		return float64(k)
	}
	a, b, c := ps[k-1], ps[k], ps[k+1]
	denom := a - 2*b + c
	if denom == 0 {
		return float64(k)
	}
	return float64(k) + 0.5*(a-c)/denom
}

// CrossingPeriod estimates the period from upward zero crossings of the
// mean-removed signal, interpolating each crossing between samples.
func CrossingPeriod(data []float64, dt float64) (period float64, ok bool) {
	if len(data) < 3 || dt <= 0 {
		return 0, false
	}
	x := detrend(data)

	var crossings []float64
	for i := 1; i < len(x); i++ {
		prev, curr := x[i-1], x[i]
		if prev < 0 && curr >= 0 {
			frac := -prev / (curr - prev)
			crossings = append(crossings, (float64(i-1)+frac)*dt)
		}
	}
	if len(crossings) < 2 {
		return 0, false
	}
	return (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1), true
}
