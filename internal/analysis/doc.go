// Package analysis checks recorded responses against the modal summary.
//
//   - [PowerSpectrum]: magnitude spectrum of a uniformly sampled signal
//   - [DominantPeriod]: period of the strongest spectral peak
//   - [CrossingPeriod]: mean interval between upward zero crossings
//   - [PhasePortrait]: displacement/velocity trajectory of a mode
//
// A free-vibration record is dominated by its first mode, so
//
//	p, ok := analysis.DominantPeriod(xs, dt)
//
// should land close to the first modal period.
package analysis
