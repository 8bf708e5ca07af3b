package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT is the discrete Fourier transform of a real signal of any length.
func FFT(data []float64) []complex128 {
	return fft.FFTReal(data)
}

// PowerSpectrum returns the magnitude of the first half of the spectrum.
// The input is mean-removed and zero-padded to a power of two; bin k is at
// k/(len·dt) Hz where len is the padded length.
func PowerSpectrum(data []float64) []float64 {
	bins := FFT(pad(detrend(data)))
	ps := make([]float64, len(bins)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(bins[i])
	}

	return ps
}

func detrend(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

func pad(data []float64) []float64 {
	n := PaddedLen(len(data))
	if n == len(data) {
		return data
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}

// PaddedLen is the transform length PowerSpectrum uses for n samples.
func PaddedLen(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
