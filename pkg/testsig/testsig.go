// Package testsig generates deterministic mono test signals for the
// analyzer and transport tests.
package testsig

import "math"

// SineAtBin returns n samples of a unit sinusoid whose frequency falls
// exactly on FFT bin k of an n-point transform, so spectral leakage is
// confined to the neighboring bins.
func SineAtBin(n, k int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = math.Sin(2 * math.Pi * float64(k) * float64(i) / float64(n))
	}
	return buf
}

// Impulse returns n zero samples with a single 1.0 at position pos.
// Its magnitude spectrum is exactly flat across all bins.
func Impulse(n, pos int) []float64 {
	buf := make([]float64, n)
	if pos >= 0 && pos < n {
		buf[pos] = 1.0
	}
	return buf
}

// Ramp returns n samples counting up from 0, scaled into [0, 1).
// Useful for asserting sample ordering across buffer boundaries.
func Ramp(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = float64(i) / float64(n)
	}
	return buf
}
