// SPDX-License-Identifier: MIT
/*
Package dsp turns a rolling window of mono samples into a compact,
smoothed 12-band spectrum for visualization.

The analyzer owns a circular sample buffer and a pre-allocated FFT
workspace; Process reuses both, so the hot path does not allocate.
The output is perceptually tuned (per-band gain, sqrt compression,
smoothing, noise gate), not a measurement instrument.
*/
package dsp

import (
	"math"
	"math/cmplx"

	"audioviz/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FFTSize is the analysis window length in samples (~46ms at 44.1kHz).
	FFTSize = 2048

	// NumBands is the number of displayed frequency bands.
	NumBands = 12

	// smoothing is the one-pole feedback factor per Process call.
	smoothing = 0.5

	// gain scales all bands before compression.
	gain = 0.85

	// bandCeiling caps every band so bars never hit the top.
	bandCeiling = 0.85

	// noiseGate forces near-silent smoothed values to exactly zero.
	noiseGate = 0.005
)

// bandEdges are FFT bin boundaries on a roughly musical log scale,
// ~32Hz up to ~16kHz. The last edge is clamped to the bin count at use.
var bandEdges = [NumBands + 1]int{1, 2, 4, 8, 16, 32, 64, 128, 256, 384, 512, 768, FFTSize / 2}

// bandGains compensates for naturally weaker high-frequency energy.
var bandGains = [NumBands]float64{0.7, 0.8, 0.9, 1.0, 1.0, 1.0, 1.1, 1.2, 1.3, 1.4, 1.6, 2.0}

// SpectrumData is one spectrum snapshot. Values are in [0, 0.85],
// bands in ascending frequency order. It is a plain value; copies are cheap.
type SpectrumData struct {
	Bands [NumBands]float64
	Peak  float64
}

// workspace holds the pre-allocated buffers reused by every Process call.
type workspace struct {
	input  []float64    // windowed time-domain frame
	coeffs []complex128 // FFT output, FFTSize/2+1 bins
	window []float64    // taper coefficients
}

// Analyzer buffers incoming samples and computes smoothed spectra.
// It is not safe for concurrent use on its own; the capture bridge
// serializes access.
type Analyzer struct {
	fft      *fourier.FFT
	samples  []float64 // circular buffer, oldest sample at writePos
	writePos int
	ws       workspace
	spectrum SpectrumData
}

// NewAnalyzer creates an analyzer with the given taper. The sample
// buffer starts zeroed, so Process is valid before any push.
func NewAnalyzer(windowType WindowFunc) *Analyzer {
	if !bitint.IsPowerOfTwo(FFTSize) {
		panic("dsp: FFT size must be a power of 2")
	}
	return &Analyzer{
		fft:     fourier.NewFFT(FFTSize),
		samples: make([]float64, FFTSize),
		ws: workspace{
			input:  make([]float64, FFTSize),
			coeffs: make([]complex128, FFTSize/2+1),
			window: buildWindow(FFTSize, windowType),
		},
	}
}

// PushSamples appends mono samples to the circular buffer, overwriting
// the oldest data. Long batches may wrap the cursor multiple times.
func (a *Analyzer) PushSamples(samples []float64) {
	for _, s := range samples {
		a.samples[a.writePos] = s
		a.writePos = (a.writePos + 1) % FFTSize
	}
}

// Process analyzes the current buffer contents and returns the updated
// smoothed spectrum. Concurrent pushes between calls simply slide the
// window; Process sees whatever state exists at call time.
func (a *Analyzer) Process() SpectrumData {
	// Chronological frame: the oldest sample sits at the write cursor.
	for i := 0; i < FFTSize; i++ {
		idx := (a.writePos + i) % FFTSize
		a.ws.input[i] = a.samples[idx] * a.ws.window[i]
	}

	a.fft.Coefficients(a.ws.coeffs, a.ws.input)
	a.updateSpectrum()

	return a.spectrum
}

// updateSpectrum maps FFT bins onto the 12 bands and folds the result
// into the persisted smoothed state.
func (a *Analyzer) updateSpectrum() {
	binCount := len(a.ws.coeffs)

	var newBands [NumBands]float64
	maxMagnitude := 0.0

	for band := 0; band < NumBands; band++ {
		start := bandEdges[band]
		end := bandEdges[band+1]
		if end > binCount {
			end = binCount
		}
		if start >= end {
			continue // empty range contributes zero
		}

		sum := 0.0
		for i := start; i < end; i++ {
			magnitude := cmplx.Abs(a.ws.coeffs[i])
			sum += magnitude
			if magnitude > maxMagnitude {
				maxMagnitude = magnitude
			}
		}
		newBands[band] = sum / float64(end-start)
	}

	// Silence: keep raw zeros so the smoothed state decays to the gate.
	if maxMagnitude > 0 {
		for i := range newBands {
			normalized := newBands[i] / maxMagnitude * bandGains[i] * gain
			// sqrt gives a dB-like response that reads better than linear.
			scaled := math.Sqrt(normalized)
			newBands[i] = math.Min(scaled, bandCeiling)
		}
	}

	for i, v := range newBands {
		a.spectrum.Bands[i] = a.spectrum.Bands[i]*smoothing + v*(1-smoothing)
		if a.spectrum.Bands[i] < noiseGate {
			a.spectrum.Bands[i] = 0
		}
	}

	// Peak tracks the loudest pre-smoothing band of this frame.
	currentPeak := 0.0
	for _, v := range newBands {
		if v > currentPeak {
			currentPeak = v
		}
	}
	a.spectrum.Peak = a.spectrum.Peak*smoothing + currentPeak*(1-smoothing)
	if a.spectrum.Peak < noiseGate {
		a.spectrum.Peak = 0
	}
}
