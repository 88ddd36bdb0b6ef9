// SPDX-License-Identifier: MIT
package capture

import (
	"sync"
	"sync/atomic"

	"audioviz/internal/dsp"
)

// Tap receives a copy of the mono stream flowing through the bridge.
// Implementations run on the audio thread and must not block.
type Tap interface {
	WriteMono(samples []float64) error
}

// Bridge shares one analyzer between exactly one writer (the capture
// callback) and one reader (the consumer poll). A mutex guards the
// analyzer; a one-way atomic flag carries liveness. The flag is read
// and written without the lock — it only ever transitions true→false,
// so a race at the transition instant costs at most one extra frame.
type Bridge struct {
	mu       sync.Mutex
	analyzer *dsp.Analyzer
	tap      Tap
	active   atomic.Bool
}

// NewBridge wraps the analyzer. The bridge starts active.
func NewBridge(analyzer *dsp.Analyzer) *Bridge {
	b := &Bridge{analyzer: analyzer}
	b.active.Store(true)
	return b
}

// Push feeds mono samples to the analyzer. It never blocks: if the
// reader holds the lock, the block is silently dropped. Safe to call
// from an audio-runtime thread.
func (b *Bridge) Push(samples []float64) {
	if len(samples) == 0 || !b.active.Load() {
		return
	}
	if !b.mu.TryLock() {
		return // contention: drop this block, the next one slides the window
	}
	b.analyzer.PushSamples(samples)
	tap := b.tap
	b.mu.Unlock()

	if tap != nil {
		_ = tap.WriteMono(samples) // tap failures never reach the audio path
	}
}

// Spectrum runs one analysis pass and returns the smoothed snapshot.
// The second return is false once the bridge has been deactivated.
func (b *Bridge) Spectrum() (dsp.SpectrumData, bool) {
	if !b.active.Load() {
		return dsp.SpectrumData{}, false
	}
	b.mu.Lock()
	spectrum := b.analyzer.Process()
	b.mu.Unlock()
	return spectrum, true
}

// Active reports liveness.
func (b *Bridge) Active() bool {
	return b.active.Load()
}

// Deactivate permanently disables the bridge. In-flight Push or
// Spectrum calls run to completion; only subsequent calls see the flag.
func (b *Bridge) Deactivate() {
	b.active.Store(false)
}

// SetTap attaches a mono-stream tap (e.g. a WAV recorder). Pass nil to
// detach.
func (b *Bridge) SetTap(tap Tap) {
	b.mu.Lock()
	b.tap = tap
	b.mu.Unlock()
}
