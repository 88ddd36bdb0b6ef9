// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"math"
	"sync"
	"testing"

	"audioviz/internal/dsp"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	return NewBridge(dsp.NewAnalyzer(dsp.Hann))
}

func sineBlock(n int) []float64 {
	block := make([]float64, n)
	for i := range block {
		block[i] = math.Sin(2 * math.Pi * 100 * float64(i) / float64(n))
	}
	return block
}

func TestBridgePushThenSpectrum(t *testing.T) {
	b := newTestBridge(t)

	for i := 0; i < 20; i++ {
		b.Push(sineBlock(dsp.FFTSize))
		if _, ok := b.Spectrum(); !ok {
			t.Fatal("Spectrum reported unavailable on an active bridge")
		}
	}

	spectrum, ok := b.Spectrum()
	if !ok {
		t.Fatal("Spectrum reported unavailable on an active bridge")
	}
	if spectrum.Peak <= 0 {
		t.Errorf("peak = %v after pushing a sine, want > 0", spectrum.Peak)
	}
}

func TestBridgeDeactivate(t *testing.T) {
	b := newTestBridge(t)
	b.Push(sineBlock(dsp.FFTSize))

	b.Deactivate()

	if b.Active() {
		t.Error("Active() = true after Deactivate")
	}
	if _, ok := b.Spectrum(); ok {
		t.Error("Spectrum available after Deactivate")
	}

	// Pushes after deactivation are dropped; the bridge stays dead.
	b.Push(sineBlock(dsp.FFTSize))
	if _, ok := b.Spectrum(); ok {
		t.Error("Spectrum came back after a post-deactivation push")
	}
}

func TestBridgePushDropsOnContention(t *testing.T) {
	b := newTestBridge(t)

	// Hold the analyzer lock as the reader would; the writer must give
	// up instead of blocking.
	b.mu.Lock()
	b.Push(sineBlock(dsp.FFTSize))
	b.mu.Unlock()

	spectrum, ok := b.Spectrum()
	if !ok {
		t.Fatal("Spectrum reported unavailable")
	}
	if spectrum.Peak != 0 {
		t.Errorf("peak = %v, want 0: contended push should have been dropped", spectrum.Peak)
	}
}

func TestBridgeIgnoresEmptyPush(t *testing.T) {
	b := newTestBridge(t)
	b.Push(nil)
	b.Push([]float64{})

	spectrum, ok := b.Spectrum()
	if !ok || spectrum.Peak != 0 {
		t.Errorf("empty pushes changed state: ok=%v peak=%v", ok, spectrum.Peak)
	}
}

type recordingTap struct {
	mu      sync.Mutex
	samples int
	err     error
}

func (r *recordingTap) WriteMono(samples []float64) error {
	r.mu.Lock()
	r.samples += len(samples)
	r.mu.Unlock()
	return r.err
}

func (r *recordingTap) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}

func TestBridgeTapReceivesStream(t *testing.T) {
	b := newTestBridge(t)
	tap := &recordingTap{}
	b.SetTap(tap)

	b.Push(sineBlock(512))
	b.Push(sineBlock(512))

	if got := tap.total(); got != 1024 {
		t.Errorf("tap received %d samples, want 1024", got)
	}

	b.SetTap(nil)
	b.Push(sineBlock(512))
	if got := tap.total(); got != 1024 {
		t.Errorf("detached tap still received samples: %d", got)
	}
}

func TestBridgeTapErrorDoesNotKillStream(t *testing.T) {
	b := newTestBridge(t)
	b.SetTap(&recordingTap{err: errors.New("disk full")})

	b.Push(sineBlock(dsp.FFTSize))

	if !b.Active() {
		t.Error("tap error deactivated the bridge")
	}
	if _, ok := b.Spectrum(); !ok {
		t.Error("tap error made the spectrum unavailable")
	}
}

func TestBridgeConcurrentPushAndPoll(t *testing.T) {
	b := newTestBridge(t)
	block := sineBlock(256)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.Push(block)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.Spectrum()
		}
	}()
	wg.Wait()

	if !b.Active() {
		t.Error("bridge deactivated under concurrent use")
	}
}
