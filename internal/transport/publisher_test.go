// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"testing"
	"time"

	"audioviz/internal/dsp"
)

type fakeSource struct {
	mu       sync.Mutex
	spectrum dsp.SpectrumData
	ok       bool
}

func (f *fakeSource) Spectrum() (dsp.SpectrumData, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spectrum, f.ok
}

type collectingTransport struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
}

func (c *collectingTransport) Send(frame *Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *frame
	copied.Bands = append([]float64(nil), frame.Bands...)
	c.frames = append(c.frames, copied)
	return nil
}

func (c *collectingTransport) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *collectingTransport) snapshot() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

func TestPublisherDeliversFrames(t *testing.T) {
	source := &fakeSource{ok: true}
	source.spectrum.Bands[0] = 0.25
	source.spectrum.Peak = 0.5
	sink := &collectingTransport{}

	p := NewPublisher(time.Millisecond, source, sink)
	p.Start()
	defer p.Close()

	deadline := time.Now().Add(time.Second)
	for len(sink.snapshot()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	frames := sink.snapshot()
	if len(frames) < 3 {
		t.Fatalf("received %d frames, want at least 3", len(frames))
	}
	for i, f := range frames {
		if f.Seq != uint32(i+1) {
			t.Errorf("frame %d has seq %d, want %d", i, f.Seq, i+1)
		}
		if len(f.Bands) != dsp.NumBands {
			t.Errorf("frame %d has %d bands, want %d", i, len(f.Bands), dsp.NumBands)
		}
		if f.Bands[0] != 0.25 || f.Peak != 0.5 {
			t.Errorf("frame %d carries wrong data: %+v", i, f)
		}
		if f.Timestamp == 0 {
			t.Errorf("frame %d has no timestamp", i)
		}
	}
}

func TestPublisherSkipsAbsentSpectrum(t *testing.T) {
	source := &fakeSource{ok: false}
	sink := &collectingTransport{}

	p := NewPublisher(time.Millisecond, source, sink)
	p.Start()
	time.Sleep(20 * time.Millisecond)
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("published %d frames from an absent source, want 0", got)
	}
}

func TestPublisherStartStopIdempotent(t *testing.T) {
	source := &fakeSource{ok: true}
	p := NewPublisher(time.Millisecond, source)

	p.Start()
	p.Start() // second call must not spawn a second goroutine
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop error: %v", err)
	}

	// The publisher restarts cleanly after a stop.
	p.Start()
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop after restart error: %v", err)
	}
}

func TestPublisherCloseClosesTransports(t *testing.T) {
	sink := &collectingTransport{}
	p := NewPublisher(time.Millisecond, &fakeSource{}, sink)
	p.Start()

	if err := p.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if !sink.closed {
		t.Error("Close did not close the transport")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(&Frame{Seq: 1, Bands: make([]float64, dsp.NumBands)}); err != nil {
		t.Errorf("Send error: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
