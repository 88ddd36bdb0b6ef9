// SPDX-License-Identifier: MIT
/*
Package capture grabs the system's playback audio and feeds the
spectral analyzer.

Two backends exist behind one Manager interface: a PulseAudio/PipeWire
monitor pipe (Linux, low latency) and a miniaudio host-API stream
(everything else, plus the Linux fallback). When neither can start,
the factory hands out an always-inactive stub so callers never branch
on availability — an absent spectrum just means nothing to draw.
*/
package capture

import (
	"audioviz/internal/config"
	"audioviz/internal/dsp"
	applog "audioviz/internal/log"
)

// Manager is the capture pipeline handle shared with the consumer.
type Manager interface {
	// Spectrum returns one smoothed snapshot, or false when capture is
	// unavailable or has faulted.
	Spectrum() (dsp.SpectrumData, bool)
	// Active reports whether the pipeline is still live.
	Active() bool
	// SetTap attaches a mono-stream tap (nil detaches).
	SetTap(tap Tap)
	// Close stops the stream and permanently deactivates the pipeline.
	Close() error
}

// Backend constructors are indirected so tests can force the
// unavailable path without real audio hardware.
var (
	startPulseBackend = func(bridge *Bridge) (Manager, error) { return newPulseCapture(bridge) }
	startHostBackend  = func(bridge *Bridge) (Manager, error) { return newHostCapture(bridge) }
)

// New builds the best available capture manager. It never fails: when
// no backend can start, the returned manager is a stub that reports
// inactive forever.
func New(cfg *config.Config) Manager {
	windowType, err := dsp.ParseWindowFunc(cfg.Capture.Window)
	if err != nil {
		applog.Warnf("capture: %v, using hann", err)
	}
	bridge := NewBridge(dsp.NewAnalyzer(windowType))

	backend := cfg.Capture.Backend
	if goos == "linux" && backend != config.BackendHost {
		m, err := startPulseBackend(bridge)
		if err == nil {
			return m
		}
		applog.Debugf("capture: pulse backend unavailable: %v", err)
	}
	if backend != config.BackendPulse {
		// A failed pulse probe may have deactivated the first bridge.
		bridge = NewBridge(dsp.NewAnalyzer(windowType))
		m, err := startHostBackend(bridge)
		if err == nil {
			return m
		}
		applog.Debugf("capture: host backend unavailable: %v", err)
	}

	applog.Infof("capture: no backend available, visualization disabled")
	return Stub{}
}

// Stub is the fallback manager compiled in everywhere. It presents the
// full contract and always reports unavailable.
type Stub struct{}

func (Stub) Spectrum() (dsp.SpectrumData, bool) { return dsp.SpectrumData{}, false }
func (Stub) Active() bool                       { return false }
func (Stub) SetTap(Tap)                         {}
func (Stub) Close() error                       { return nil }
