// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"testing"

	"audioviz/internal/config"
	"audioviz/internal/dsp"
)

func stubBackends(t *testing.T) {
	t.Helper()
	savedPulse, savedHost := startPulseBackend, startHostBackend
	t.Cleanup(func() {
		startPulseBackend, startHostBackend = savedPulse, savedHost
	})
	startPulseBackend = func(*Bridge) (Manager, error) {
		return nil, errors.New("no sound server")
	}
	startHostBackend = func(*Bridge) (Manager, error) {
		return nil, errors.New("no host device")
	}
}

func TestNewFallsBackToStub(t *testing.T) {
	stubBackends(t)
	setGOOS(t, "linux")

	m := New(config.Defaults())
	if m == nil {
		t.Fatal("New returned nil; the factory must always hand out a manager")
	}
	if _, ok := m.(Stub); !ok {
		t.Fatalf("New returned %T, want the stub", m)
	}
	if m.Active() {
		t.Error("stub reports active")
	}
	if _, ok := m.Spectrum(); ok {
		t.Error("stub reports a spectrum")
	}
	m.SetTap(&recordingTap{})
	if err := m.Close(); err != nil {
		t.Errorf("stub Close error: %v", err)
	}
}

func TestNewPrefersPulseOnLinux(t *testing.T) {
	stubBackends(t)
	setGOOS(t, "linux")

	want := &fakeManager{}
	startPulseBackend = func(bridge *Bridge) (Manager, error) {
		if bridge == nil {
			t.Fatal("factory passed a nil bridge")
		}
		return want, nil
	}

	if got := New(config.Defaults()); got != Manager(want) {
		t.Errorf("New returned %T, want the pulse manager", got)
	}
}

func TestNewHostBackendGetsFreshBridge(t *testing.T) {
	stubBackends(t)
	setGOOS(t, "linux")

	var pulseBridge, hostBridge *Bridge
	startPulseBackend = func(bridge *Bridge) (Manager, error) {
		pulseBridge = bridge
		bridge.Deactivate() // a dying probe poisons its bridge
		return nil, errors.New("parec exited during startup")
	}
	startHostBackend = func(bridge *Bridge) (Manager, error) {
		hostBridge = bridge
		return &fakeManager{}, nil
	}

	New(config.Defaults())

	if pulseBridge == hostBridge {
		t.Error("host backend reused the bridge the failed pulse probe deactivated")
	}
	if hostBridge == nil || !hostBridge.Active() {
		t.Error("host backend received a dead bridge")
	}
}

func TestNewHonorsBackendSelection(t *testing.T) {
	stubBackends(t)
	setGOOS(t, "linux")

	pulseTried, hostTried := false, false
	startPulseBackend = func(*Bridge) (Manager, error) {
		pulseTried = true
		return nil, errors.New("down")
	}
	startHostBackend = func(*Bridge) (Manager, error) {
		hostTried = true
		return nil, errors.New("down")
	}

	cfg := config.Defaults()
	cfg.Capture.Backend = config.BackendHost
	New(cfg)
	if pulseTried {
		t.Error("backend=host still probed pulse")
	}
	if !hostTried {
		t.Error("backend=host never probed the host backend")
	}

	pulseTried, hostTried = false, false
	cfg.Capture.Backend = config.BackendPulse
	New(cfg)
	if !pulseTried {
		t.Error("backend=pulse never probed pulse")
	}
	if hostTried {
		t.Error("backend=pulse still probed the host backend")
	}
}

func TestNewBadWindowFallsBackToHann(t *testing.T) {
	stubBackends(t)
	setGOOS(t, "linux")

	cfg := config.Defaults()
	cfg.Capture.Window = "kaiser"
	if m := New(cfg); m == nil {
		t.Fatal("unknown window name must not abort construction")
	}
}

type fakeManager struct{}

func (*fakeManager) Spectrum() (dsp.SpectrumData, bool) { return dsp.SpectrumData{}, true }
func (*fakeManager) Active() bool                       { return true }
func (*fakeManager) SetTap(Tap)                         {}
func (*fakeManager) Close() error                       { return nil }
