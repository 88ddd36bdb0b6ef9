// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"audioviz/internal/dsp"
	applog "audioviz/internal/log"
)

const (
	// pulseSampleRate is the requested capture rate. The server resamples
	// for us, so this is a hint rather than a constraint.
	pulseSampleRate = 48000

	// pulseFallbackChannels is used when the sink's negotiated channel
	// count cannot be read back.
	pulseFallbackChannels = 2

	// pulseLatencyMS keeps chunks small enough for a responsive display.
	pulseLatencyMS = 20

	// pulseStartupGrace bounds how long construction waits for the worker
	// to prove the pipe is alive. A heuristic, not a readiness signal: a
	// parec that dies instantly (no daemon, bad source) is caught here.
	pulseStartupGrace = 500 * time.Millisecond
)

// pulseCapture is the PulseAudio/PipeWire-native monitor path. A
// dedicated worker goroutine owns the blocking pipe read loop for the
// manager's entire lifetime; it shares nothing with the rest of the
// application and is released only by killing the source process.
type pulseCapture struct {
	bridge    *Bridge
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// newPulseCapture resolves the default sink's monitor source, reads
// back its channel count, and starts a parec pipe feeding the bridge.
func newPulseCapture(bridge *Bridge) (*pulseCapture, error) {
	sink, err := defaultSinkName()
	if err != nil {
		return nil, fmt.Errorf("resolve default sink: %w", err)
	}
	monitor := sink + ".monitor"

	// Stereo float32 at 48kHz is the request; the channel count actually
	// delivered is whatever the sink runs at, so query it rather than
	// assume the request was honored.
	channels, err := sinkChannels(sink)
	if err != nil {
		applog.Debugf("capture: cannot read sink channel count: %v", err)
		channels = pulseFallbackChannels
	}

	cmd := exec.Command("parec",
		"--device="+monitor,
		"--format=float32le",
		fmt.Sprintf("--rate=%d", pulseSampleRate),
		fmt.Sprintf("--channels=%d", channels),
		fmt.Sprintf("--latency-msec=%d", pulseLatencyMS),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("parec stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start parec: %w", err)
	}

	p := &pulseCapture{
		bridge: bridge,
		cmd:    cmd,
		stdout: stdout,
	}

	p.wg.Add(1)
	go p.run(channels)

	// Bounded grace period: the worker deactivates the bridge if parec
	// dies before producing anything. Liveness after the wait is a guess,
	// not a guarantee.
	deadline := time.Now().Add(pulseStartupGrace)
	for time.Now().Before(deadline) {
		if !p.bridge.Active() {
			_ = p.Close()
			return nil, fmt.Errorf("parec exited during startup")
		}
		time.Sleep(25 * time.Millisecond)
	}
	if !p.bridge.Active() {
		_ = p.Close()
		return nil, fmt.Errorf("parec exited during startup")
	}

	applog.Infof("capture: pulse backend started on %q (%d ch, %d Hz)",
		monitor, channels, pulseSampleRate)
	return p, nil
}

// run is the worker loop. It blocks on the pipe for the manager's
// lifetime; any read error, including the EOF produced by Close killing
// parec, permanently deactivates the bridge.
func (p *pulseCapture) run(channels int) {
	defer p.wg.Done()
	defer p.bridge.Deactivate()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	buf := make([]byte, 16*1024)
	var pending []byte
	mono := make([]float64, 0, dsp.FFTSize)

	for {
		n, err := p.stdout.Read(buf)
		if n > 0 {
			// Only n bytes are valid; a chunk may be any size, including
			// a partial frame or a partial float. Carry the remainder.
			pending = append(pending, buf[:n]...)
			var rest []byte
			mono, rest = decodeFirstChannelMono(mono[:0], pending, channels)
			if len(mono) > 0 {
				p.bridge.Push(mono)
			}
			// The remainder is at most one frame; copy it off the old
			// backing array instead of retaining the whole chunk.
			pending = append(pending[:0:0], rest...)
		}
		if err != nil {
			if err != io.EOF {
				applog.Debugf("capture: parec read: %v", err)
			}
			return
		}
	}
}

func (p *pulseCapture) Spectrum() (dsp.SpectrumData, bool) {
	return p.bridge.Spectrum()
}

func (p *pulseCapture) Active() bool {
	return p.bridge.Active()
}

func (p *pulseCapture) SetTap(tap Tap) {
	p.bridge.SetTap(tap)
}

// Close kills the source process, which unblocks the worker's read and
// lets it run its deactivate path.
func (p *pulseCapture) Close() error {
	p.closeOnce.Do(func() {
		p.bridge.Deactivate()
		if p.cmd != nil && p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		p.wg.Wait()
		if p.cmd != nil {
			_ = p.cmd.Wait()
		}
	})
	return nil
}

// pactl output parsing is split from the exec calls for testability.

var pactlOutput = func(args ...string) ([]byte, error) {
	return exec.Command("pactl", args...).Output()
}

// defaultSinkName asks the sound server which sink is currently the
// default playback target.
func defaultSinkName() (string, error) {
	out, err := pactlOutput("info")
	if err != nil {
		return "", fmt.Errorf("run pactl: %w", err)
	}
	sink := parseDefaultSink(string(out))
	if sink == "" {
		return "", fmt.Errorf("no default sink reported")
	}
	return sink, nil
}

// sinkChannels reads the sink's negotiated channel count from its
// sample spec.
func sinkChannels(sink string) (int, error) {
	out, err := pactlOutput("list", "short", "sinks")
	if err != nil {
		return 0, fmt.Errorf("run pactl: %w", err)
	}
	channels := parseSinkChannels(string(out), sink)
	if channels == 0 {
		return 0, fmt.Errorf("sink %q not listed", sink)
	}
	return channels, nil
}

func parseDefaultSink(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "Default Sink:"); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// parseSinkChannels finds sink in `pactl list short sinks` output and
// pulls the channel count out of its sample spec ("float32le 2ch 48000Hz").
func parseSinkChannels(listing, sink string) int {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != sink {
			continue
		}
		for _, f := range fields[2:] {
			if n, ok := strings.CutSuffix(f, "ch"); ok {
				if channels, err := strconv.Atoi(n); err == nil && channels > 0 {
					return channels
				}
			}
		}
	}
	return 0
}
