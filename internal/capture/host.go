// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"strings"

	"audioviz/internal/dsp"
	applog "audioviz/internal/log"

	"github.com/gen2brain/malgo"
)

// hostCapture drives the miniaudio host-API backend. The audio runtime
// owns the callback thread; this type only routes data into the bridge
// and flips the liveness flag on faults.
type hostCapture struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	bridge *Bridge
	mono   []float64 // reusable downmix buffer, touched only by the data callback
}

// newHostCapture resolves a loopback/monitor device and starts a
// capture stream on it. Every failure returns an error; the factory
// degrades to the stub.
func newHostCapture(bridge *Bridge) (*hostCapture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		applog.Debugf("capture: miniaudio: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	target, ok := resolveCaptureTarget(listCaptureDevices(ctx))
	if !ok {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("no capture device available")
	}

	c := &hostCapture{
		ctx:    ctx,
		bridge: bridge,
		mono:   make([]float64, 0, dsp.FFTSize),
	}

	// Zero channel count, rate and period size keep the host's own
	// defaults. Forcing a small buffer here can audibly disturb playback
	// sharing the device, so we never do.
	deviceConfig := malgo.DefaultDeviceConfig(target.deviceType)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 0
	deviceConfig.SampleRate = 0
	if target.deviceID != nil {
		deviceConfig.Capture.DeviceID = target.deviceID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: c.onFrames,
		Stop: c.onStop,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	c.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("start capture device: %w", err)
	}

	applog.Infof("capture: host backend started (%d Hz)", device.SampleRate())
	return c, nil
}

// onFrames runs on the audio runtime's thread. The negotiated channel
// count is derived from the frame count rather than assumed from the
// requested config.
func (c *hostCapture) onFrames(_, input []byte, frameCount uint32) {
	if frameCount == 0 || len(input) < 4 {
		return
	}
	channels := len(input) / 4 / int(frameCount)
	c.mono = decodeAverageMono(c.mono[:0], input, channels)
	c.bridge.Push(c.mono)
}

// onStop fires on any stream fault (device unplugged, server gone).
// Deactivation is permanent; recovery means constructing a new manager.
func (c *hostCapture) onStop() {
	c.bridge.Deactivate()
}

func (c *hostCapture) Spectrum() (dsp.SpectrumData, bool) {
	return c.bridge.Spectrum()
}

func (c *hostCapture) Active() bool {
	return c.bridge.Active()
}

func (c *hostCapture) SetTap(tap Tap) {
	c.bridge.SetTap(tap)
}

// Close stops the stream and releases the context. The liveness flag is
// forced false even if the device refuses to stop cleanly.
func (c *hostCapture) Close() error {
	c.bridge.Deactivate()
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		err := c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
		if err != nil {
			return fmt.Errorf("uninit audio context: %w", err)
		}
	}
	return nil
}
