// SPDX-License-Identifier: MIT
package capture

import (
	"runtime"
	"sort"
	"strings"

	applog "audioviz/internal/log"

	"github.com/gen2brain/malgo"
)

// goos is indirected so resolver tests can exercise every platform branch.
var goos = runtime.GOOS

// captureDevice is the resolver's view of an enumerable input device.
type captureDevice struct {
	id   malgo.DeviceID
	name string
}

// captureTarget names the device the host backend should open.
// A nil deviceID means the host default for the given device type.
type captureTarget struct {
	deviceID   *malgo.DeviceID
	deviceType malgo.DeviceType
}

// deviceEnumerator is the slice of the miniaudio context the resolver needs.
type deviceEnumerator interface {
	Devices(deviceType malgo.DeviceType) ([]malgo.DeviceInfo, error)
}

// listCaptureDevices enumerates input-capable devices with display names.
func listCaptureDevices(ctx deviceEnumerator) []captureDevice {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		applog.Debugf("capture: device enumeration failed: %v", err)
		return nil
	}
	devices := make([]captureDevice, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, captureDevice{id: info.ID, name: info.Name()})
	}
	return devices
}

// resolveCaptureTarget picks the best loopback/monitor source for the
// current platform. The boolean is false when no usable device exists.
//
//   - Windows: WASAPI captures the default render device in loopback
//     directly, no monitor source needed.
//   - Linux: PipeWire/PulseAudio expose sink monitors as named capture
//     devices; pick the best-scored one, else the default input (which
//     may be a microphone on pure ALSA setups).
//   - macOS and anything else: loopback needs an external virtual
//     device, so the default input is the only option.
func resolveCaptureTarget(devices []captureDevice) (captureTarget, bool) {
	switch goos {
	case "windows":
		return captureTarget{deviceType: malgo.Loopback}, true

	case "linux":
		if i, ok := selectMonitorDevice(devices); ok {
			applog.Infof("capture: using monitor source %q", devices[i].name)
			return captureTarget{deviceID: &devices[i].id, deviceType: malgo.Capture}, true
		}
		if len(devices) == 0 {
			return captureTarget{}, false
		}
		applog.Warnf("capture: no monitor source found, falling back to default input")
		return captureTarget{deviceType: malgo.Capture}, true

	default:
		if len(devices) == 0 {
			return captureTarget{}, false
		}
		return captureTarget{deviceType: malgo.Capture}, true
	}
}

// selectMonitorDevice returns the index of the preferred monitor-named
// device. Candidates are ranked by monitorScore; the stable sort keeps
// enumeration order among equals.
func selectMonitorDevice(devices []captureDevice) (int, bool) {
	var candidates []int
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.name), "monitor") {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return monitorScore(devices[candidates[a]].name) < monitorScore(devices[candidates[b]].name)
	})
	return candidates[0], true
}

// monitorScore ranks a monitor source by its display name. Lower wins:
// an active bluetooth sink is almost certainly what the user hears,
// HDMI is almost certainly not.
func monitorScore(name string) int {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "bluez") || strings.Contains(n, "bluetooth"):
		return 0
	case strings.Contains(n, "speaker") || strings.Contains(n, "analog"):
		return 1
	case strings.Contains(n, "hdmi"):
		return 3
	default:
		return 2
	}
}
