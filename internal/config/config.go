// SPDX-License-Identifier: MIT
// Package config holds the application configuration, loaded from YAML
// with environment overrides and finished off by CLI flags.
package config

import (
	"fmt"
	"time"
)

// Capture backend selectors.
const (
	BackendAuto  = "auto"
	BackendPulse = "pulse"
	BackendHost  = "host"
)

// Config is the root configuration structure.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Verbose logging and extra diagnostics.
	LogLevel string `yaml:"log_level"`         // "debug", "info", "warn", "error".
	Command  string `yaml:"command,omitempty"` // One-off command ("list") instead of running the pipeline.

	Capture   CaptureConfig   `yaml:"capture"`
	Transport TransportConfig `yaml:"transport"`
	Recording RecordingConfig `yaml:"recording"`
}

// CaptureConfig selects and tunes the audio capture pipeline.
type CaptureConfig struct {
	Backend      string        `yaml:"backend"`       // auto, pulse or host.
	Window       string        `yaml:"window"`        // FFT window function name, hann by default.
	PollInterval time.Duration `yaml:"poll_interval"` // Spectrum poll cadence for the publishers.
}

// TransportConfig controls spectrum fan-out to external consumers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve spectrum JSON over WebSocket.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary spectrum packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target "host:port".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// RecordingConfig controls the debug WAV tap on the capture stream.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Tap the mono capture stream to a WAV file.
	OutputFile string `yaml:"output_file"` // Destination path; empty derives a timestamped name.
	SampleRate int    `yaml:"sample_rate"` // Nominal rate written into the WAV header.
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Capture: CaptureConfig{
			Backend:      BackendAuto,
			Window:       "hann",
			PollInterval: 33 * time.Millisecond, // ~30Hz, a typical render cadence
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
			SampleRate: 48000,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Capture.Backend {
	case "", BackendAuto, BackendPulse, BackendHost:
	default:
		return fmt.Errorf("capture.backend must be one of %s, %s, %s; got %q",
			BackendAuto, BackendPulse, BackendHost, c.Capture.Backend)
	}
	if c.Capture.PollInterval <= 0 {
		return fmt.Errorf("capture.poll_interval must be positive")
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Recording.Enabled && c.Recording.SampleRate <= 0 {
		return fmt.Errorf("recording.sample_rate must be positive")
	}
	return nil
}
