// SPDX-License-Identifier: MIT
// Package cmd parses the command line into a validated configuration.
// Precedence is flags over environment over file over defaults.
package cmd

import (
	"os"

	"audioviz/internal/config"
	"audioviz/pkg/build"

	"github.com/spf13/cobra"
)

func ParseArgs() (*config.Config, error) {
	info := build.Info()
	defaults := config.Defaults()

	var (
		configPath string
		command    string
	)

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Capture system audio and publish a smoothed band spectrum",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil // bare invocation runs the pipeline
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			command = "list"
		},
	}
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Browse audio devices interactively",
		Run: func(cmd *cobra.Command, args []string) {
			command = "devices"
		},
	}
	rootCmd.AddCommand(listCmd, devicesCmd)

	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "f", "", "Path to a YAML configuration file")

	backend := f.StringP("backend", "b", defaults.Capture.Backend,
		"Capture backend: auto, pulse or host")
	window := f.StringP("window", "w", defaults.Capture.Window,
		"FFT window function (hann, hamming, blackman, blackman-nuttall, nuttall, lanczos)")
	interval := f.DurationP("interval", "i", defaults.Capture.PollInterval,
		"Spectrum publish interval")

	wsAddr := f.String("ws", defaults.Transport.WebSocketAddr,
		"Serve spectrum JSON over WebSocket on this address")
	udpTarget := f.String("udp", defaults.Transport.UDPTargetAddress,
		"Send binary spectrum packets to this UDP address")

	recordFlag := f.BoolP("record", "r", false,
		"Tap the mono capture stream to a WAV file")
	output := f.StringP("output", "o", "",
		"Recording file name. Default is capture-YYYYMMDD-HHMMSS.wav")

	debug := f.BoolP("debug", "v", false, "Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Command = command

	// Flags the user actually set win over everything.
	if f.Changed("backend") {
		cfg.Capture.Backend = *backend
	}
	if f.Changed("window") {
		cfg.Capture.Window = *window
	}
	if f.Changed("interval") {
		cfg.Capture.PollInterval = *interval
	}
	if f.Changed("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddr = *wsAddr
	}
	if f.Changed("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = *udpTarget
	}
	if *recordFlag || f.Changed("output") {
		cfg.Recording.Enabled = true
	}
	if f.Changed("output") {
		cfg.Recording.OutputFile = *output
	}
	if *debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
