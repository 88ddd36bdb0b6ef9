// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"os/signal"
	"syscall"

	"audioviz/cmd"
	"audioviz/internal/audiodev"
	"audioviz/internal/capture"
	"audioviz/internal/config"
	applog "audioviz/internal/log"
	"audioviz/internal/record"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
	"audioviz/internal/tui"
	"audioviz/pkg/build"
)

// main is the entry point. The program flow has three phases:
//
// 1. Startup (cold path):
//   - Resolve build information
//   - Parse command line arguments and configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent (hot path):
//   - Start the capture backend feeding the spectral analyzer
//   - Attach the WAV tap if recording is enabled
//   - Start the publishers fanning spectrum frames out
//
// 3. Shutdown (cold path):
//   - Handle termination signals
//   - Stop publishers, capture and recording in order
func main() {
	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	// One-off commands run without the capture pipeline.
	switch cfg.Command {
	case "list":
		if err := runList(); err != nil {
			applog.Fatalf("list devices: %v", err)
		}
		return
	case "devices":
		if err := tui.StartDeviceListUI(); err != nil {
			applog.Fatalf("device browser: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

// run owns the pipeline lifecycle: capture in, frames out, teardown in
// reverse order on the first termination signal.
func run(cfg *config.Config) error {
	manager := capture.New(cfg)
	defer manager.Close()

	if cfg.Recording.Enabled {
		recorder, err := record.NewRecorder(cfg.Recording.OutputFile, cfg.Recording.SampleRate)
		if err != nil {
			return err
		}
		defer recorder.Close()
		manager.SetTap(recorder)
		applog.Infof("recording capture stream")
	}

	var transports []transport.Transport
	if cfg.Transport.WebSocketEnabled {
		transports = append(transports, transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr))
	}
	if cfg.Transport.UDPEnabled {
		pt, err := udp.NewPacketTransport(cfg.Transport.UDPTargetAddress, cfg.Transport.UDPSendInterval)
		if err != nil {
			return err
		}
		transports = append(transports, pt)
	}
	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}

	publisher := transport.NewPublisher(cfg.Capture.PollInterval, manager, transports...)
	publisher.Start()
	defer publisher.Close()

	if !manager.Active() {
		applog.Warnf("no audio capture available; spectrum stays silent")
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	applog.Infof("shutting down")
	return nil
}

// runList prints the device inventory inside a short-lived PortAudio
// session.
func runList() error {
	if err := audiodev.Initialize(); err != nil {
		return err
	}
	defer audiodev.Terminate()
	return audiodev.ListDevices()
}
