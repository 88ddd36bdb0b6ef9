// SPDX-License-Identifier: MIT
// Package transport fans spectrum frames out to external consumers.
// A Publisher polls the capture pipeline on a fixed cadence and hands
// each frame to every configured Transport.
package transport

import (
	"audioviz/internal/dsp"
)

// Transport defines a generic interface for sending spectrum frames.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(frame *Frame) error
	Close() error
}

// Source is the slice of the capture pipeline the publisher needs.
type Source interface {
	Spectrum() (dsp.SpectrumData, bool)
}

// Frame is one published spectrum snapshot. The JSON shape is the
// WebSocket wire format; the UDP transport packs the same fields into
// a fixed binary layout.
type Frame struct {
	Seq       uint32    `json:"seq"`
	Timestamp int64     `json:"ts"` // nanoseconds since epoch
	Bands     []float64 `json:"bands"`
	Peak      float64   `json:"peak"`
}
