// SPDX-License-Identifier: MIT
package transport

import (
	applog "audioviz/internal/log"
)

// LoggingTransport prints each frame's peak at debug level. Useful for
// verifying the pipeline end to end without any client attached.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

// Send logs the frame and never fails.
func (lt *LoggingTransport) Send(frame *Frame) error {
	applog.Debugf("frame %d: peak=%.3f bands=%v", frame.Seq, frame.Peak, frame.Bands)
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
