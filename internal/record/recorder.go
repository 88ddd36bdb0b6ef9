// SPDX-License-Identifier: MIT
// Package record taps the mono capture stream into a WAV file. It is
// a debugging aid for inspecting what the analyzer actually hears; the
// disk write happens on the audio path, so it stays off by default.
package record

import (
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 32

// Recorder writes every mono block it receives to a WAV file. It
// satisfies the capture tap contract: WriteMono never panics and
// reports errors without retrying.
type Recorder struct {
	mu        sync.Mutex
	file      *os.File
	encoder   *wav.Encoder
	buf       *audio.IntBuffer
	recording atomic.Bool
}

// NewRecorder creates the output file and a 32-bit mono WAV encoder.
// An empty path derives a timestamped name in the working directory.
func NewRecorder(path string, sampleRate int) (*Recorder, error) {
	if path == "" {
		path = time.Now().Format("capture-20060102-150405.wav")
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}

	r := &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, 1, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}
	r.recording.Store(true)
	return r, nil
}

// WriteMono converts the block to 32-bit PCM and appends it to the
// file. Blocks arriving after Close are silently dropped.
func (r *Recorder) WriteMono(samples []float64) error {
	if !r.recording.Load() || len(samples) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return nil
	}

	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.buf.Data[i] = int(s * math.MaxInt32)
	}

	if err := r.encoder.Write(r.buf); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (r *Recorder) Close() error {
	r.recording.Store(false)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder != nil {
		if err := r.encoder.Close(); err != nil {
			return err
		}
		r.encoder = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return err
		}
		r.file = nil
	}
	return nil
}
