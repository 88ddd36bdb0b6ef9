// SPDX-License-Identifier: MIT
package capture

import (
	"encoding/binary"
	"math"
)

// decodeAverageMono converts interleaved little-endian float32 frames
// to mono by averaging all channels within each frame, appending to dst.
// Trailing bytes shorter than one full frame are ignored.
func decodeAverageMono(dst []float64, raw []byte, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	frameBytes := channels * 4
	for len(raw) >= frameBytes {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			bits := binary.LittleEndian.Uint32(raw[ch*4:])
			sum += float64(math.Float32frombits(bits))
		}
		dst = append(dst, sum/float64(channels))
		raw = raw[frameBytes:]
	}
	return dst
}

// decodeFirstChannelMono converts interleaved little-endian float32
// frames to mono by taking the first channel of each frame, the cheap
// downmix for the real-time graph path. It appends to dst and returns
// the unconsumed trailing bytes (a partial frame, possibly a partial
// float), which the caller carries into the next chunk.
func decodeFirstChannelMono(dst []float64, raw []byte, channels int) ([]float64, []byte) {
	if channels < 1 {
		channels = 1
	}
	frameBytes := channels * 4
	frames := len(raw) / frameBytes
	for f := 0; f < frames; f++ {
		bits := binary.LittleEndian.Uint32(raw[f*frameBytes:])
		dst = append(dst, float64(math.Float32frombits(bits)))
	}
	return dst, raw[frames*frameBytes:]
}
