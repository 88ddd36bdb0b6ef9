// SPDX-License-Identifier: MIT
package capture

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func float32LE(values ...float32) []byte {
	raw := make([]byte, 0, len(values)*4)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return raw
}

func TestDecodeFirstChannelMono(t *testing.T) {
	// Stereo frames: the right channel is discarded.
	raw := float32LE(0.1, 0.9, 0.2, 0.8, 0.3, 0.7)

	mono, rest := decodeFirstChannelMono(nil, raw, 2)
	if len(rest) != 0 {
		t.Errorf("rest = %d bytes, want 0", len(rest))
	}
	want := []float64{0.1, 0.2, 0.3}
	if len(mono) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(mono), len(want))
	}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-6 {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}

func TestDecodeFirstChannelMonoPartialFrame(t *testing.T) {
	// One full stereo frame plus five stray bytes: a partial second
	// frame, itself ending mid-float.
	raw := append(float32LE(0.5, -0.5), float32LE(0.25)...)
	raw = append(raw, 0xAB)

	mono, rest := decodeFirstChannelMono(nil, raw, 2)
	if len(mono) != 1 {
		t.Fatalf("decoded %d samples, want 1", len(mono))
	}
	if len(rest) != 5 {
		t.Errorf("rest = %d bytes, want 5", len(rest))
	}
}

func TestDecodeFirstChannelMonoEmptyAndShort(t *testing.T) {
	if mono, rest := decodeFirstChannelMono(nil, nil, 2); len(mono) != 0 || len(rest) != 0 {
		t.Errorf("nil input: mono=%d rest=%d", len(mono), len(rest))
	}
	if mono, rest := decodeFirstChannelMono(nil, []byte{1, 2, 3}, 1); len(mono) != 0 || len(rest) != 3 {
		t.Errorf("sub-float input: mono=%d rest=%d", len(mono), len(rest))
	}
}

func TestDecodeFirstChannelMonoRemainderCarry(t *testing.T) {
	// A stereo stream split at an awkward byte boundary must reassemble
	// without losing or duplicating samples.
	full := float32LE(1, -1, 2, -2, 3, -3, 4, -4)
	var mono []float64
	var pending []byte
	for _, cut := range [][2]int{{0, 5}, {5, 13}, {13, len(full)}} {
		pending = append(pending, full[cut[0]:cut[1]]...)
		var rest []byte
		mono, rest = decodeFirstChannelMono(mono, pending, 2)
		pending = append(pending[:0:0], rest...)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d bytes after the stream ended, want 0", len(pending))
	}
	want := []float64{1, 2, 3, 4}
	if len(mono) != len(want) {
		t.Fatalf("reassembled %d samples, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}

func TestDecodeAverageMono(t *testing.T) {
	raw := float32LE(0.2, 0.4, -1, 1)

	mono := decodeAverageMono(nil, raw, 2)
	if len(mono) != 2 {
		t.Fatalf("decoded %d samples, want 2", len(mono))
	}
	if math.Abs(mono[0]-0.3) > 1e-6 {
		t.Errorf("mono[0] = %v, want 0.3", mono[0])
	}
	if mono[1] != 0 {
		t.Errorf("mono[1] = %v, want 0", mono[1])
	}
}

func TestDecodeAverageMonoTrailingBytesIgnored(t *testing.T) {
	raw := append(float32LE(0.5, 0.5), 0x01, 0x02, 0x03)
	mono := decodeAverageMono(nil, raw, 2)
	if len(mono) != 1 {
		t.Errorf("decoded %d samples, want 1", len(mono))
	}
}

func TestDecodeAverageMonoClampsChannels(t *testing.T) {
	raw := float32LE(0.5, 0.25)
	mono := decodeAverageMono(nil, raw, 0)
	if len(mono) != 2 {
		t.Errorf("channels=0 should decode as mono: got %d samples", len(mono))
	}
}

const pactlInfoOutput = `Server String: /run/user/1000/pulse/native
Server Name: PulseAudio (on PipeWire 1.0.3)
Default Sample Specification: float32le 2ch 48000Hz
Default Sink: alsa_output.pci-0000_00_1f.3.analog-stereo
Default Source: alsa_input.pci-0000_00_1f.3.analog-stereo
`

const pactlSinkListing = "" +
	"52\talsa_output.pci-0000_00_1f.3.analog-stereo\tPipeWire\tfloat32le 2ch 48000Hz\tRUNNING\n" +
	"57\tbluez_output.AA_BB.1\tPipeWire\ts16le 1ch 44100Hz\tIDLE\n"

func TestParseDefaultSink(t *testing.T) {
	if got := parseDefaultSink(pactlInfoOutput); got != "alsa_output.pci-0000_00_1f.3.analog-stereo" {
		t.Errorf("parseDefaultSink = %q", got)
	}
	if got := parseDefaultSink("Server Name: whatever\n"); got != "" {
		t.Errorf("parseDefaultSink on sinkless output = %q, want empty", got)
	}
}

func TestParseSinkChannels(t *testing.T) {
	if got := parseSinkChannels(pactlSinkListing, "alsa_output.pci-0000_00_1f.3.analog-stereo"); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := parseSinkChannels(pactlSinkListing, "bluez_output.AA_BB.1"); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := parseSinkChannels(pactlSinkListing, "no_such_sink"); got != 0 {
		t.Errorf("channels for unknown sink = %d, want 0", got)
	}
	if got := parseSinkChannels("garbage\n", "x"); got != 0 {
		t.Errorf("channels from garbage = %d, want 0", got)
	}
}

func TestDefaultSinkName(t *testing.T) {
	saved := pactlOutput
	t.Cleanup(func() { pactlOutput = saved })

	pactlOutput = func(args ...string) ([]byte, error) {
		return []byte(pactlInfoOutput), nil
	}
	sink, err := defaultSinkName()
	if err != nil || sink != "alsa_output.pci-0000_00_1f.3.analog-stereo" {
		t.Errorf("defaultSinkName = (%q, %v)", sink, err)
	}

	pactlOutput = func(args ...string) ([]byte, error) {
		return nil, errors.New("pactl not installed")
	}
	if _, err := defaultSinkName(); err == nil {
		t.Error("expected an error when pactl fails")
	}
}

func TestSinkChannelsQuery(t *testing.T) {
	saved := pactlOutput
	t.Cleanup(func() { pactlOutput = saved })

	pactlOutput = func(args ...string) ([]byte, error) {
		return []byte(pactlSinkListing), nil
	}
	channels, err := sinkChannels("alsa_output.pci-0000_00_1f.3.analog-stereo")
	if err != nil || channels != 2 {
		t.Errorf("sinkChannels = (%d, %v), want (2, nil)", channels, err)
	}

	if _, err := sinkChannels("unlisted"); err == nil {
		t.Error("expected an error for an unlisted sink")
	}
}
