// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"audioviz/internal/transport"
)

/*
Packet layout (BigEndian):

|<-- 4 Bytes -->|<---- 8 Bytes ---->|<- 2 Bytes ->|<- N * 4 Bytes ->|<- 4 Bytes ->|
+---------------+-------------------+-------------+-----------------+-------------+
|   Sequence    |     Timestamp     |    Band     |      Bands      |    Peak     |
|   (uint32)    |      (int64)      |    Count    |  (N * float32)  |  (float32)  |
|               |                   |  (uint16)   |                 |             |
+---------------+-------------------+-------------+-----------------+-------------+
*/

// PacketTransport packs spectrum frames into the binary layout above
// and sends them through a Sender. A minimum send interval lets the
// datagram cadence run slower than the publisher's poll cadence.
type PacketTransport struct {
	sender      *Sender
	minInterval time.Duration

	mu       sync.Mutex // serializes access to the reusable buffers
	buf      *bytes.Buffer
	f32      []float32
	lastSend time.Time
}

// NewPacketTransport dials the target and returns the transport.
// A minInterval of 0 sends every frame it receives.
func NewPacketTransport(targetAddress string, minInterval time.Duration) (*PacketTransport, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &PacketTransport{
		sender:      sender,
		minInterval: minInterval,
		buf:         new(bytes.Buffer),
	}, nil
}

// Send packs the frame and transmits it as one datagram. Frames
// arriving faster than the minimum interval are dropped, not queued.
func (t *PacketTransport) Send(frame *transport.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if t.minInterval > 0 && now.Sub(t.lastSend) < t.minInterval {
		return nil
	}
	t.lastSend = now

	if cap(t.f32) < len(frame.Bands) {
		t.f32 = make([]float32, len(frame.Bands))
	}
	t.f32 = t.f32[:len(frame.Bands)]
	for i, v := range frame.Bands {
		t.f32[i] = float32(v)
	}

	t.buf.Reset()
	err := binary.Write(t.buf, binary.BigEndian, frame.Seq)
	if err == nil {
		err = binary.Write(t.buf, binary.BigEndian, frame.Timestamp)
	}
	if err == nil {
		err = binary.Write(t.buf, binary.BigEndian, uint16(len(t.f32)))
	}
	if err == nil {
		err = binary.Write(t.buf, binary.BigEndian, t.f32)
	}
	if err == nil {
		err = binary.Write(t.buf, binary.BigEndian, float32(frame.Peak))
	}
	if err != nil {
		return err
	}

	return t.sender.Send(t.buf.Bytes())
}

// Close closes the underlying sender.
func (t *PacketTransport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*PacketTransport)(nil)
