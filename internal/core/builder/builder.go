// Package builder produces annotated packet buffers.
package builder

import (
	"fmt"

	"firestige.xyz/csumlab/internal/core"
)

// layout accumulates regions while a buffer is assembled.
type layout struct {
	buf     *core.PacketBuffer
	initial core.FieldState
}

// add appends a region of n unknown bytes and returns its start index.
func (l *layout) add(kind core.HeaderKind, n int) int {
	start := len(l.buf.Data)
	for i := 0; i < n; i++ {
		l.buf.Data = append(l.buf.Data, core.Unknown)
		l.buf.States[start+i] = l.initial
	}
	l.buf.Regions = append(l.buf.Regions, core.HeaderRegion{
		Start: start,
		End:   start + n - 1,
		Kind:  kind,
		Color: core.Color(kind),
	})

	// Checksum bytes are never directly editable.
	if off, ok := core.ChecksumOffset(kind); ok {
		for i := 0; i < core.ChecksumLen; i++ {
			l.buf.States[start+off+i] = core.StateDisabled
		}
	}
	return start
}

// BuildEmpty builds a buffer of unknown bytes laid out as
// Ethernet, network header, transport header and payload. The payload region
// is omitted when payloadLen is 0.
func BuildEmpty(c core.Combination, payloadLen int, initiallyDisabled bool) (*core.PacketBuffer, error) {
	if payloadLen < 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidLength, payloadLen)
	}
	c, err := core.ParseCombination(string(c))
	if err != nil {
		return nil, err
	}

	initial := core.StateNormal
	if initiallyDisabled {
		initial = core.StateDisabled
	}

	network, transport := c.Network(), c.Transport()
	total := core.EthernetLen + core.HeaderLen(network) + core.HeaderLen(transport) + payloadLen

	l := &layout{
		buf: &core.PacketBuffer{
			Data:    make([]core.Byte, 0, total),
			Regions: make([]core.HeaderRegion, 0, 4),
			States:  make(map[int]core.FieldState, total),
		},
		initial: initial,
	}

	l.add(core.KindEthernet, core.EthernetLen)
	l.add(network, core.HeaderLen(network))
	l.add(transport, core.HeaderLen(transport))
	if payloadLen > 0 {
		l.add(core.KindPayload, payloadLen)
	}

	return l.buf, nil
}

// FromByteString builds an editable buffer and overlays the parsed byte
// string onto it from index 0. Disabled indices keep their unknown value and
// bytes past the shorter of both lengths are left untouched.
func FromByteString(c core.Combination, payloadLen int, text string) (*core.PacketBuffer, error) {
	buf, err := BuildEmpty(c, payloadLen, false)
	if err != nil {
		return nil, err
	}

	bytes, err := ParseByteString(text)
	if err != nil {
		return nil, err
	}

	n := len(bytes)
	if buf.Len() < n {
		n = buf.Len()
	}
	for i := 0; i < n; i++ {
		if buf.State(i) == core.StateDisabled {
			continue
		}
		buf.Data[i] = bytes[i]
	}

	return buf, nil
}
