// Package delta compares an original and a modified packet buffer.
package delta

import (
	"fmt"

	"github.com/samber/lo"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/checksum"
)

// zeroed returns a view of buf whose unknown bytes read as 0. Regions and
// states are shared with buf.
func zeroed(buf *core.PacketBuffer) *core.PacketBuffer {
	return &core.PacketBuffer{
		Data: lo.Map(buf.Data, func(b core.Byte, _ int) core.Byte {
			return core.Known(b.OrZero())
		}),
		Regions: buf.Regions,
		States:  buf.States,
	}
}

// Checksums returns, per checksum-bearing header, the 16-bit wraparound
// difference between the modified and the original checksum. Unknown bytes
// count as 0 on both sides.
func Checksums(original, modified *core.PacketBuffer) ([]core.ChecksumResult, error) {
	if original.Len() != modified.Len() {
		return nil, fmt.Errorf("%w: %d != %d bytes", core.ErrLengthMismatch, original.Len(), modified.Len())
	}

	before, err := checksum.Standalone(zeroed(original))
	if err != nil {
		return nil, fmt.Errorf("original packet: %w", err)
	}
	after, err := checksum.Standalone(zeroed(modified))
	if err != nil {
		return nil, fmt.Errorf("modified packet: %w", err)
	}

	if len(before) != len(after) {
		return nil, fmt.Errorf("%w: %d != %d checksums", core.ErrLengthMismatch, len(before), len(after))
	}

	results := make([]core.ChecksumResult, len(before))
	for i := range before {
		if before[i].Protocol != after[i].Protocol {
			return nil, fmt.Errorf("%w: %s != %s at %d", core.ErrLengthMismatch, before[i].Protocol, after[i].Protocol, i)
		}
		results[i] = core.ChecksumResult{
			Protocol: before[i].Protocol,
			Checksum: after[i].Checksum - before[i].Checksum,
		}
	}
	return results, nil
}
