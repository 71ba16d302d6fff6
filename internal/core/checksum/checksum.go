// Package checksum computes RFC 1071 Internet checksums over packet buffers.
package checksum

import (
	"errors"
	"fmt"

	"firestige.xyz/csumlab/internal/core"
)

// accumulator sums big-endian 16-bit words of possibly unknown bytes.
type accumulator struct {
	sum uint32
}

// add sums data as 16-bit words. A trailing odd byte is the high byte of a
// final word padded with zero.
func (a *accumulator) add(data []core.Byte) error {
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		hi, ok1 := data[i].Value()
		lo, ok2 := data[i+1].Value()
		if !ok1 || !ok2 {
			return core.ErrIncompleteHeader
		}
		a.sum += uint32(hi)<<8 | uint32(lo)
	}
	if n%2 == 1 {
		hi, ok := data[n-1].Value()
		if !ok {
			return core.ErrIncompleteHeader
		}
		a.sum += uint32(hi) << 8
	}
	return nil
}

// finish folds the carries twice, since a single fold may overflow again,
// and returns the one's complement.
func (a *accumulator) finish() uint16 {
	sum := a.sum
	sum = (sum & 0xffff) + (sum >> 16)
	sum = (sum & 0xffff) + (sum >> 16)
	return ^uint16(sum)
}

// headerCopy returns the region bytes with the checksum field zeroed. The
// buffer itself is never touched.
func headerCopy(buf *core.PacketBuffer, r core.HeaderRegion, want int, checksumOffset int) ([]core.Byte, error) {
	if r.Len() != want {
		return nil, fmt.Errorf("%w: %s header is %d bytes, want %d", core.ErrInvalidHeaderLength, r.Kind, r.Len(), want)
	}
	header := buf.Slice(r)
	for i := 0; i < core.ChecksumLen; i++ {
		header[checksumOffset+i] = core.Known(0)
	}
	return header, nil
}

// IPv4 computes the header checksum of a 20-byte IPv4 region.
func IPv4(buf *core.PacketBuffer, r core.HeaderRegion) (uint16, error) {
	header, err := headerCopy(buf, r, core.IPv4Len, core.IPv4ChecksumOffset)
	if err != nil {
		return 0, err
	}

	var acc accumulator
	if err := acc.add(header); err != nil {
		return 0, err
	}
	return acc.finish(), nil
}

// Layer4 computes the UDP or TCP checksum of region r. Everything after the
// region up to the end of the buffer is treated as payload. network is the
// IPv4 or IPv6 region supplying the pseudo-header; nil contributes nothing.
func Layer4(buf *core.PacketBuffer, r core.HeaderRegion, network *core.HeaderRegion, protocol uint8) (uint16, error) {
	var (
		header []core.Byte
		err    error
	)
	switch protocol {
	case core.ProtocolUDP:
		header, err = headerCopy(buf, r, core.UDPLen, core.UDPChecksumOffset)
	case core.ProtocolTCP:
		header, err = headerCopy(buf, r, core.TCPLen, core.TCPChecksumOffset)
	default:
		return 0, fmt.Errorf("%w: protocol %d", core.ErrUnknownCombination, protocol)
	}
	if err != nil {
		return 0, err
	}

	payload := buf.Data[r.End+1:]

	var acc accumulator
	if network != nil {
		pseudo, err := pseudoHeaderSum(buf, *network, protocol, uint32(len(header)+len(payload)))
		if err != nil {
			return 0, err
		}
		acc.sum += pseudo
	}
	if err := acc.add(header); err != nil {
		return 0, err
	}
	if err := acc.add(payload); err != nil {
		return 0, err
	}
	return acc.finish(), nil
}

// NetworkRegion returns the first IPv4 or IPv6 region. Layer 4 checksums
// assume exactly one such header is present.
func NetworkRegion(regions []core.HeaderRegion) (*core.HeaderRegion, bool) {
	for i := range regions {
		if regions[i].Kind == core.KindIPv4 || regions[i].Kind == core.KindIPv6 {
			r := regions[i]
			return &r, true
		}
	}
	return nil, false
}

// compute returns the checksum of one checksum-bearing region. ok is false
// for regions without a checksum.
func compute(buf *core.PacketBuffer, r core.HeaderRegion, network *core.HeaderRegion) (sum uint16, ok bool, err error) {
	switch r.Kind {
	case core.KindIPv4:
		sum, err = IPv4(buf, r)
	case core.KindUDP:
		sum, err = Layer4(buf, r, network, core.ProtocolUDP)
	case core.KindTCP:
		sum, err = Layer4(buf, r, network, core.ProtocolTCP)
	default:
		return 0, false, nil
	}
	return sum, true, err
}

// skipIncomplete swallows ErrIncompleteHeader and reports it as a skip.
// Every other error is returned unchanged.
func skipIncomplete(sum uint16, err error) (uint16, bool, error) {
	if errors.Is(err, core.ErrIncompleteHeader) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return sum, true, nil
}

// Standalone computes a checksum for every checksum-bearing region in header
// order. Regions that still contain needed unknown bytes are omitted.
func Standalone(buf *core.PacketBuffer) ([]core.ChecksumResult, error) {
	network, _ := NetworkRegion(buf.Regions)

	var results []core.ChecksumResult
	for _, r := range buf.Regions {
		sum, bearing, err := compute(buf, r, network)
		if !bearing {
			continue
		}
		sum, ok, err := skipIncomplete(sum, err)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, core.ChecksumResult{Protocol: r.Kind.String(), Checksum: sum})
	}
	return results, nil
}
