package checksum

import (
	"encoding/binary"

	"github.com/samber/lo"

	"firestige.xyz/csumlab/internal/core"
)

// Fill returns a copy of buf with every computable checksum field written.
// IPv4 headers are filled before layer 4 headers are computed.
func Fill(buf *core.PacketBuffer) (*core.PacketBuffer, error) {
	out := buf.Clone()
	network, _ := NetworkRegion(out.Regions)

	for _, pass := range [][]core.HeaderKind{{core.KindIPv4}, {core.KindUDP, core.KindTCP}} {
		for _, r := range out.Regions {
			if !lo.Contains(pass, r.Kind) {
				continue
			}
			sum, _, err := compute(out, r, network)
			sum, ok, err := skipIncomplete(sum, err)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			off, _ := core.ChecksumOffset(r.Kind)
			writeUint16(out, r.Start+off, sum)
		}
	}
	return out, nil
}

// Stored returns the checksum currently held in the region's checksum field.
// ok is false when the region has no checksum or the field is not known.
func Stored(buf *core.PacketBuffer, r core.HeaderRegion) (uint16, bool) {
	off, ok := core.ChecksumOffset(r.Kind)
	if !ok || r.Len() < off+core.ChecksumLen {
		return 0, false
	}
	hi, ok1 := buf.Data[r.Start+off].Value()
	lo, ok2 := buf.Data[r.Start+off+1].Value()
	if !ok1 || !ok2 {
		return 0, false
	}
	return binary.BigEndian.Uint16([]byte{hi, lo}), true
}

func writeUint16(buf *core.PacketBuffer, idx int, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Data[idx] = core.Known(b[0])
	buf.Data[idx+1] = core.Known(b[1])
}
