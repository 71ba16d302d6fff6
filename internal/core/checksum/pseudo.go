package checksum

import (
	"fmt"

	"firestige.xyz/csumlab/internal/core"
)

// pseudoHeaderSum returns the pseudo-header contribution of a network region
// as a pre-summed value. length is the layer 4 header plus payload length.
// Only the fields read here must lie inside the region.
func pseudoHeaderSum(buf *core.PacketBuffer, network core.HeaderRegion, protocol uint8, length uint32) (uint32, error) {
	var acc accumulator

	switch network.Kind {
	case core.KindIPv4:
		if err := acc.addField(buf, network, core.IPv4SrcOffset, core.IPv4AddrLen); err != nil {
			return 0, err
		}
		if err := acc.addField(buf, network, core.IPv4DstOffset, core.IPv4AddrLen); err != nil {
			return 0, err
		}
		// The reserved byte is always zero.
		acc.sum += uint32(protocol)
		acc.sum += length

	case core.KindIPv6:
		nh, err := field(buf, network, core.IPv6NextHeaderOffset, 1)
		if err != nil {
			return 0, err
		}
		next, ok := nh[0].Value()
		if !ok {
			return 0, core.ErrIncompleteHeader
		}
		if err := acc.addField(buf, network, core.IPv6SrcOffset, core.IPv6AddrLen); err != nil {
			return 0, err
		}
		if err := acc.addField(buf, network, core.IPv6DstOffset, core.IPv6AddrLen); err != nil {
			return 0, err
		}
		acc.sum += length
		// Next header stands in for the protocol number.
		acc.sum += uint32(next)
	}

	return acc.sum, nil
}

// field returns n bytes at offset off of the network region.
func field(buf *core.PacketBuffer, network core.HeaderRegion, off, n int) ([]core.Byte, error) {
	start := network.Start + off
	end := start + n
	if start < 0 || end-1 > network.End || end > len(buf.Data) {
		return nil, fmt.Errorf("%w: %s header too short for field at offset %d", core.ErrInvalidHeaderLength, network.Kind, off)
	}
	return buf.Data[start:end], nil
}

func (a *accumulator) addField(buf *core.PacketBuffer, network core.HeaderRegion, off, n int) error {
	data, err := field(buf, network, off, n)
	if err != nil {
		return err
	}
	return a.add(data)
}
