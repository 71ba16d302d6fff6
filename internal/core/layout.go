package core

import (
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Fixed header lengths in bytes. Options are not supported.
const (
	EthernetLen = 14
	IPv4Len     = ipv4.HeaderLen
	IPv6Len     = ipv6.HeaderLen
	UDPLen      = 8
	TCPLen      = 20
)

// Field offsets relative to the start of their header.
const (
	IPv4ChecksumOffset = 10
	IPv4SrcOffset      = 12
	IPv4DstOffset      = 16
	IPv4AddrLen        = 4

	IPv6NextHeaderOffset = 6
	IPv6SrcOffset        = 8
	IPv6DstOffset        = 24
	IPv6AddrLen          = 16

	UDPChecksumOffset = 6
	TCPChecksumOffset = 16

	ChecksumLen = 2
)

// IP protocol numbers.
const (
	ProtocolTCP = 6
	ProtocolUDP = 17
)

// Display colors of the header regions.
const (
	colorEthernet = "#99aa66"
	colorIPv4     = "#66aa99"
	colorIPv6     = "#aa9966"
	colorUDP      = "#aa6699"
	colorTCP      = "#6699aa"
	colorPayload  = "#CBD5E1"
)

// HeaderLen returns the fixed length of a header kind, or 0 for Payload.
func HeaderLen(kind HeaderKind) int {
	switch kind {
	case KindEthernet:
		return EthernetLen
	case KindIPv4:
		return IPv4Len
	case KindIPv6:
		return IPv6Len
	case KindUDP:
		return UDPLen
	case KindTCP:
		return TCPLen
	default:
		return 0
	}
}

// ChecksumOffset returns the offset of the checksum field inside a header kind.
// ok is false for kinds without a checksum.
func ChecksumOffset(kind HeaderKind) (offset int, ok bool) {
	switch kind {
	case KindIPv4:
		return IPv4ChecksumOffset, true
	case KindUDP:
		return UDPChecksumOffset, true
	case KindTCP:
		return TCPChecksumOffset, true
	default:
		return 0, false
	}
}

// Color returns the display color of a header kind.
func Color(kind HeaderKind) string {
	switch kind {
	case KindEthernet:
		return colorEthernet
	case KindIPv4:
		return colorIPv4
	case KindIPv6:
		return colorIPv6
	case KindUDP:
		return colorUDP
	case KindTCP:
		return colorTCP
	default:
		return colorPayload
	}
}
