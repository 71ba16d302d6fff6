// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"strings"
)

// Byte is one packet byte that is either known or not yet supplied.
// The zero value is Unknown.
type Byte struct {
	value uint8
	known bool
}

// Unknown is a byte whose value has not been supplied.
var Unknown = Byte{}

// Known returns a byte holding v.
func Known(v uint8) Byte {
	return Byte{value: v, known: true}
}

// Value returns the byte value and whether it is known.
func (b Byte) Value() (uint8, bool) {
	return b.value, b.known
}

// IsKnown reports whether the byte holds a value.
func (b Byte) IsKnown() bool {
	return b.known
}

// OrZero returns the value, or 0 when unknown.
func (b Byte) OrZero() uint8 {
	if !b.known {
		return 0
	}
	return b.value
}

// String renders the byte as two uppercase hex digits, "__" when unknown.
func (b Byte) String() string {
	if !b.known {
		return "__"
	}
	return fmt.Sprintf("%02X", b.value)
}

// KnownBytes wraps raw bytes.
func KnownBytes(raw []byte) []Byte {
	out := make([]Byte, len(raw))
	for i, v := range raw {
		out[i] = Known(v)
	}
	return out
}

// HeaderKind identifies the protocol header a region belongs to.
type HeaderKind uint8

const (
	KindEthernet HeaderKind = iota
	KindIPv4
	KindIPv6
	KindUDP
	KindTCP
	KindPayload
)

func (k HeaderKind) String() string {
	switch k {
	case KindEthernet:
		return "Ethernet"
	case KindIPv4:
		return "IPv4"
	case KindIPv6:
		return "IPv6"
	case KindUDP:
		return "UDP"
	case KindTCP:
		return "TCP"
	case KindPayload:
		return "Payload"
	default:
		return fmt.Sprintf("HeaderKind(%d)", uint8(k))
	}
}

// HasChecksum reports whether headers of this kind carry a checksum field.
func (k HeaderKind) HasChecksum() bool {
	_, ok := ChecksumOffset(k)
	return ok
}

// FieldState governs how a byte may be edited. Disabled bytes still take
// part in checksum math with whatever value they hold.
type FieldState uint8

const (
	StateNormal FieldState = iota
	StateDisabled
	StateHighlighted
	StateHidden
	StateDisabledInvisible // functionally disabled, rendered without darkening
)

func (s FieldState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDisabled:
		return "disabled"
	case StateHighlighted:
		return "highlighted"
	case StateHidden:
		return "hidden"
	case StateDisabledInvisible:
		return "disabled-invisible"
	default:
		return fmt.Sprintf("FieldState(%d)", uint8(s))
	}
}

// HeaderRegion is an inclusive index range [Start, End] of a packet buffer.
type HeaderRegion struct {
	Start int
	End   int
	Kind  HeaderKind
	Color string // cosmetic only
}

// Len returns the number of bytes covered by the region.
func (r HeaderRegion) Len() int {
	return r.End - r.Start + 1
}

// SameShape reports whether two regions cover the same range with the same kind.
func (r HeaderRegion) SameShape(o HeaderRegion) bool {
	return r.Kind == o.Kind && r.Start == o.Start && r.End == o.End
}

// PacketBuffer is a packet byte sequence annotated with header regions and
// per-byte edit states.
type PacketBuffer struct {
	Data    []Byte
	Regions []HeaderRegion
	States  map[int]FieldState
}

// Len returns the number of bytes in the buffer.
func (p *PacketBuffer) Len() int {
	return len(p.Data)
}

// State returns the edit state of byte i.
func (p *PacketBuffer) State(i int) FieldState {
	return p.States[i]
}

// Slice copies the bytes of a region.
func (p *PacketBuffer) Slice(r HeaderRegion) []Byte {
	out := make([]Byte, r.Len())
	copy(out, p.Data[r.Start:r.End+1])
	return out
}

// Clone returns a deep copy of the buffer.
func (p *PacketBuffer) Clone() *PacketBuffer {
	c := &PacketBuffer{
		Data:    make([]Byte, len(p.Data)),
		Regions: make([]HeaderRegion, len(p.Regions)),
		States:  make(map[int]FieldState, len(p.States)),
	}
	copy(c.Data, p.Data)
	copy(c.Regions, p.Regions)
	for i, s := range p.States {
		c.States[i] = s
	}
	return c
}

// Raw returns the buffer as plain bytes with unknown bytes set to 0.
func (p *PacketBuffer) Raw() []byte {
	out := make([]byte, len(p.Data))
	for i, b := range p.Data {
		out[i] = b.OrZero()
	}
	return out
}

// ChecksumResult is the checksum computed for one checksum-bearing header.
type ChecksumResult struct {
	Protocol string
	Checksum uint16
}

func (c ChecksumResult) String() string {
	return fmt.Sprintf("%s=0x%04X", c.Protocol, c.Checksum)
}

// DeltaSection is a contiguous changed range inside one header region.
type DeltaSection struct {
	Kind     HeaderKind
	Start    int
	End      int
	Original []Byte
	Modified []Byte
}

// Combination selects the network and transport headers of a packet.
type Combination string

const (
	IPv4UDP Combination = "ipv4_udp"
	IPv4TCP Combination = "ipv4_tcp"
	IPv6UDP Combination = "ipv6_udp"
	IPv6TCP Combination = "ipv6_tcp"
)

// Combinations lists every supported combination.
var Combinations = []Combination{IPv4UDP, IPv4TCP, IPv6UDP, IPv6TCP}

// ParseCombination validates a combination tag, case-insensitively.
func ParseCombination(s string) (Combination, error) {
	c := Combination(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Combinations {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCombination, s)
}

// Network returns the layer 3 header kind of the combination.
func (c Combination) Network() HeaderKind {
	if strings.HasPrefix(string(c), "ipv6") {
		return KindIPv6
	}
	return KindIPv4
}

// Transport returns the layer 4 header kind of the combination.
func (c Combination) Transport() HeaderKind {
	if strings.HasSuffix(string(c), "tcp") {
		return KindTCP
	}
	return KindUDP
}

// CombinationOf returns the combination for a network/transport pair.
func CombinationOf(network, transport HeaderKind) (Combination, error) {
	switch {
	case network == KindIPv4 && transport == KindUDP:
		return IPv4UDP, nil
	case network == KindIPv4 && transport == KindTCP:
		return IPv4TCP, nil
	case network == KindIPv6 && transport == KindUDP:
		return IPv6UDP, nil
	case network == KindIPv6 && transport == KindTCP:
		return IPv6TCP, nil
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownCombination, network, transport)
	}
}
