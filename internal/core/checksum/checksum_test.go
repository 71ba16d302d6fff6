package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/csumlab/internal/core"
)

// packet wraps integer bytes, -1 meaning unknown.
func packet(data []int, regions ...core.HeaderRegion) *core.PacketBuffer {
	buf := &core.PacketBuffer{
		Data:    make([]core.Byte, len(data)),
		Regions: regions,
		States:  make(map[int]core.FieldState, len(data)),
	}
	for i, v := range data {
		if v >= 0 {
			buf.Data[i] = core.Known(uint8(v))
		}
	}
	return buf
}

func region(kind core.HeaderKind, start, end int) core.HeaderRegion {
	return core.HeaderRegion{Start: start, End: end, Kind: kind, Color: core.Color(kind)}
}

// IPv4+UDP, payload "HELLOWORLD".
func ipv4UDPPacket() *core.PacketBuffer {
	return packet([]int{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 8, 0, 69, 0,
		0, 38, 212, 168, 64, 0, 64, 17, 104, 28, 127, 0, 0, 1, 127, 0,
		0, 1, 201, 68, 48, 57, 0, 18, 254, 37, 72, 69, 76, 76, 79, 87,
		79, 82, 76, 68,
	},
		region(core.KindEthernet, 0, 13),
		region(core.KindIPv4, 14, 33),
		region(core.KindUDP, 34, 41),
		region(core.KindPayload, 42, 51),
	)
}

// IPv6+UDP, payload "HELLOWORLD".
func ipv6UDPPacket() *core.PacketBuffer {
	return packet([]int{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 134, 221, 96, 3,
		32, 229, 0, 18, 17, 64, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 1, 196, 220, 48, 57, 0, 18, 0, 37, 72, 69,
		76, 76, 79, 87, 79, 82, 76, 68,
	},
		region(core.KindEthernet, 0, 13),
		region(core.KindIPv6, 14, 53),
		region(core.KindUDP, 54, 61),
		region(core.KindPayload, 62, 71),
	)
}

// IPv4+TCP. The TCP options live past the 20-byte region and are summed as
// payload, which runs to the end of the buffer rather than the payload region.
func ipv4TCPPacket() *core.PacketBuffer {
	return packet([]int{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 8, 0, 69, 0,
		0, 62, 125, 3, 64, 0, 64, 6, 100, 222, 172, 16, 0, 92, 172, 16,
		0, 92, 192, 122, 48, 57, 245, 192, 64, 36, 94, 53, 130, 86, 128, 24,
		1, 4, 89, 9, 0, 0, 1, 1, 8, 10, 74, 108, 213, 143, 74, 108,
		213, 143, 72, 101, 108, 108, 111, 87, 111, 114, 108, 100,
	},
		region(core.KindEthernet, 0, 13),
		region(core.KindIPv4, 14, 33),
		region(core.KindTCP, 34, 53),
		region(core.KindPayload, 54, 63),
	)
}

// IPv6+TCP, options and payload as above.
func ipv6TCPPacket() *core.PacketBuffer {
	return packet([]int{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 134, 221, 96, 3,
		203, 126, 0, 42, 6, 64, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 1, 198, 128, 87, 73, 220, 123, 130, 110, 214, 14,
		42, 245, 128, 24, 1, 4, 0, 50, 0, 0, 1, 1, 8, 10, 218, 85,
		97, 29, 218, 85, 97, 29, 72, 101, 108, 108, 111, 87, 111, 114, 108, 100,
	},
		region(core.KindEthernet, 0, 13),
		region(core.KindIPv6, 14, 53),
		region(core.KindTCP, 54, 73),
		region(core.KindPayload, 74, 83),
	)
}

func TestStandalone(t *testing.T) {
	tests := []struct {
		name string
		buf  *core.PacketBuffer
		want []core.ChecksumResult
	}{
		{"IPv4UDP", ipv4UDPPacket(), []core.ChecksumResult{{Protocol: "IPv4", Checksum: 0x681c}, {Protocol: "UDP", Checksum: 0x88ca}}},
		{"IPv6UDP", ipv6UDPPacket(), []core.ChecksumResult{{Protocol: "UDP", Checksum: 0x8b33}}},
		{"IPv4TCP", ipv4TCPPacket(), []core.ChecksumResult{{Protocol: "IPv4", Checksum: 0x64de}, {Protocol: "TCP", Checksum: 0xd5b1}}},
		{"IPv6TCP", ipv6TCPPacket(), []core.ChecksumResult{{Protocol: "TCP", Checksum: 0x8107}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Standalone(tt.buf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandaloneDoesNotMutate(t *testing.T) {
	buf := ipv4UDPPacket()
	before := buf.Clone()

	first, err := Standalone(buf)
	require.NoError(t, err)
	second, err := Standalone(buf)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, buf)
}

func TestStandaloneIgnoresStoredChecksum(t *testing.T) {
	buf := ipv4UDPPacket()
	buf.Data[24] = core.Unknown
	buf.Data[25] = core.Known(0xff)
	buf.Data[40] = core.Unknown
	buf.Data[41] = core.Unknown

	got, err := Standalone(buf)
	require.NoError(t, err)
	assert.Equal(t, []core.ChecksumResult{{Protocol: "IPv4", Checksum: 0x681c}, {Protocol: "UDP", Checksum: 0x88ca}}, got)
}

func TestStandaloneSkipsIncomplete(t *testing.T) {
	t.Run("PayloadUnknown", func(t *testing.T) {
		buf := ipv4UDPPacket()
		buf.Data[50] = core.Unknown

		got, err := Standalone(buf)
		require.NoError(t, err)
		assert.Equal(t, []core.ChecksumResult{{Protocol: "IPv4", Checksum: 0x681c}}, got)
	})

	t.Run("SourceAddressUnknown", func(t *testing.T) {
		buf := ipv4UDPPacket()
		buf.Data[26] = core.Unknown

		got, err := Standalone(buf)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("NextHeaderUnknown", func(t *testing.T) {
		buf := ipv6UDPPacket()
		buf.Data[14+core.IPv6NextHeaderOffset] = core.Unknown

		got, err := Standalone(buf)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("NonPseudoIPv4FieldUnknown", func(t *testing.T) {
		// TTL is not part of the pseudo-header, so UDP still computes.
		buf := ipv4UDPPacket()
		buf.Data[22] = core.Unknown

		got, err := Standalone(buf)
		require.NoError(t, err)
		assert.Equal(t, []core.ChecksumResult{{Protocol: "UDP", Checksum: 0x88ca}}, got)
	})
}

func TestStandalonePropagatesInvalidLength(t *testing.T) {
	buf := ipv4UDPPacket()
	buf.Regions[1].End = 32
	buf.Regions[2].Start = 33

	got, err := Standalone(buf)
	assert.ErrorIs(t, err, core.ErrInvalidHeaderLength)
	assert.Nil(t, got)
}

func TestIPv4Direct(t *testing.T) {
	buf := ipv4UDPPacket()
	sum, err := IPv4(buf, buf.Regions[1])
	require.NoError(t, err)
	assert.Equal(t, uint16(0x681c), sum)

	buf.Data[14] = core.Unknown
	_, err = IPv4(buf, buf.Regions[1])
	assert.ErrorIs(t, err, core.ErrIncompleteHeader)

	_, err = IPv4(buf, region(core.KindIPv4, 14, 30))
	assert.ErrorIs(t, err, core.ErrInvalidHeaderLength)
}

func TestLayer4Direct(t *testing.T) {
	buf := ipv4UDPPacket()
	network, ok := NetworkRegion(buf.Regions)
	require.True(t, ok)
	assert.Equal(t, core.KindIPv4, network.Kind)

	sum, err := Layer4(buf, buf.Regions[2], network, core.ProtocolUDP)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x88ca), sum)

	_, err = Layer4(buf, buf.Regions[2], network, core.ProtocolTCP)
	assert.ErrorIs(t, err, core.ErrInvalidHeaderLength)

	buf.Data[51] = core.Unknown
	_, err = Layer4(buf, buf.Regions[2], network, core.ProtocolUDP)
	assert.ErrorIs(t, err, core.ErrIncompleteHeader)
}

func TestLayer4OddPayload(t *testing.T) {
	// "HELLOWORL": the lone trailing byte is the high byte of the last word.
	buf := ipv4UDPPacket()
	buf.Data = buf.Data[:51]
	buf.Regions[3].End = 50

	sum, err := Layer4(buf, buf.Regions[2], &buf.Regions[1], core.ProtocolUDP)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x890f), sum)
}

func TestLayer4WithoutNetwork(t *testing.T) {
	buf := packet([]int{0, 1, 0, 2, 0, 8, 0xaa, 0xbb}, region(core.KindUDP, 0, 7))

	got, err := Standalone(buf)
	require.NoError(t, err)
	// 0x0001 + 0x0002 + 0x0008 = 0x000b
	assert.Equal(t, []core.ChecksumResult{{Protocol: "UDP", Checksum: ^uint16(0x000b)}}, got)
}

func TestNetworkRegion(t *testing.T) {
	_, ok := NetworkRegion([]core.HeaderRegion{region(core.KindEthernet, 0, 13)})
	assert.False(t, ok)

	r, ok := NetworkRegion(ipv6TCPPacket().Regions)
	require.True(t, ok)
	assert.Equal(t, core.KindIPv6, r.Kind)
	assert.Equal(t, 14, r.Start)
}

func TestFill(t *testing.T) {
	buf := ipv4UDPPacket()
	buf.Data[24], buf.Data[25] = core.Unknown, core.Unknown
	buf.Data[40], buf.Data[41] = core.Unknown, core.Unknown

	filled, err := Fill(buf)
	require.NoError(t, err)

	assert.Equal(t, ipv4UDPPacket().Data[:40], filled.Data[:40])
	assert.Equal(t, []core.Byte{core.Known(0x88), core.Known(0xca)}, filled.Data[40:42])
	assert.Equal(t, core.Unknown, buf.Data[24], "Fill must not mutate its input")

	ip, ok := Stored(filled, filled.Regions[1])
	require.True(t, ok)
	assert.Equal(t, uint16(0x681c), ip)

	_, ok = Stored(buf, buf.Regions[1])
	assert.False(t, ok)
	_, ok = Stored(buf, buf.Regions[0])
	assert.False(t, ok)
}

func TestFillSkipsIncomplete(t *testing.T) {
	buf := ipv4UDPPacket()
	buf.Data[45] = core.Unknown
	buf.Data[40], buf.Data[41] = core.Unknown, core.Unknown

	filled, err := Fill(buf)
	require.NoError(t, err)
	assert.Equal(t, core.Unknown, filled.Data[40])
	assert.Equal(t, core.Known(0x68), filled.Data[24])
}

func TestLayer4NetworkRegionBounds(t *testing.T) {
	buf := ipv6UDPPacket()
	udp := buf.Regions[2]

	t.Run("Longer network region", func(t *testing.T) {
		network := region(core.KindIPv6, 14, 57)
		sum, err := Layer4(buf, udp, &network, core.ProtocolUDP)
		require.NoError(t, err)
		assert.Equal(t, uint16(0x8b33), sum)
	})

	t.Run("Destination outside IPv6 region", func(t *testing.T) {
		network := region(core.KindIPv6, 14, 40)
		_, err := Layer4(buf, udp, &network, core.ProtocolUDP)
		assert.ErrorIs(t, err, core.ErrInvalidHeaderLength)
	})

	t.Run("Destination outside IPv4 region", func(t *testing.T) {
		v4 := ipv4UDPPacket()
		network := region(core.KindIPv4, 14, 30)
		_, err := Layer4(v4, v4.Regions[2], &network, core.ProtocolUDP)
		assert.ErrorIs(t, err, core.ErrInvalidHeaderLength)
	})
}
