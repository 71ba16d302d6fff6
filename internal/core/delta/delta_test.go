package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/builder"
	"firestige.xyz/csumlab/internal/core/checksum"
)

const u = -1

func bytesOf(data []int) []core.Byte {
	out := make([]core.Byte, len(data))
	for i, v := range data {
		if v >= 0 {
			out[i] = core.Known(uint8(v))
		}
	}
	return out
}

func regions() []core.HeaderRegion {
	return []core.HeaderRegion{
		{Start: 0, End: 13, Kind: core.KindEthernet},
		{Start: 14, End: 33, Kind: core.KindIPv4},
		{Start: 34, End: 41, Kind: core.KindUDP},
		{Start: 42, End: 52, Kind: core.KindPayload},
	}
}

// Source address 0xDEADBEEF -> 0xDEADBABE, UDP checksum bytes 0xCAFE ->
// 0x7EA0 and payload 0xABCD -> 0x4711 at an odd position.
func examplePair() (*core.PacketBuffer, *core.PacketBuffer) {
	original := []int{
		u, u, u, u, u, u, u, u, u, u, u, u, u, u,
		u, u, u, u, u, u, u, u, u, u, u, u, 0xde, 0xad, 0xbe, 0xef, u, u, u, u,
		u, u, 0xca, 0xfe, u, u, u, u,
		u, 0xab, 0xcd, u, u, u, u, u, u, u, u,
	}
	modified := []int{
		u, u, u, u, u, u, u, u, u, u, u, u, u, u,
		u, u, u, u, u, u, u, u, u, u, u, u, 0xde, 0xad, 0xba, 0xbe, u, u, u, u,
		u, u, 0x7e, 0xa0, u, u, u, u,
		u, 0x47, 0x11, u, u, u, u, u, u, u, u,
	}
	return &core.PacketBuffer{Data: bytesOf(original), Regions: regions(), States: map[int]core.FieldState{}},
		&core.PacketBuffer{Data: bytesOf(modified), Regions: regions(), States: map[int]core.FieldState{}}
}

func TestChunksMidHeader(t *testing.T) {
	original, modified := examplePair()

	got, err := Chunks(original, modified)
	require.NoError(t, err)

	want := []core.DeltaSection{
		{Kind: core.KindIPv4, Start: 26, End: 29, Original: bytesOf([]int{0xde, 0xad, 0xbe, 0xef}), Modified: bytesOf([]int{0xde, 0xad, 0xba, 0xbe})},
		{Kind: core.KindUDP, Start: 36, End: 37, Original: bytesOf([]int{0xca, 0xfe}), Modified: bytesOf([]int{0x7e, 0xa0})},
		{Kind: core.KindPayload, Start: 43, End: 44, Original: bytesOf([]int{0xab, 0xcd}), Modified: bytesOf([]int{0x47, 0x11})},
	}
	assert.Equal(t, want, got)
}

func TestChunksNeverCrossRegions(t *testing.T) {
	// Bytes 32..35 are contiguous but straddle the IPv4/UDP boundary, which
	// always splits them into two sections.
	original, modified := examplePair()
	for i := 32; i <= 35; i++ {
		modified.Data[i] = core.Known(uint8(i))
	}

	got, err := Chunks(original, modified)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, core.KindIPv4, got[0].Kind)
	assert.Equal(t, 26, got[0].Start)
	assert.Equal(t, 29, got[0].End)

	assert.Equal(t, core.KindIPv4, got[1].Kind)
	assert.Equal(t, 32, got[1].Start)
	assert.Equal(t, 33, got[1].End)

	assert.Equal(t, core.KindUDP, got[2].Kind)
	assert.Equal(t, 34, got[2].Start)
	assert.Equal(t, 37, got[2].End)
	assert.Equal(t, []core.Byte{core.Unknown, core.Unknown, core.Known(0xca), core.Known(0xfe)}, got[2].Original)

	assert.Equal(t, core.KindPayload, got[3].Kind)
	assert.Equal(t, 43, got[3].Start)
	assert.Equal(t, 44, got[3].End)
}

func TestChunksAllFilled(t *testing.T) {
	original, modified := examplePair()
	for i := range modified.Data {
		if !modified.Data[i].IsKnown() {
			modified.Data[i] = core.Known(0)
		}
	}

	got, err := Chunks(original, modified)
	require.NoError(t, err)
	require.Len(t, got, len(regions()))
	for i, r := range regions() {
		assert.Equal(t, r.Kind, got[i].Kind)
		assert.Equal(t, r.Start, got[i].Start)
		assert.Equal(t, r.End, got[i].End)
	}
}

func TestChunksAbortOnUnfill(t *testing.T) {
	original, modified := examplePair()
	// Emptying a single payload byte discards sections found in earlier regions too.
	modified.Data[44] = core.Unknown

	got, err := Chunks(original, modified)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChunksNothingKnown(t *testing.T) {
	buf, err := builder.BuildEmpty(core.IPv4TCP, 4, false)
	require.NoError(t, err)

	got, err := Chunks(buf, buf.Clone())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanRegion(t *testing.T) {
	r := core.HeaderRegion{Start: 0, End: 5, Kind: core.KindPayload}
	original := &core.PacketBuffer{Data: bytesOf([]int{u, u, 1, u, u, 2})}
	modified := &core.PacketBuffer{Data: bytesOf([]int{u, 9, 9, u, 3, 3})}

	got, ok := scanRegion(original, modified, r)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Start)
	assert.Equal(t, 2, got[0].End)
	assert.Equal(t, 4, got[1].Start)
	assert.Equal(t, 5, got[1].End)

	modified.Data[2] = core.Unknown
	_, ok = scanRegion(original, modified, r)
	assert.False(t, ok)
}

func TestChunksMismatch(t *testing.T) {
	original, modified := examplePair()

	t.Run("Length", func(t *testing.T) {
		short := &core.PacketBuffer{Data: modified.Data[:40], Regions: modified.Regions}
		_, err := Chunks(original, short)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})

	t.Run("RegionCount", func(t *testing.T) {
		other := &core.PacketBuffer{Data: modified.Data, Regions: modified.Regions[:3]}
		_, err := Chunks(original, other)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})

	t.Run("RegionShape", func(t *testing.T) {
		shifted := regions()
		shifted[2].End = 40
		shifted[3].Start = 41
		other := &core.PacketBuffer{Data: modified.Data, Regions: shifted}
		_, err := Chunks(original, other)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})
}

func TestChecksums(t *testing.T) {
	original, modified := examplePair()

	got, err := Checksums(original, modified)
	require.NoError(t, err)
	assert.Equal(t, []core.ChecksumResult{
		{Protocol: "IPv4", Checksum: 0x0431},
		{Protocol: "UDP", Checksum: 0x0cf4},
	}, got)

	// Same as subtracting independently computed standalone checksums.
	before, err := checksum.Standalone(zeroed(original))
	require.NoError(t, err)
	after, err := checksum.Standalone(zeroed(modified))
	require.NoError(t, err)
	for i := range got {
		assert.Equal(t, after[i].Checksum-before[i].Checksum, got[i].Checksum)
	}
}

func TestChecksumsDoNotMutate(t *testing.T) {
	original, modified := examplePair()
	before := original.Clone()

	_, err := Checksums(original, modified)
	require.NoError(t, err)
	assert.Equal(t, before.Data, original.Data)
}

func TestChecksumsIdentical(t *testing.T) {
	original, _ := examplePair()

	got, err := Checksums(original, original)
	require.NoError(t, err)
	for _, r := range got {
		assert.Zero(t, r.Checksum)
	}
}

func TestChecksumsMismatch(t *testing.T) {
	original, modified := examplePair()

	t.Run("Length", func(t *testing.T) {
		short := &core.PacketBuffer{Data: modified.Data[:50], Regions: modified.Regions}
		_, err := Checksums(original, short)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})

	t.Run("Layout", func(t *testing.T) {
		// Same byte length, but the UDP header is declared as payload.
		layout := regions()
		layout[2].Kind = core.KindPayload
		other := &core.PacketBuffer{Data: modified.Data, Regions: layout}
		_, err := Checksums(original, other)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})

	t.Run("Labels", func(t *testing.T) {
		v4, err := builder.BuildEmpty(core.IPv4UDP, 20, false)
		require.NoError(t, err)
		v6, err := builder.BuildEmpty(core.IPv6UDP, 0, false)
		require.NoError(t, err)
		require.Equal(t, v4.Len(), v6.Len())

		// IPv4 yields [IPv4, UDP], IPv6 yields [UDP]: counts differ.
		_, err = Checksums(v4, v6)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})
}
