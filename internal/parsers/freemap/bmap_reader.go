package freemap

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/layout"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var endian = binary.LittleEndian

// ParseBmapArray decodes a freemap leaf block into its bmap entries.
func ParseBmapArray(data []byte) ([]types.BmapData, error) {
	if err := layout.CheckExact("freemap leaf", data, types.FreemapLevelNPSize); err != nil {
		return nil, err
	}
	out := make([]types.BmapData, types.FreemapCount)
	for i := range out {
		off := i * types.BmapDataBytes
		decodeBmap(&out[i], data[off:off+types.BmapDataBytes])
	}
	return out, nil
}

// ParseBmap decodes exactly one 128-byte bmap entry.
func ParseBmap(data []byte) (*types.BmapData, error) {
	if err := layout.CheckExact("bmap", data, types.BmapDataBytes); err != nil {
		return nil, err
	}
	bmap := &types.BmapData{}
	decodeBmap(bmap, data)
	return bmap, nil
}

func decodeBmap(b *types.BmapData, data []byte) {
	b.Linear = endian.Uint32(data[types.BmapOffLinear:])
	b.Class = endian.Uint16(data[types.BmapOffClass:])
	b.Reserv = data[types.BmapOffReserv]
	b.Avail = endian.Uint32(data[types.BmapOffAvail:])
	for i := range b.Bitmapq {
		off := types.BmapOffBitmapq + i*8
		b.Bitmapq[i] = endian.Uint64(data[off : off+8])
	}
}

// EncodeBmapArray encodes leaf entries into a 32 KiB freemap leaf block.
// Missing trailing entries are zero.
func EncodeBmapArray(entries []types.BmapData) []byte {
	data := make([]byte, types.FreemapLevelNPSize)
	for i := 0; i < len(entries) && i < types.FreemapCount; i++ {
		off := i * types.BmapDataBytes
		encodeBmap(&entries[i], data[off:off+types.BmapDataBytes])
	}
	return data
}

func encodeBmap(b *types.BmapData, dst []byte) {
	endian.PutUint32(dst[types.BmapOffLinear:], b.Linear)
	endian.PutUint16(dst[types.BmapOffClass:], b.Class)
	dst[types.BmapOffReserv] = b.Reserv
	endian.PutUint32(dst[types.BmapOffAvail:], b.Avail)
	for i, q := range b.Bitmapq {
		off := types.BmapOffBitmapq + i*8
		endian.PutUint64(dst[off:off+8], q)
	}
}

// GranuleState returns the 2-bit allocation state of granule n (0-255) of b.
func GranuleState(b *types.BmapData, n int) uint8 {
	word := b.Bitmapq[n/types.BmapBlocksPerElement]
	shift := uint(n%types.BmapBlocksPerElement) * 2
	return uint8((word >> shift) & 3)
}
