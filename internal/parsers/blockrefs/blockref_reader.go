package blockrefs

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/layout"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var endian = binary.LittleEndian

// ParseBlockref decodes exactly one 128-byte blockref.
func ParseBlockref(data []byte) (*types.Blockref, error) {
	if err := layout.CheckExact("blockref", data, types.BlockrefBytes); err != nil {
		return nil, err
	}
	b := &types.Blockref{}
	decode(b, data)
	return b, nil
}

func decode(b *types.Blockref, data []byte) {
	b.Type = types.BlockrefType(data[0])
	b.Methods = data[1]
	b.CopyID = data[2]
	b.Keybits = data[3]
	b.VRadix = data[4]
	b.Flags = data[5]
	b.LeafCount = endian.Uint16(data[6:8])
	b.Key = endian.Uint64(data[8:16])
	b.MirrorTID = endian.Uint64(data[16:24])
	b.ModifyTID = endian.Uint64(data[24:32])
	b.DataOff = endian.Uint64(data[32:40])
	b.UpdateTID = endian.Uint64(data[40:48])
	copy(b.Embed[:], data[48:64])
	copy(b.Check[:], data[64:128])
}

// EncodeBlockref writes b into dst, which must be exactly 128 bytes.
func EncodeBlockref(b *types.Blockref, dst []byte) error {
	if err := layout.CheckExact("blockref", dst, types.BlockrefBytes); err != nil {
		return err
	}
	dst[0] = uint8(b.Type)
	dst[1] = b.Methods
	dst[2] = b.CopyID
	dst[3] = b.Keybits
	dst[4] = b.VRadix
	dst[5] = b.Flags
	endian.PutUint16(dst[6:8], b.LeafCount)
	endian.PutUint64(dst[8:16], b.Key)
	endian.PutUint64(dst[16:24], b.MirrorTID)
	endian.PutUint64(dst[24:32], b.ModifyTID)
	endian.PutUint64(dst[32:40], b.DataOff)
	endian.PutUint64(dst[40:48], b.UpdateTID)
	copy(dst[48:64], b.Embed[:])
	copy(dst[64:128], b.Check[:])
	return nil
}

// Marshal returns the 128-byte encoding of b.
func Marshal(b *types.Blockref) []byte {
	buf := make([]byte, types.BlockrefBytes)
	_ = EncodeBlockref(b, buf)
	return buf
}

// ParseBlockrefArray decodes a buffer holding a whole number of blockrefs,
// such as an indirect block or freemap node.
func ParseBlockrefArray(data []byte) ([]types.Blockref, error) {
	n, err := layout.CheckArray("blockref array", data, types.BlockrefBytes)
	if err != nil {
		return nil, err
	}
	out := make([]types.Blockref, n)
	for i := range out {
		off := i * types.BlockrefBytes
		decode(&out[i], data[off:off+types.BlockrefBytes])
	}
	return out, nil
}

// EncodeBlockrefArray encodes brefs back to back.
func EncodeBlockrefArray(brefs []types.Blockref) []byte {
	buf := make([]byte, len(brefs)*types.BlockrefBytes)
	for i := range brefs {
		off := i * types.BlockrefBytes
		_ = EncodeBlockref(&brefs[i], buf[off:off+types.BlockrefBytes])
	}
	return buf
}

// ParseBlockset decodes a 512-byte embedded blockset.
func ParseBlockset(data []byte) (types.Blockset, error) {
	var set types.Blockset
	if err := layout.CheckExact("blockset", data, types.BlocksetBytes); err != nil {
		return set, err
	}
	for i := range set {
		off := i * types.BlockrefBytes
		decode(&set[i], data[off:off+types.BlockrefBytes])
	}
	return set, nil
}

// EncodeBlockset writes set into dst, which must be exactly 512 bytes.
func EncodeBlockset(set *types.Blockset, dst []byte) error {
	if err := layout.CheckExact("blockset", dst, types.BlocksetBytes); err != nil {
		return err
	}
	for i := range set {
		off := i * types.BlockrefBytes
		if err := EncodeBlockref(&set[i], dst[off:off+types.BlockrefBytes]); err != nil {
			return fmt.Errorf("blockset entry %d: %w", i, err)
		}
	}
	return nil
}

// Equal reports whether two blockrefs are byte-identical on disk.
func Equal(a, b *types.Blockref) bool {
	return *a == *b
}
