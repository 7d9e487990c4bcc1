package types

import (
	"encoding/binary"
	"fmt"
)

// BlockrefType identifies what a blockref points at.
type BlockrefType uint8

const (
	BlockrefTypeEmpty       BlockrefType = 0
	BlockrefTypeInode       BlockrefType = 1
	BlockrefTypeIndirect    BlockrefType = 2
	BlockrefTypeData        BlockrefType = 3
	BlockrefTypeDirent      BlockrefType = 4
	BlockrefTypeFreemapNode BlockrefType = 5
	BlockrefTypeFreemapLeaf BlockrefType = 6
	BlockrefTypeInvalid     BlockrefType = 7

	// BlockrefTypeFreemap is a pseudo-type used only as the root of a freemap scan.
	BlockrefTypeFreemap BlockrefType = 254
	// BlockrefTypeVolume is a pseudo-type used only as the root of a volume scan.
	BlockrefTypeVolume BlockrefType = 255
)

// String returns the lower-case name of the blockref type.
func (t BlockrefType) String() string {
	switch t {
	case BlockrefTypeEmpty:
		return "empty"
	case BlockrefTypeInode:
		return "inode"
	case BlockrefTypeIndirect:
		return "indirect"
	case BlockrefTypeData:
		return "data"
	case BlockrefTypeDirent:
		return "dirent"
	case BlockrefTypeFreemapNode:
		return "freemap_node"
	case BlockrefTypeFreemapLeaf:
		return "freemap_leaf"
	case BlockrefTypeInvalid:
		return "invalid"
	case BlockrefTypeFreemap:
		return "freemap"
	case BlockrefTypeVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// IsPseudo reports whether the type only exists as a synthetic scan root.
func (t BlockrefType) IsPseudo() bool {
	return t == BlockrefTypeFreemap || t == BlockrefTypeVolume
}

// Blockref flags
const (
	BlockrefFlagPFSRoot uint8 = 0x01
)

// Blockref is the 128-byte pointer record used throughout the block tree.
//
// Layout:
//
//	0x00 type, 0x01 methods, 0x02 copyid, 0x03 keybits, 0x04 vradix, 0x05 flags
//	0x06 leaf_count, 0x08 key, 0x10 mirror_tid, 0x18 modify_tid
//	0x20 data_off, 0x28 update_tid, 0x30 embed[16], 0x40 check[64]
type Blockref struct {
	Type      BlockrefType
	Methods   uint8
	CopyID    uint8
	Keybits   uint8
	VRadix    uint8
	Flags     uint8
	LeafCount uint16
	Key       uint64
	MirrorTID uint64
	ModifyTID uint64
	DataOff   uint64
	UpdateTID uint64
	Embed     [16]byte
	Check     [64]byte
}

// Radix returns the size radix packed into DataOff.
func (b *Blockref) Radix() uint8 {
	return uint8(b.DataOff & OffMaskRadix)
}

// Bytes returns the physical block size, or 0 when the blockref has no media.
func (b *Blockref) Bytes() uint64 {
	radix := b.Radix()
	if radix == 0 {
		return 0
	}
	return uint64(1) << radix
}

// Offset returns the aligned physical offset without the size radix.
func (b *Blockref) Offset() uint64 {
	return b.DataOff & OffMask
}

// HasMedia reports whether the blockref references a physical block.
func (b *Blockref) HasMedia() bool {
	return b.DataOff != 0 && b.Radix() != 0
}

// LogicalBytes returns the logical (uncompressed) size encoded by VRadix.
func (b *Blockref) LogicalBytes() uint64 {
	if b.VRadix == 0 {
		return 0
	}
	return uint64(1) << b.VRadix
}

// CheckAlgo returns the check algorithm encoded in the methods byte.
func (b *Blockref) CheckAlgo() CheckAlgorithm {
	return DecodeCheck(b.Methods)
}

// CompAlgo returns the compression algorithm encoded in the methods byte.
func (b *Blockref) CompAlgo() CompressionAlgorithm {
	return DecodeComp(b.Methods)
}

// KeyRange returns the inclusive key range covered by the blockref.
func (b *Blockref) KeyRange() (uint64, uint64) {
	if b.Keybits >= 64 {
		return b.Key, ^uint64(0)
	}
	return b.Key, b.Key + (uint64(1) << b.Keybits) - 1
}

// String returns a compact description suitable for logs.
func (b *Blockref) String() string {
	return fmt.Sprintf("%s %016x/%d", b.Type, b.DataOff, b.Keybits)
}

// DirentHead is the embed interpretation used by DIRENT blockrefs.
type DirentHead struct {
	Inum    uint64
	NameLen uint16
	Type    ObjectType
}

// DirentHead decodes the embed union as a directory entry header.
func (b *Blockref) DirentHead() DirentHead {
	return DirentHead{
		Inum:    binary.LittleEndian.Uint64(b.Embed[0:8]),
		NameLen: binary.LittleEndian.Uint16(b.Embed[8:10]),
		Type:    ObjectType(b.Embed[10]),
	}
}

// SetDirentHead encodes a directory entry header into the embed union.
func (b *Blockref) SetDirentHead(h DirentHead) {
	b.Embed = [16]byte{}
	binary.LittleEndian.PutUint64(b.Embed[0:8], h.Inum)
	binary.LittleEndian.PutUint16(b.Embed[8:10], h.NameLen)
	b.Embed[10] = uint8(h.Type)
}

// BlockrefStats is the embed interpretation carrying aggregate counts.
type BlockrefStats struct {
	DataCount  uint64
	InodeCount uint64
}

// Stats decodes the embed union as aggregate statistics.
func (b *Blockref) Stats() BlockrefStats {
	return BlockrefStats{
		DataCount:  binary.LittleEndian.Uint64(b.Embed[0:8]),
		InodeCount: binary.LittleEndian.Uint64(b.Embed[8:16]),
	}
}

// SetStats encodes aggregate statistics into the embed union.
func (b *Blockref) SetStats(s BlockrefStats) {
	binary.LittleEndian.PutUint64(b.Embed[0:8], s.DataCount)
	binary.LittleEndian.PutUint64(b.Embed[8:16], s.InodeCount)
}

// ISCSI32 returns the CRC32 stored in the check union.
func (b *Blockref) ISCSI32() uint32 {
	return binary.LittleEndian.Uint32(b.Check[0:4])
}

// XXHash64 returns the xxhash64 value stored in the check union.
func (b *Blockref) XXHash64() uint64 {
	return binary.LittleEndian.Uint64(b.Check[0:8])
}

// SHA192 returns the truncated SHA-256 digest stored in the check union.
func (b *Blockref) SHA192() []byte {
	return b.Check[0:24]
}

// FreemapCheck is the check interpretation used by freemap blockrefs.
type FreemapCheck struct {
	ICRC32  uint32
	Bigmask uint32
	Avail   uint64
}

// Freemap decodes the check union as freemap metadata.
func (b *Blockref) Freemap() FreemapCheck {
	return FreemapCheck{
		ICRC32:  binary.LittleEndian.Uint32(b.Check[0:4]),
		Bigmask: binary.LittleEndian.Uint32(b.Check[4:8]),
		Avail:   binary.LittleEndian.Uint64(b.Check[8:16]),
	}
}

// SetFreemap encodes freemap metadata into the check union.
func (b *Blockref) SetFreemap(f FreemapCheck) {
	binary.LittleEndian.PutUint32(b.Check[0:4], f.ICRC32)
	binary.LittleEndian.PutUint32(b.Check[4:8], f.Bigmask)
	binary.LittleEndian.PutUint64(b.Check[8:16], f.Avail)
}

// InlineName returns the dirent name stored in the check union when it fits.
func (b *Blockref) InlineName() ([]byte, bool) {
	n := int(b.DirentHead().NameLen)
	if n > DirentInlineName {
		return nil, false
	}
	return b.Check[:n], true
}

// Blockset is the 4-way blockref array embedded in inodes and volume headers.
type Blockset [SetCount]Blockref
