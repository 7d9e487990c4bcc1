package types

// HAMMER2 On-Disk Geometry
// All multi-byte fields are stored little-endian. Block sizes are powers of two and
// are packed into the low bits of a blockref's data_off.

const (
	// PBufRadix is the radix of the largest physical block.
	PBufRadix = 16
	// LBufRadix is the radix of the smallest I/O the media layer issues.
	LBufRadix = 14
	// RadixMin is the radix of the smallest allocation.
	RadixMin = 10
	// RadixMax is the radix of the largest allocation.
	RadixMax = 16

	// PBufSize is the maximum physical block size in bytes (64 KiB).
	PBufSize uint64 = 1 << PBufRadix
	// PBufMask masks the offset within a physical block.
	PBufMask = PBufSize - 1
	// LBufSize is the logical buffer granularity in bytes (16 KiB).
	LBufSize uint64 = 1 << LBufRadix
	// LBufMask masks the offset within a logical buffer.
	LBufMask = LBufSize - 1

	// OffMask strips the size radix from a data_off value.
	OffMask uint64 = 0xFFFFFFFFFFFFFFC0
	// OffMaskRadix selects the size radix of a data_off value.
	OffMaskRadix uint64 = 0x3F
)

const (
	// ZoneBytes is the stride between redundant volume header copies (2 GiB).
	ZoneBytes uint64 = 2 * 1024 * 1024 * 1024
	// ZoneMask masks an offset within a zone.
	ZoneMask = ZoneBytes - 1
	// ZoneSeg is the reserved segment at the start of each zone (4 MiB).
	ZoneSeg uint64 = 4 * 1024 * 1024
	// NumVolHdrs is the number of redundant volume header copies.
	NumVolHdrs = 4

	// ZoneBlockVolHdr is the 64 KiB block within a zone holding the volume header.
	ZoneBlockVolHdr = 0
	// ZoneFreemap00 is the first 64 KiB block within a zone used by the freemap.
	ZoneFreemap00 = 1
	// ZoneFreemapInc is the number of blocks in one freemap rotation set.
	ZoneFreemapInc = 5
	// ZoneFreemapEnd is the block after the last freemap rotation set.
	ZoneFreemapEnd = 41

	// VolumeAlign is the alignment of the final volume size (8 MiB).
	VolumeAlign uint64 = 8 * 1024 * 1024
	// VolumeAlignMask masks the unaligned remainder of a volume size.
	VolumeAlignMask = VolumeAlign - 1

	// MaxVolumes is the maximum number of volumes in a volume set.
	MaxVolumes = 64
	// RootVolume is the id of the volume holding the authoritative header.
	RootVolume = 0

	// SetCount is the number of blockrefs in an embedded blockset.
	SetCount = 4
	// EmbeddedBytes is the inline data capacity of an inode.
	EmbeddedBytes = 512

	// BlockrefBytes is the on-disk size of a blockref.
	BlockrefBytes = 128
	// InodeBytes is the on-disk size of an inode.
	InodeBytes = 1024
	// InodeMetaBytes is the size of the fixed inode metadata area.
	InodeMetaBytes = 256
	// InodeMaxName is the capacity of the inode filename field.
	InodeMaxName = 256
	// VolumeBytes is the on-disk size of a volume header.
	VolumeBytes = 65536
	// BlocksetBytes is the on-disk size of an embedded blockset.
	BlocksetBytes = SetCount * BlockrefBytes

	// DirentInlineName is the maximum dirent name length stored inside the blockref.
	DirentInlineName = 64
)

// Volume Header Magic

const (
	// VolumeIDHBO is the volume header magic in host byte order.
	VolumeIDHBO uint64 = 0x48414d3205172011
	// VolumeIDABO is the volume header magic as seen on a byte-swapped image.
	VolumeIDABO uint64 = 0x11201705324d4148
)

// Volume Header Versions

const (
	VolVersionMin          = 1
	VolVersionMultiVolumes = 2
	VolVersionDefault      = VolVersionMultiVolumes
	VolVersionWIP          = 3
)

// Volume Header CRC Layout

const (
	// VolICRCSect0 is the icrc_sects index holding the sector 0 CRC.
	VolICRCSect0 = 7
	// VolICRCSect1 is the icrc_sects index holding the sector 1 CRC.
	VolICRCSect1 = 6

	// VolumeICRC0Off is the start of the range covered by the sector 0 CRC.
	VolumeICRC0Off = 0
	// VolumeICRC0Size is the length of the range covered by the sector 0 CRC.
	VolumeICRC0Size = 512 - 4
	// VolumeICRC1Off is the start of the range covered by the sector 1 CRC.
	VolumeICRC1Off = 512
	// VolumeICRC1Size is the length of the range covered by the sector 1 CRC.
	VolumeICRC1Size = 512
	// VolumeICRCVHOff is the start of the range covered by the whole-header CRC.
	VolumeICRCVHOff = 0
	// VolumeICRCVHSize is the length of the range covered by the whole-header CRC.
	VolumeICRCVHSize = VolumeBytes - 4
)

// Freemap Geometry

const (
	FreemapLevel6Radix = 64
	FreemapLevel5Radix = 62
	FreemapLevel4Radix = 54
	FreemapLevel3Radix = 46
	FreemapLevel2Radix = 38
	FreemapLevel1Radix = 30
	FreemapLevel0Radix = 22

	// FreemapLevel0Size is the space covered by one bmap entry (4 MiB).
	FreemapLevel0Size uint64 = 1 << FreemapLevel0Radix
	// FreemapLevel1Size is the space covered by one freemap leaf (1 GiB).
	FreemapLevel1Size uint64 = 1 << FreemapLevel1Radix

	// FreemapLevelNPSize is the physical size of every freemap node and leaf.
	FreemapLevelNPSize = 32768

	// FreemapBlockRadix is the radix of a freemap allocation granule.
	FreemapBlockRadix = 14
	// FreemapBlockSize is the size of a freemap allocation granule (16 KiB).
	FreemapBlockSize uint64 = 1 << FreemapBlockRadix

	// BmapElements is the number of 64-bit bitmap words per bmap entry.
	BmapElements = 8
	// BmapBitsPerElement is the number of bits in a bitmap word.
	BmapBitsPerElement = 64
	// BmapBlocksPerElement is the number of 2-bit granule states per bitmap word.
	BmapBlocksPerElement = 32
	// BmapDataBytes is the on-disk size of a bmap entry.
	BmapDataBytes = 128

	// FreemapCount is the number of bmap entries in one freemap leaf.
	FreemapCount = FreemapLevelNPSize / BmapDataBytes
)

// DirHashVisibleBit is always set in a directory hash key.
const DirHashVisibleBit uint64 = 0x8000

// XXH64Seed is the seed used for HAMMER2 xxhash64 check codes.
const XXH64Seed uint64 = 0x4d617474446c6c6e

// FSTypeUUIDString is the fstype UUID stamped in every HAMMER2 volume header.
const FSTypeUUIDString = "5cbb9ad1-862d-11dc-a94d-01301bb8a9f5"
