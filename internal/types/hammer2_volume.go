package types

// VolumeData is the 64 KiB volume header stored at the start of each zone.
//
// Sector 0 holds geometry and CRCs, sector 1 the super-root blockset, sector 4
// the freemap blockset and sector 7 the volume offset table.
type VolumeData struct {
	Magic           uint64
	BootBeg         uint64
	BootEnd         uint64
	AuxBeg          uint64
	AuxEnd          uint64
	VoluSize        uint64
	Version         uint32
	Flags           uint32
	CopyID          uint8
	FreemapVersion  uint8
	PeerType        uint8
	VoluID          uint8
	NVolumes        uint8
	FSID            [16]byte
	FSType          [16]byte
	AllocatorSize   uint64
	AllocatorFree   uint64
	AllocatorBeg    uint64
	MirrorTID       uint64
	FreemapTID      uint64
	BulkfreeTID     uint64
	TotalSize       uint64
	CopyExists      [8]uint32
	ICRCSects       [8]uint32
	SrootBlockset   Blockset
	FreemapBlockset Blockset
	VoluLoff        [MaxVolumes]uint64
	ICRCVolheader   uint32
}

// Sector0CRC returns the stored CRC of sector 0.
func (v *VolumeData) Sector0CRC() uint32 {
	return v.ICRCSects[VolICRCSect0]
}

// Sector1CRC returns the stored CRC of sector 1.
func (v *VolumeData) Sector1CRC() uint32 {
	return v.ICRCSects[VolICRCSect1]
}

// Volume header field offsets.
const (
	VolOffMagic           = 0x0000
	VolOffBootBeg         = 0x0008
	VolOffBootEnd         = 0x0010
	VolOffAuxBeg          = 0x0018
	VolOffAuxEnd          = 0x0020
	VolOffVoluSize        = 0x0028
	VolOffVersion         = 0x0030
	VolOffFlags           = 0x0034
	VolOffCopyID          = 0x0038
	VolOffFreemapVersion  = 0x0039
	VolOffPeerType        = 0x003A
	VolOffVoluID          = 0x003B
	VolOffNVolumes        = 0x003C
	VolOffFSID            = 0x0040
	VolOffFSType          = 0x0050
	VolOffAllocatorSize   = 0x0060
	VolOffAllocatorFree   = 0x0068
	VolOffAllocatorBeg    = 0x0070
	VolOffMirrorTID       = 0x0078
	VolOffFreemapTID      = 0x0090
	VolOffBulkfreeTID     = 0x0098
	VolOffTotalSize       = 0x00C0
	VolOffCopyExists      = 0x00C8
	VolOffICRCSects       = 0x01E0
	VolOffSrootBlockset   = 0x0200
	VolOffFreemapBlockset = 0x0800
	VolOffVoluLoff        = 0x0E00
	VolOffICRCVolheader   = 0xFFFC
)
