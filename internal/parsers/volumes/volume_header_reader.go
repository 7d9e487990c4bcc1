package volumes

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/layout"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var endian = binary.LittleEndian

var (
	// ErrBadMagic is returned when a volume header carries no HAMMER2 magic.
	ErrBadMagic = errors.New("bad volume header magic")
	// ErrReverseEndian is returned for byte-swapped images, which are not supported.
	ErrReverseEndian = errors.New("reverse-endian volume header not supported")
)

// VolumeHeaderReader wraps a decoded volume header together with its raw bytes,
// which the CRC checks need.
type VolumeHeaderReader struct {
	header *types.VolumeData
	data   []byte
}

// NewVolumeHeaderReader decodes a 64 KiB volume header and validates its magic.
func NewVolumeHeaderReader(data []byte) (*VolumeHeaderReader, error) {
	if err := layout.CheckExact("volume header", data, types.VolumeBytes); err != nil {
		return nil, err
	}

	magic := endian.Uint64(data[types.VolOffMagic:])
	switch magic {
	case types.VolumeIDHBO:
	case types.VolumeIDABO:
		return nil, ErrReverseEndian
	default:
		return nil, fmt.Errorf("got 0x%016x, want 0x%016x: %w", magic, types.VolumeIDHBO, ErrBadMagic)
	}

	header, err := ParseVolumeHeader(data)
	if err != nil {
		return nil, err
	}
	return &VolumeHeaderReader{header: header, data: data}, nil
}

// Header returns the decoded header.
func (r *VolumeHeaderReader) Header() *types.VolumeData {
	return r.header
}

// Raw returns the raw header bytes.
func (r *VolumeHeaderReader) Raw() []byte {
	return r.data
}

// ParseVolumeHeader decodes the fields of a 64 KiB volume header without
// checking its magic.
func ParseVolumeHeader(data []byte) (*types.VolumeData, error) {
	if err := layout.CheckExact("volume header", data, types.VolumeBytes); err != nil {
		return nil, err
	}

	v := &types.VolumeData{}
	v.Magic = endian.Uint64(data[types.VolOffMagic:])
	v.BootBeg = endian.Uint64(data[types.VolOffBootBeg:])
	v.BootEnd = endian.Uint64(data[types.VolOffBootEnd:])
	v.AuxBeg = endian.Uint64(data[types.VolOffAuxBeg:])
	v.AuxEnd = endian.Uint64(data[types.VolOffAuxEnd:])
	v.VoluSize = endian.Uint64(data[types.VolOffVoluSize:])
	v.Version = endian.Uint32(data[types.VolOffVersion:])
	v.Flags = endian.Uint32(data[types.VolOffFlags:])
	v.CopyID = data[types.VolOffCopyID]
	v.FreemapVersion = data[types.VolOffFreemapVersion]
	v.PeerType = data[types.VolOffPeerType]
	v.VoluID = data[types.VolOffVoluID]
	v.NVolumes = data[types.VolOffNVolumes]
	copy(v.FSID[:], data[types.VolOffFSID:types.VolOffFSID+16])
	copy(v.FSType[:], data[types.VolOffFSType:types.VolOffFSType+16])
	v.AllocatorSize = endian.Uint64(data[types.VolOffAllocatorSize:])
	v.AllocatorFree = endian.Uint64(data[types.VolOffAllocatorFree:])
	v.AllocatorBeg = endian.Uint64(data[types.VolOffAllocatorBeg:])
	v.MirrorTID = endian.Uint64(data[types.VolOffMirrorTID:])
	v.FreemapTID = endian.Uint64(data[types.VolOffFreemapTID:])
	v.BulkfreeTID = endian.Uint64(data[types.VolOffBulkfreeTID:])
	v.TotalSize = endian.Uint64(data[types.VolOffTotalSize:])
	for i := range v.CopyExists {
		v.CopyExists[i] = endian.Uint32(data[types.VolOffCopyExists+i*4:])
	}
	for i := range v.ICRCSects {
		v.ICRCSects[i] = endian.Uint32(data[types.VolOffICRCSects+i*4:])
	}

	var err error
	v.SrootBlockset, err = blockrefs.ParseBlockset(data[types.VolOffSrootBlockset : types.VolOffSrootBlockset+types.BlocksetBytes])
	if err != nil {
		return nil, fmt.Errorf("sroot blockset: %w", err)
	}
	v.FreemapBlockset, err = blockrefs.ParseBlockset(data[types.VolOffFreemapBlockset : types.VolOffFreemapBlockset+types.BlocksetBytes])
	if err != nil {
		return nil, fmt.Errorf("freemap blockset: %w", err)
	}

	for i := range v.VoluLoff {
		v.VoluLoff[i] = endian.Uint64(data[types.VolOffVoluLoff+i*8:])
	}
	v.ICRCVolheader = endian.Uint32(data[types.VolOffICRCVolheader:])
	return v, nil
}

// EncodeVolumeHeader encodes v as a 64 KiB header. The stored CRC fields are
// written as given; use SealVolumeHeader to recompute them.
func EncodeVolumeHeader(v *types.VolumeData) []byte {
	data := make([]byte, types.VolumeBytes)
	endian.PutUint64(data[types.VolOffMagic:], v.Magic)
	endian.PutUint64(data[types.VolOffBootBeg:], v.BootBeg)
	endian.PutUint64(data[types.VolOffBootEnd:], v.BootEnd)
	endian.PutUint64(data[types.VolOffAuxBeg:], v.AuxBeg)
	endian.PutUint64(data[types.VolOffAuxEnd:], v.AuxEnd)
	endian.PutUint64(data[types.VolOffVoluSize:], v.VoluSize)
	endian.PutUint32(data[types.VolOffVersion:], v.Version)
	endian.PutUint32(data[types.VolOffFlags:], v.Flags)
	data[types.VolOffCopyID] = v.CopyID
	data[types.VolOffFreemapVersion] = v.FreemapVersion
	data[types.VolOffPeerType] = v.PeerType
	data[types.VolOffVoluID] = v.VoluID
	data[types.VolOffNVolumes] = v.NVolumes
	copy(data[types.VolOffFSID:], v.FSID[:])
	copy(data[types.VolOffFSType:], v.FSType[:])
	endian.PutUint64(data[types.VolOffAllocatorSize:], v.AllocatorSize)
	endian.PutUint64(data[types.VolOffAllocatorFree:], v.AllocatorFree)
	endian.PutUint64(data[types.VolOffAllocatorBeg:], v.AllocatorBeg)
	endian.PutUint64(data[types.VolOffMirrorTID:], v.MirrorTID)
	endian.PutUint64(data[types.VolOffFreemapTID:], v.FreemapTID)
	endian.PutUint64(data[types.VolOffBulkfreeTID:], v.BulkfreeTID)
	endian.PutUint64(data[types.VolOffTotalSize:], v.TotalSize)
	for i, c := range v.CopyExists {
		endian.PutUint32(data[types.VolOffCopyExists+i*4:], c)
	}
	for i, c := range v.ICRCSects {
		endian.PutUint32(data[types.VolOffICRCSects+i*4:], c)
	}
	_ = blockrefs.EncodeBlockset(&v.SrootBlockset, data[types.VolOffSrootBlockset:types.VolOffSrootBlockset+types.BlocksetBytes])
	_ = blockrefs.EncodeBlockset(&v.FreemapBlockset, data[types.VolOffFreemapBlockset:types.VolOffFreemapBlockset+types.BlocksetBytes])
	for i, off := range v.VoluLoff {
		endian.PutUint64(data[types.VolOffVoluLoff+i*8:], off)
	}
	endian.PutUint32(data[types.VolOffICRCVolheader:], v.ICRCVolheader)
	return data
}

// SealVolumeHeader recomputes the three header CRCs in place. Sector 1 is
// sealed first because its CRC lives inside the range covered by sector 0.
func SealVolumeHeader(data []byte) error {
	if err := layout.CheckExact("volume header", data, types.VolumeBytes); err != nil {
		return err
	}
	endian.PutUint32(data[types.VolOffICRCSects+types.VolICRCSect1*4:], sector1CRC(data))
	endian.PutUint32(data[types.VolOffICRCSects+types.VolICRCSect0*4:], sector0CRC(data))
	endian.PutUint32(data[types.VolOffICRCVolheader:], volheaderCRC(data))
	return nil
}

func sector0CRC(data []byte) uint32 {
	return checksums.ISCSI32(data[types.VolumeICRC0Off : types.VolumeICRC0Off+types.VolumeICRC0Size])
}

func sector1CRC(data []byte) uint32 {
	return checksums.ISCSI32(data[types.VolumeICRC1Off : types.VolumeICRC1Off+types.VolumeICRC1Size])
}

func volheaderCRC(data []byte) uint32 {
	return checksums.ISCSI32(data[types.VolumeICRCVHOff : types.VolumeICRCVHOff+types.VolumeICRCVHSize])
}
