package types

import "io"

// Volume is one backing device of a volume set.
type Volume struct {
	ID   uint8
	Path string
	// Offset is the logical base of the volume within the volume set.
	Offset uint64
	// Size is the logical size the volume contributes.
	Size uint64
	// DeviceSize is the size of the backing file or device.
	DeviceSize uint64
	// BestZone is the zone index of the header copy selected for this volume.
	BestZone int
	// Header is the selected volume header.
	Header *VolumeData
	Device io.ReaderAt
}

// Contains reports whether the logical offset falls inside the volume.
func (v *Volume) Contains(offset uint64) bool {
	return offset >= v.Offset && offset < v.Offset+v.Size
}
