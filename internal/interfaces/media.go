package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// BlockDeviceReader is a read-only backing device of a volume.
type BlockDeviceReader interface {
	io.ReaderAt
	io.Closer
}

// VolumeResolver maps a logical offset of the volume set to its owning volume.
type VolumeResolver interface {
	// Resolve returns the volume containing the radix-masked offset.
	Resolve(offset uint64) (*types.Volume, error)

	// TotalSize returns the size of the logical address space.
	TotalSize() uint64
}

// MediaReader reads radix-encoded blocks from the logical address space.
type MediaReader interface {
	// ReadMedia returns the block addressed by dataOff. A zero radix yields no bytes.
	ReadMedia(dataOff uint64) ([]byte, error)
}

// ChecksumVerifier checks a block payload against its blockref.
type ChecksumVerifier interface {
	Verify(bref *types.Blockref, media []byte) (bool, error)
}

// Decompressor decodes compressed DATA block payloads.
type Decompressor interface {
	Decompress(bref *types.Blockref, media []byte) ([]byte, error)
}
