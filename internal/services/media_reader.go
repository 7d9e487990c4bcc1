package services

import (
	"errors"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-hammer2/internal/interfaces"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var (
	// ErrBadIOBytes is returned when the I/O window needed for a block exceeds
	// the maximum physical block size.
	ErrBadIOBytes = errors.New("bad I/O bytes")
	// ErrIOStraddle is returned when the I/O window would cross a physical block boundary.
	ErrIOStraddle = errors.New("I/O straddles physical block boundary")
)

// IsAddressingError reports whether err is a malformed size or alignment error
// detected before any I/O.
func IsAddressingError(err error) bool {
	return errors.Is(err, ErrBadIOBytes) || errors.Is(err, ErrIOStraddle)
}

// MediaReader reads radix-encoded blocks from a volume set. It performs no caching.
type MediaReader struct {
	volumes interfaces.VolumeResolver
}

// NewMediaReader creates a media reader on top of a volume resolver.
func NewMediaReader(volumes interfaces.VolumeResolver) *MediaReader {
	return &MediaReader{volumes: volumes}
}

// IOWindow computes the aligned read issued for dataOff: the base offset, the
// I/O size and the offset of the block within that read.
func IOWindow(dataOff uint64) (ioBase, ioBytes, boff uint64, err error) {
	radix := dataOff & types.OffMaskRadix
	if radix == 0 {
		return 0, 0, 0, nil
	}
	if radix > types.PBufRadix {
		return 0, 0, 0, fmt.Errorf("radix %d: %w", radix, ErrBadIOBytes)
	}
	bytes := uint64(1) << radix

	ioOff := dataOff &^ types.OffMaskRadix
	ioBase = ioOff &^ types.LBufMask
	boff = ioOff - ioBase

	ioBytes = types.LBufSize
	for ioBytes < boff+bytes {
		ioBytes <<= 1
	}
	if ioBytes > types.PBufSize {
		return 0, 0, 0, fmt.Errorf("%d bytes at 0x%016x: %w", ioBytes, dataOff, ErrBadIOBytes)
	}
	if ioBase&^types.PBufMask != (ioBase+ioBytes-1)&^types.PBufMask {
		return 0, 0, 0, fmt.Errorf("%d bytes at 0x%016x: %w", ioBytes, ioBase, ErrIOStraddle)
	}
	return ioBase, ioBytes, boff, nil
}

// ReadMedia returns the block addressed by dataOff, or nil when its radix is 0.
func (m *MediaReader) ReadMedia(dataOff uint64) ([]byte, error) {
	ioBase, ioBytes, boff, err := IOWindow(dataOff)
	if err != nil {
		return nil, err
	}
	if ioBytes == 0 {
		return nil, nil
	}
	bytes := uint64(1) << (dataOff & types.OffMaskRadix)

	vol, err := m.volumes.Resolve(dataOff)
	if err != nil {
		return nil, err
	}
	if ioBase < vol.Offset || ioBase+ioBytes > vol.Offset+vol.Size {
		return nil, fmt.Errorf("read 0x%016x+%d outside volume %d: %w", ioBase, ioBytes, vol.ID, ErrNoSuchVolume)
	}

	buf := make([]byte, ioBytes)
	n, err := vol.Device.ReadAt(buf, int64(ioBase-vol.Offset))
	if err != nil && !(errors.Is(err, io.EOF) && uint64(n) == ioBytes) {
		return nil, fmt.Errorf("failed to read %d bytes at 0x%016x: %w", ioBytes, ioBase, err)
	}
	return buf[boff : boff+bytes], nil
}

var _ interfaces.MediaReader = (*MediaReader)(nil)
