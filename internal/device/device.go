// Package device opens the files and block devices backing HAMMER2 volumes.
package device

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnsupportedType is returned for paths that are neither regular files
// nor devices.
var ErrUnsupportedType = errors.New("unsupported file type")

// Device is a read-only volume backing store
type Device struct {
	path string
	file *os.File
	size uint64
}

// Open opens path read-only. Regular files and devices are accepted.
func Open(path string) (*Device, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat volume: %w", err)
	}
	mode := info.Mode()
	if !mode.IsRegular() && mode&os.ModeDevice == 0 {
		return nil, fmt.Errorf("%s: %s: %w", path, mode.Type(), ErrUnsupportedType)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume: %w", err)
	}
	size, err := sizeOf(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &Device{path: path, file: file, size: size}, nil
}

// sizeOf returns the size of a regular file or block device. Devices report
// a zero stat size, so the end is found by seeking.
func sizeOf(file *os.File) (uint64, error) {
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to get volume size: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind volume: %w", err)
	}
	return uint64(size), nil
}

// ReadAt implements io.ReaderAt
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.file.ReadAt(p, off)
}

// Size returns the size of the device in bytes
func (d *Device) Size() uint64 {
	return d.size
}

// Path returns the path the device was opened from
func (d *Device) Path() string {
	return d.path
}

// Close closes the underlying file
func (d *Device) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
