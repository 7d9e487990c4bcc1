package services

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/dirents"
)

// ExtendedRecordBytes is the size of the zero-padded record hashed by DataHash.
const ExtendedRecordBytes = 1024

// ErrNameTooLong is returned when a name does not fit the hashed record.
var ErrNameTooLong = errors.New("name too long")

// NameHashingService provides the name hashing functions of the directory layer
type NameHashingService struct{}

// NewNameHashingService creates a new name hashing service
func NewNameHashingService() *NameHashingService {
	return &NameHashingService{}
}

// DirentKey returns the directory hash key a dirent for name is stored under.
func (nhs *NameHashingService) DirentKey(name string) uint64 {
	return dirents.Dirhash([]byte(name))
}

// DataHash returns the xxhash64 of name stored in a zero-padded 1 KiB
// extended directory record.
func (nhs *NameHashingService) DataHash(name string) (uint64, error) {
	if len(name) > ExtendedRecordBytes {
		return 0, fmt.Errorf("%d bytes: %w", len(name), ErrNameTooLong)
	}
	buf := make([]byte, ExtendedRecordBytes)
	copy(buf, name)
	return checksums.XXHash64(buf), nil
}
