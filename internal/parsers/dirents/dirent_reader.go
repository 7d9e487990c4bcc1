package dirents

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// ErrNameLength is returned when a dirent name does not fit its storage.
var ErrNameLength = errors.New("bad dirent name length")

// Dirent is a decoded directory entry.
type Dirent struct {
	Key  uint64
	Inum uint64
	Type types.ObjectType
	Name string
}

// ParseDirent decodes a DIRENT blockref. Names of up to 64 bytes live in the
// check union; longer names live in the referenced media block.
func ParseDirent(bref *types.Blockref, media []byte) (*Dirent, error) {
	if bref.Type != types.BlockrefTypeDirent {
		return nil, fmt.Errorf("blockref type %s is not a dirent", bref.Type)
	}
	head := bref.DirentHead()
	d := &Dirent{Key: bref.Key, Inum: head.Inum, Type: head.Type}

	if name, ok := bref.InlineName(); ok {
		d.Name = string(name)
		return d, nil
	}
	if int(head.NameLen) > len(media) {
		return nil, fmt.Errorf("name length %d exceeds %d media bytes: %w", head.NameLen, len(media), ErrNameLength)
	}
	d.Name = string(media[:head.NameLen])
	return d, nil
}
