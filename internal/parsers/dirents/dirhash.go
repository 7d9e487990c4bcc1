package dirents

import (
	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

func isSeparator(c byte) bool {
	return c == '.' || c == '-' || c == '_' || c == '~'
}

// Dirhash returns the 64-bit directory key of name.
//
// The upper 32 bits sum the CRCs of each separator-delimited component with
// bit 63 forced on, bits 16-31 fold a CRC of the whole name, and bit 15 is
// always set so keys 0x0000-0x7FFF stay free for artificial entries.
func Dirhash(name []byte) uint64 {
	var crcx uint32
	j := 0
	for i := 0; i < len(name); i++ {
		if isSeparator(name[i]) {
			if i != j {
				crcx += checksums.ISCSI32(name[j:i])
			}
			j = i + 1
		}
	}
	if len(name) != j {
		crcx += checksums.ISCSI32(name[j:])
	}
	crcx |= 0x80000000
	key := uint64(crcx) << 32

	crcx = checksums.ISCSI32(name)
	crcx ^= crcx << 16
	key |= uint64(crcx) & 0xFFFF0000

	return key | types.DirHashVisibleBit
}
