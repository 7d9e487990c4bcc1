package checksums

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"github.com/minio/sha256-simd"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// ErrUnsupportedCheck is returned for check algorithm codes this build does not know.
// It indicates a newer on-disk format rather than corruption.
var ErrUnsupportedCheck = errors.New("unsupported check algorithm")

var iscsiTable = crc32.MakeTable(crc32.Castagnoli)

// ISCSI32 computes the iSCSI (Castagnoli) CRC32 used by HAMMER2.
func ISCSI32(data []byte) uint32 {
	return crc32.Checksum(data, iscsiTable)
}

// XXHash64 computes the seeded xxhash64 used by HAMMER2.
func XXHash64(data []byte) uint64 {
	d := xxhash.NewWithSeed(types.XXH64Seed)
	_, _ = d.Write(data)
	return d.Sum64()
}

// SHA192 computes SHA-256 over data and returns the leading 24 bytes kept on disk.
func SHA192(data []byte) [24]byte {
	sum := sha256.Sum256(data)
	var out [24]byte
	copy(out[:], sum[:24])
	return out
}

// ChecksumVerifier checks blockref payloads against their embedded check codes.
type ChecksumVerifier struct {
	// Strict rejects blocks whose check algorithm is none or disabled.
	Strict bool
}

// NewChecksumVerifier creates a verifier.
func NewChecksumVerifier(strict bool) *ChecksumVerifier {
	return &ChecksumVerifier{Strict: strict}
}

// Verify reports whether media matches the check union of bref.
func (v *ChecksumVerifier) Verify(bref *types.Blockref, media []byte) (bool, error) {
	return VerifyMethods(bref.Methods, media, &bref.Check, v.Strict)
}

// VerifyMethods dispatches on the check algorithm of a methods byte.
func VerifyMethods(methods uint8, media []byte, check *[64]byte, strict bool) (bool, error) {
	algo := types.DecodeCheck(methods)
	switch algo {
	case types.CheckNone, types.CheckDisabled:
		return !strict, nil
	case types.CheckISCSI32:
		return ISCSI32(media) == binary.LittleEndian.Uint32(check[0:4]), nil
	case types.CheckXXHash64:
		return XXHash64(media) == binary.LittleEndian.Uint64(check[0:8]), nil
	case types.CheckSHA192:
		sum := SHA192(media)
		return [24]byte(check[0:24]) == sum, nil
	case types.CheckFreemap:
		return ISCSI32(media) == binary.LittleEndian.Uint32(check[0:4]), nil
	default:
		return false, fmt.Errorf("check algorithm %d: %w", uint8(algo), ErrUnsupportedCheck)
	}
}

// Seal computes the check code of media with the algorithm selected by
// bref.Methods and stores it in bref.Check. Freemap metadata sharing the
// check union is preserved.
func Seal(bref *types.Blockref, media []byte) error {
	algo := bref.CheckAlgo()
	switch algo {
	case types.CheckNone, types.CheckDisabled:
		return nil
	case types.CheckISCSI32:
		bref.Check = [64]byte{}
		binary.LittleEndian.PutUint32(bref.Check[0:4], ISCSI32(media))
	case types.CheckXXHash64:
		bref.Check = [64]byte{}
		binary.LittleEndian.PutUint64(bref.Check[0:8], XXHash64(media))
	case types.CheckSHA192:
		bref.Check = [64]byte{}
		sum := SHA192(media)
		copy(bref.Check[0:24], sum[:])
	case types.CheckFreemap:
		binary.LittleEndian.PutUint32(bref.Check[0:4], ISCSI32(media))
	default:
		return fmt.Errorf("check algorithm %d: %w", uint8(algo), ErrUnsupportedCheck)
	}
	return nil
}
