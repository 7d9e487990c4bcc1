package types

import "fmt"

// CheckAlgorithm selects the integrity code stored in a blockref's check union.
type CheckAlgorithm uint8

const (
	CheckNone     CheckAlgorithm = 0
	CheckDisabled CheckAlgorithm = 1
	CheckISCSI32  CheckAlgorithm = 2
	CheckXXHash64 CheckAlgorithm = 3
	CheckSHA192   CheckAlgorithm = 4
	CheckFreemap  CheckAlgorithm = 5

	CheckDefault = CheckXXHash64
)

var checkNames = [...]string{"none", "disabled", "crc32", "xxhash64", "sha192", "freemap"}

// String returns the algorithm name, or unknown(N) for unrecognized codes.
func (c CheckAlgorithm) String() string {
	if int(c) < len(checkNames) {
		return checkNames[c]
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// DiagnosticName returns the name used in verification diagnostics.
func (c CheckAlgorithm) DiagnosticName() string {
	switch c {
	case CheckNone:
		return "HAMMER2_CHECK_NONE"
	case CheckDisabled:
		return "HAMMER2_CHECK_DISABLED"
	case CheckISCSI32:
		return "HAMMER2_CHECK_ISCSI32"
	case CheckXXHash64:
		return "HAMMER2_CHECK_XXHASH64"
	case CheckSHA192:
		return "HAMMER2_CHECK_SHA192"
	case CheckFreemap:
		return "HAMMER2_CHECK_FREEMAP"
	default:
		return fmt.Sprintf("HAMMER2_CHECK_%d", uint8(c))
	}
}

// CompressionAlgorithm selects how DATA block payloads are stored.
type CompressionAlgorithm uint8

const (
	CompNone     CompressionAlgorithm = 0
	CompAutoZero CompressionAlgorithm = 1
	CompLZ4      CompressionAlgorithm = 2
	CompZlib     CompressionAlgorithm = 3

	CompDefault = CompLZ4
)

var compNames = [...]string{"none", "autozero", "lz4", "zlib"}

// String returns the algorithm name, or unknown(N) for unrecognized codes.
func (c CompressionAlgorithm) String() string {
	if int(c) < len(compNames) {
		return compNames[c]
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// The methods byte packs the check algorithm in the high nibble and the
// compression algorithm in the low nibble.

// EncodeMethods packs a check and compression algorithm into a methods byte.
func EncodeMethods(check CheckAlgorithm, comp CompressionAlgorithm) uint8 {
	return uint8(check&0x0F)<<4 | uint8(comp&0x0F)
}

// DecodeCheck extracts the check algorithm from a methods byte.
func DecodeCheck(methods uint8) CheckAlgorithm {
	return CheckAlgorithm((methods >> 4) & 0x0F)
}

// DecodeComp extracts the compression algorithm from a methods byte.
func DecodeComp(methods uint8) CompressionAlgorithm {
	return CompressionAlgorithm(methods & 0x0F)
}

// Inode-level algorithm fields carry a level in their high nibble.

// DecodeAlgo returns the algorithm of an inode comp_algo or check_algo field.
func DecodeAlgo(n uint8) uint8 {
	return n & 0x0F
}

// DecodeLevel returns the level of an inode comp_algo or check_algo field.
func DecodeLevel(n uint8) uint8 {
	return (n >> 4) & 0x0F
}

// CompModeString renders an inode comp_algo field, e.g. "lz4:default".
func CompModeString(n uint8) string {
	level := DecodeLevel(n)
	name := CompressionAlgorithm(DecodeAlgo(n)).String()
	if level != 0 {
		return fmt.Sprintf("%s:%d", name, level)
	}
	return name + ":default"
}

// CheckModeString renders an inode check_algo field, e.g. "xxhash64".
func CheckModeString(n uint8) string {
	level := DecodeLevel(n)
	name := CheckAlgorithm(DecodeAlgo(n)).String()
	if level != 0 {
		return fmt.Sprintf("%s:%d", name, level)
	}
	return name
}
