package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
	tib = gib * 1024
)

// SizeString renders a byte count the way the HAMMER2 tools print sizes.
func SizeString(size uint64) string {
	switch {
	case size < kib/2:
		return fmt.Sprintf("%6.2fB", float64(size))
	case size < mib/2:
		return fmt.Sprintf("%6.2fKB", float64(size)/kib)
	case size < gib/2:
		return fmt.Sprintf("%6.2fMB", float64(size)/mib)
	case size < tib/2:
		return fmt.Sprintf("%6.2fGB", float64(size)/gib)
	default:
		return fmt.Sprintf("%6.2fTB", float64(size)/tib)
	}
}

// HAMMER2 stores UUIDs with the first three fields little-endian.
func swapUUIDBytes(b [16]byte) [16]byte {
	out := b
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	return out
}

// UUIDFromDisk converts an on-disk UUID to its canonical form.
func UUIDFromDisk(b [16]byte) uuid.UUID {
	return uuid.UUID(swapUUIDBytes(b))
}

// UUIDToDisk converts a canonical UUID to its on-disk byte order.
func UUIDToDisk(u uuid.UUID) [16]byte {
	return swapUUIDBytes([16]byte(u))
}

// UUIDString renders an on-disk UUID in canonical text form.
func UUIDString(b [16]byte) string {
	return UUIDFromDisk(b).String()
}

// HAMMER2FSType returns the on-disk bytes of the HAMMER2 fstype UUID.
func HAMMER2FSType() [16]byte {
	return UUIDToDisk(uuid.MustParse(FSTypeUUIDString))
}

// TimeFromMicros converts an on-disk microsecond timestamp.
func TimeFromMicros(t uint64) time.Time {
	return time.UnixMicro(int64(t)).UTC()
}

// TimeString renders an on-disk timestamp as dd-Mon-yyyy hh:mm:ss in UTC.
func TimeString(t uint64) string {
	return TimeFromMicros(t).Format("02-Jan-2006 15:04:05")
}
