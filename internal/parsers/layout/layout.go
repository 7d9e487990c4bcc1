package layout

import (
	"errors"
	"fmt"
)

// ErrSizeMismatch is returned when a buffer is not exactly the size of the record it should hold.
var ErrSizeMismatch = errors.New("size mismatch")

// ErrMisaligned is returned when a record array buffer is not a whole number of records.
var ErrMisaligned = errors.New("misaligned record array")

// CheckExact verifies that data holds exactly one record of the given size.
func CheckExact(name string, data []byte, size int) error {
	if len(data) != size {
		return fmt.Errorf("%s: got %d bytes, want %d: %w", name, len(data), size, ErrSizeMismatch)
	}
	return nil
}

// CheckMinimum verifies that data holds at least one record of the given size.
func CheckMinimum(name string, data []byte, size int) error {
	if len(data) < size {
		return fmt.Errorf("data too small for %s: %d bytes, want %d: %w", name, len(data), size, ErrSizeMismatch)
	}
	return nil
}

// CheckArray verifies that data is a whole, non-empty number of elem-sized records
// and returns the record count.
func CheckArray(name string, data []byte, elem int) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%s: empty buffer: %w", name, ErrSizeMismatch)
	}
	if len(data)%elem != 0 {
		return 0, fmt.Errorf("%s: %d bytes is not a multiple of %d: %w", name, len(data), elem, ErrMisaligned)
	}
	return len(data) / elem, nil
}

// IsDecodeError reports whether err came from a layout check.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrSizeMismatch) || errors.Is(err, ErrMisaligned)
}
