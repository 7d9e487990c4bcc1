package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ParseVolumePaths expands the device arguments of a command. Each argument
// may name several volumes of one set separated by ':'.
func ParseVolumePaths(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, arg := range args {
		for _, p := range strings.Split(arg, ":") {
			if p == "" {
				return nil, errors.New("empty volume path")
			}
			if seen[p] {
				return nil, fmt.Errorf("%s specified more than once", p)
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no volume specified")
	}
	return paths, nil
}

// ProgressUpdate represents progress information. Walks do not know their
// size in advance, so only completed work is reported.
type ProgressUpdate struct {
	Message     string
	Completed   int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Rate calculates items per second
func (p *ProgressUpdate) Rate() float64 {
	if p.ElapsedTime == 0 {
		return 0
	}
	return float64(p.Completed) / p.ElapsedTime.Seconds()
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeVolumeAccess = "VOLUME_ACCESS"
	ErrCodeIntegrity    = "INTEGRITY"
	ErrCodeUnsupported  = "UNSUPPORTED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeCancelled    = "CANCELLED"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of the CommonError in err's chain, or "".
func ErrorCode(err error) string {
	var ce *CommonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
