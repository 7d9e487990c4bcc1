package hash

import (
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Validate validates a name hashing request
func (r *Request) Validate() error {
	if len(r.Names) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "at least one name is required", nil)
	}
	switch r.Mode {
	case ModeDirent:
	case ModeData:
		for _, name := range r.Names {
			if len(name) > services.ExtendedRecordBytes {
				return app.NewError(app.ErrCodeInvalidInput,
					fmt.Sprintf("name exceeds %d bytes", services.ExtendedRecordBytes), nil)
			}
		}
	default:
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("unknown hash mode: %s", r.Mode), nil)
	}
	return nil
}
