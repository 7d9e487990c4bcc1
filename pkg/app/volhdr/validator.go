package volhdr

import (
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Validate validates a volume header request
func (r *Request) Validate() error {
	if len(r.VolumePaths) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "volume path is required", nil)
	}
	return nil
}
