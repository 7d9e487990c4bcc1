package fsck

import (
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// maxCacheSize bounds the number of cached offsets a request may ask for.
const maxCacheSize = 1 << 24

// Validate validates a verification request
func (r *Request) Validate() error {
	if len(r.VolumePaths) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "volume path is required", nil)
	}
	if r.CacheCount < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "cache count must not be negative", nil)
	}
	if r.CacheSize < 0 || r.CacheSize > maxCacheSize {
		return app.NewError(app.ErrCodeInvalidInput, "cache size must be between 0 and 16777216", nil)
	}
	if r.MaxDepth < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "max depth must not be negative", nil)
	}
	if len(r.PFSNames) > 0 && !r.ScanPFS && !r.PrintPFS {
		return app.NewError(app.ErrCodeInvalidInput, "PFS names require scan-pfs or print-pfs", nil)
	}
	for _, name := range r.PFSNames {
		if name == "" {
			return app.NewError(app.ErrCodeInvalidInput, "empty PFS name", nil)
		}
	}
	return nil
}
