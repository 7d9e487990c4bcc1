package fsck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

func TestRequest_Validate(t *testing.T) {
	paths := []string{"/dev/da0s1d"}
	tests := []struct {
		name    string
		request Request
		wantErr string
	}{
		{name: "minimal", request: Request{VolumePaths: paths}},
		{name: "full", request: Request{VolumePaths: paths, CacheCount: 4, CacheSize: 1 << 16, MaxDepth: 8, ScanPFS: true, PFSNames: []string{"ROOT"}}},
		{name: "no paths", request: Request{}, wantErr: "volume path is required"},
		{name: "negative cache count", request: Request{VolumePaths: paths, CacheCount: -1}, wantErr: "cache count"},
		{name: "negative cache size", request: Request{VolumePaths: paths, CacheSize: -1}, wantErr: "cache size"},
		{name: "oversized cache", request: Request{VolumePaths: paths, CacheSize: maxCacheSize + 1}, wantErr: "cache size"},
		{name: "negative depth", request: Request{VolumePaths: paths, MaxDepth: -2}, wantErr: "max depth"},
		{name: "names without pfs scan", request: Request{VolumePaths: paths, PFSNames: []string{"ROOT"}}, wantErr: "require scan-pfs"},
		{name: "empty name", request: Request{VolumePaths: paths, PrintPFS: true, PFSNames: []string{""}}, wantErr: "empty PFS name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode(err))
		})
	}
}

func TestRequest_Options(t *testing.T) {
	req := Request{VolumePaths: []string{"a"}, CacheCount: 3, CacheSize: 100, Force: true, ScanPFS: true, PFSNames: []string{"x"}}
	opts := req.Options()
	assert.Equal(t, 3, opts.CacheThreshold)
	assert.Equal(t, 100, opts.CacheSize)
	assert.True(t, opts.Force)
	assert.True(t, opts.ScanPFS)
	assert.Equal(t, []string{"x"}, opts.PFSNames)
}
