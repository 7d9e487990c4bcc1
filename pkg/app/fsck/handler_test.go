package fsck

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/imagebuilder"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

func TestHandle(t *testing.T) {
	path := writeSample(t, nil)

	tests := []struct {
		name     string
		request  *Request
		validate func(*testing.T, *Response)
	}{
		{
			name:    "all zones",
			request: &Request{VolumePaths: []string{path}, VerifyData: true},
			validate: func(t *testing.T, resp *Response) {
				require.Len(t, resp.Passes, 3)
				assert.False(t, resp.Failed)
				volume := resp.Passes[2]
				assert.Equal(t, "volume", volume.Name)
				require.Len(t, volume.Zones, 2)
				assert.Equal(t, "zone.0 0000000000000010 (best)", volume.Zones[0].Heading)
				assert.Equal(t, uint64(7), volume.Zones[0].Stats.TotalBlockref)
				assert.True(t, volume.Zones[1].Exceeds)
			},
		},
		{
			name:    "scan pfs with cache",
			request: &Request{VolumePaths: []string{path}, ScanPFS: true, CacheCount: 1},
			validate: func(t *testing.T, resp *Response) {
				volume := resp.Passes[2]
				require.NotNil(t, volume.Cache)
				require.Len(t, volume.Zones[0].PFS, 1)
				pfs := volume.Zones[0].PFS[0]
				assert.Equal(t, "ROOT", pfs.Name)
				assert.Equal(t, "MASTER", pfs.Type)
				require.NotNil(t, pfs.Stats)
				assert.Equal(t, uint64(6), pfs.Stats.TotalBlockref)
			},
		},
		{
			name:    "print pfs",
			request: &Request{VolumePaths: []string{path}, PrintPFS: true, PFSNames: []string{"ROOT"}},
			validate: func(t *testing.T, resp *Response) {
				require.Len(t, resp.Passes, 1)
				pfs := resp.Passes[0].Zones[0].PFS
				require.Len(t, pfs, 1)
				assert.Nil(t, pfs[0].Stats)
				assert.Contains(t, pfs[0].Line, "ROOT")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := testContext()
			resp, err := Handle(ctx, tt.request)
			require.NoError(t, err)
			tt.validate(t, resp)
		})
	}
}

func TestHandleReportsCorruption(t *testing.T) {
	var fileOff uint64
	path := writeSample(t, func(s *imagebuilder.Sample) {
		fileOff = s.File.DataOff
		s.Builder.Corrupt(s.File.Offset() + 0x120)
	})

	ctx, _ := testContext()
	resp, err := Handle(ctx, &Request{VolumePaths: []string{path}, ScanBest: true, ShowMedia: true})
	require.Error(t, err)
	assert.Equal(t, app.ErrCodeIntegrity, app.ErrorCode(err))
	assert.ErrorIs(t, err, services.ErrSubtreeFailed)

	require.NotNil(t, resp)
	assert.True(t, resp.Failed)
	volume := resp.Passes[2]
	require.Len(t, volume.Zones, 1)
	diags := volume.Zones[0].Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, fmt.Sprintf("%016x", fileOff), diags[0].DataOff)
	assert.Equal(t, "integrity", diags[0].Kind)
	assert.Equal(t, "Bad HAMMER2_CHECK_XXHASH64", diags[0].Message)
	assert.NotEmpty(t, diags[0].Media)
}

func TestHandleErrors(t *testing.T) {
	ctx, _ := testContext()

	_, err := Handle(ctx, &Request{})
	assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode(err))

	_, err = Handle(ctx, &Request{VolumePaths: []string{"/nonexistent/hammer2.img"}})
	assert.Equal(t, app.ErrCodeVolumeAccess, app.ErrorCode(err))
}

func TestHandleCancelled(t *testing.T) {
	path := writeSample(t, nil)
	ctx, _ := testContext()
	ctx, cancel := ctx.WithCancel()
	cancel()

	_, err := Handle(ctx, &Request{VolumePaths: []string{path}})
	assert.Equal(t, app.ErrCodeCancelled, app.ErrorCode(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "subtree", err: fmt.Errorf("volume: %w", services.ErrSubtreeFailed), want: app.ErrCodeIntegrity},
		{name: "header", err: services.ErrVolumeHeaderDamaged, want: app.ErrCodeIntegrity},
		{name: "pfs", err: services.ErrPFSNotFound, want: app.ErrCodeIntegrity},
		{name: "unsupported", err: errors.Join(checksums.ErrUnsupportedCheck, services.ErrSubtreeFailed), want: app.ErrCodeUnsupported},
		{name: "deadline", err: context.DeadlineExceeded, want: app.ErrCodeTimeout},
		{name: "cancel", err: context.Canceled, want: app.ErrCodeCancelled},
		{name: "io", err: errors.New("short read"), want: app.ErrCodeVolumeAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, app.ErrorCode(classify(tt.err)))
		})
	}
	assert.NoError(t, classify(nil))
}
