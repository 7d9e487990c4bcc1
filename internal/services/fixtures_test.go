package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/imagebuilder"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// openSample builds the sample image and opens it as a volume set.
func openSample(t *testing.T) (*imagebuilder.Sample, *VolumeSet) {
	t.Helper()
	sample, err := imagebuilder.NewSample(imagebuilder.DefaultSampleSize)
	require.NoError(t, err)
	return sample, openBuilder(t, sample.Builder)
}

func openBuilder(t *testing.T, b *imagebuilder.Builder) *VolumeSet {
	t.Helper()
	vs := NewVolumeSet(nil)
	require.NoError(t, vs.AddDevice("sample.img", b, b.Size()))
	require.NoError(t, vs.Verify())
	return vs
}

// rawResolver maps the whole address space onto one device without a header.
type rawResolver struct {
	vol *types.Volume
}

func newRawMedia(b *imagebuilder.Builder) *MediaReader {
	return NewMediaReader(&rawResolver{vol: &types.Volume{Path: "raw", Size: b.Size(), DeviceSize: b.Size(), Device: b}})
}

func (r *rawResolver) Resolve(offset uint64) (*types.Volume, error) {
	offset &= types.OffMask
	if !r.vol.Contains(offset) {
		return nil, ErrNoSuchVolume
	}
	return r.vol, nil
}

func (r *rawResolver) TotalSize() uint64 {
	return r.vol.Size
}

func bytesOf(brefs ...types.Blockref) uint64 {
	var n uint64
	for i := range brefs {
		n += brefs[i].Bytes()
	}
	return n
}
