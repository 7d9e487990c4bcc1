package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/imagebuilder"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

const gib = uint64(1) << 30

// twoVolumes builds the headers of a 1 GiB + 16 MiB volume set.
func twoVolumes(t *testing.T) (*imagebuilder.Builder, *imagebuilder.Builder) {
	t.Helper()
	b0 := imagebuilder.New(gib)
	b1 := imagebuilder.New(16 * mib)

	h0 := b0.Header(1)
	h0.NVolumes = 2
	h0.TotalSize = gib + 16*mib
	h0.VoluLoff[1] = gib
	require.NoError(t, b0.WriteHeader(0, h0))

	h1 := *h0
	h1.VoluID = 1
	h1.VoluSize = 16 * mib
	require.NoError(t, b1.WriteHeader(0, &h1))
	return b0, b1
}

func TestOpenVolumeSetFromFile(t *testing.T) {
	sample, err := imagebuilder.NewSample(imagebuilder.DefaultSampleSize)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "hammer2.img")
	require.NoError(t, sample.Builder.WriteFile(path))

	vs, err := OpenVolumeSet([]string{path}, nil)
	require.NoError(t, err)
	defer vs.Close()

	root := vs.RootVolume()
	require.NotNil(t, root)
	assert.Equal(t, path, root.Path)
	assert.Equal(t, 0, root.BestZone)
	assert.Equal(t, uint64(imagebuilder.DefaultSampleSize), vs.TotalSize())
	assert.Len(t, vs.Volumes(), 1)
}

func TestOpenVolumeSetErrors(t *testing.T) {
	_, err := OpenVolumeSet(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidVolume)

	_, err = OpenVolumeSet([]string{filepath.Join(t.TempDir(), "missing.img")}, nil)
	assert.Error(t, err)

	_, err = OpenVolumeSet([]string{t.TempDir()}, nil)
	assert.ErrorIs(t, err, ErrInvalidVolume)
}

func TestVolumeSetRejectsDuplicatePath(t *testing.T) {
	sample, err := imagebuilder.NewSample(imagebuilder.DefaultSampleSize)
	require.NoError(t, err)
	b := sample.Builder

	vs := NewVolumeSet(nil)
	require.NoError(t, vs.AddDevice("a.img", b, b.Size()))
	err = vs.AddDevice("a.img", b, b.Size())
	assert.ErrorIs(t, err, ErrInvalidVolume)
	assert.Contains(t, err.Error(), "specified more than once")
}

func TestVolumeSetMultiVolume(t *testing.T) {
	b0, b1 := twoVolumes(t)

	vs := NewVolumeSet(nil)
	// Volumes may be given in any order.
	require.NoError(t, vs.AddDevice("vol1.img", b1, b1.Size()))
	require.NoError(t, vs.AddDevice("vol0.img", b0, b0.Size()))
	require.NoError(t, vs.Verify())

	assert.Equal(t, gib+16*mib, vs.TotalSize())
	assert.Equal(t, "vol0.img", vs.Volumes()[0].Path)

	tests := []struct {
		name   string
		offset uint64
		want   string
	}{
		{name: "start of volume 0", offset: 0, want: "vol0.img"},
		{name: "radix bits ignored", offset: (gib - 1024) | 10, want: "vol0.img"},
		{name: "start of volume 1", offset: gib, want: "vol1.img"},
		{name: "end of volume 1", offset: gib + 16*mib - 1, want: "vol1.img"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol, err := vs.Resolve(tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, vol.Path)
		})
	}

	_, err := vs.Resolve(gib + 16*mib)
	assert.ErrorIs(t, err, ErrNoSuchVolume)
}

func TestVolumeSetVerifyFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h0, h1 *types.VolumeData)
		message string
	}{
		{
			name:    "fsid mismatch",
			mutate:  func(_, h1 *types.VolumeData) { h1.FSID[0] ^= 0xFF },
			message: "fsid UUID mismatch",
		},
		{
			name:    "volume count mismatch",
			mutate:  func(_, h1 *types.VolumeData) { h1.NVolumes = 3 },
			message: "volume count mismatch",
		},
		{
			name:    "total size",
			mutate:  func(h0, h1 *types.VolumeData) { h0.TotalSize, h1.TotalSize = gib, gib },
			message: "does not equal sum of volumes",
		},
		{
			name:    "inconsistent offset",
			mutate:  func(h0, h1 *types.VolumeData) { h0.VoluLoff[1], h1.VoluLoff[1] = gib*2, gib*2 },
			message: "inconsistent offset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b0 := imagebuilder.New(gib)
			b1 := imagebuilder.New(16 * mib)
			h0 := b0.Header(1)
			h0.NVolumes = 2
			h0.TotalSize = gib + 16*mib
			h0.VoluLoff[1] = gib
			h1 := *h0
			h1.VoluID = 1
			h1.VoluSize = 16 * mib
			tt.mutate(h0, &h1)
			require.NoError(t, b0.WriteHeader(0, h0))
			require.NoError(t, b1.WriteHeader(0, &h1))

			vs := NewVolumeSet(nil)
			err := vs.AddDevice("vol0.img", b0, b0.Size())
			if err == nil {
				err = vs.AddDevice("vol1.img", b1, b1.Size())
			}
			if err == nil {
				err = vs.Verify()
			}
			require.ErrorIs(t, err, ErrInvalidVolume)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestVolumeSetMissingRoot(t *testing.T) {
	_, b1 := twoVolumes(t)
	vs := NewVolumeSet(nil)
	require.NoError(t, vs.AddDevice("vol1.img", b1, b1.Size()))

	err := vs.Verify()
	require.ErrorIs(t, err, ErrInvalidVolume)
	assert.Contains(t, err.Error(), "root volume 0 not present")
}
