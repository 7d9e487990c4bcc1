package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

func TestFreemapServiceScan(t *testing.T) {
	_, vs := openSample(t)

	report, err := NewFreemapService(vs, WalkOptions{}, nil).Scan(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "sample.img", report.Path)
	require.Len(t, report.Zones, 1)
	assert.True(t, report.Zones[0].Scanned)
	assert.Equal(t, "Volume 0 header 0: mirror_tid=0000000000000001", report.Zones[0].Summary())

	s := report.Stats
	assert.Equal(t, uint64(1), s.Leaves)
	assert.Equal(t, types.FreemapLevel1Size, s.Freemap)
	// Entry 0 is below aux_end, entries past 16 MiB are beyond the volume.
	assert.Equal(t, uint64(253)*types.FreemapLevel0Size, s.Unavail)

	var sum uint64
	for _, v := range s.Accum16 {
		sum += v
	}
	assert.Equal(t, 3*types.FreemapLevel0Size, sum)
	assert.NotZero(t, s.Accum16[types.BmapStateAllocated])
	assert.NotZero(t, s.Accum16[types.BmapStateFree])

	require.Len(t, report.Walks, 1)
	assert.Equal(t, uint64(1), report.Walks[0].FreemapLeaf)
}

func TestFreemapServiceCountsCorruptLeaf(t *testing.T) {
	sample, vs := openSample(t)
	sample.Builder.Corrupt(sample.FreemapLeaf.Offset() + 0x48)

	report, err := NewFreemapService(vs, WalkOptions{}, nil).Scan(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), report.Stats.Leaves)
	assert.Equal(t, 1, report.Walks[0].Diagnostics.Len())
}
