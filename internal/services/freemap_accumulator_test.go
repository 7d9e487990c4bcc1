package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

const mib = 1024 * 1024

func TestFreemapAccumulatorAllZeroLeaf(t *testing.T) {
	// Entries 1..3 fall between aux_end and the end of a 16 MiB volume.
	acc := NewFreemapAccumulator(4*mib, 16*mib)
	leaf := &types.Blockref{Type: types.BlockrefTypeFreemapLeaf, Key: 0}
	acc.AddLeaf(leaf, make([]types.BmapData, types.FreemapCount))

	s := acc.Stats()
	assert.Equal(t, uint64(3*4*mib), s.Accum16[types.BmapStateFree])
	assert.Equal(t, uint64(3*4*mib), s.Accum64[types.BmapStateFree])
	assert.Zero(t, s.Accum16[types.BmapStateAllocated])
	assert.Equal(t, uint64(253*4*mib), s.Unavail)
	assert.Equal(t, types.FreemapLevel1Size, s.Freemap)
	assert.Equal(t, uint64(1), s.Leaves)
}

func TestFreemapAccumulatorGranuleStates(t *testing.T) {
	acc := NewFreemapAccumulator(0, types.FreemapLevel1Size)
	entries := make([]types.BmapData, types.FreemapCount)
	// First 64 KiB chunk allocated, next chunk mixed.
	entries[0].Bitmapq[0] = 0xFF | 0x3<<8 | 0x2<<10

	acc.AddLeaf(&types.Blockref{Type: types.BlockrefTypeFreemapLeaf}, entries)
	s := acc.Stats()

	assert.Equal(t, uint64(5*16384), s.Accum16[types.BmapStateAllocated])
	assert.Equal(t, uint64(65536), s.Accum64[types.BmapStateAllocated])
	assert.Equal(t, uint64(16384), s.Accum16[types.BmapStatePossiblyFree])
	assert.Zero(t, s.Accum64[types.BmapStatePossiblyFree])
	assert.Zero(t, s.Unavail)
}

func TestFreemapAccumulatorSumInvariant(t *testing.T) {
	acc := NewFreemapAccumulator(4*mib, 512*mib)
	entries := make([]types.BmapData, types.FreemapCount)
	for i := range entries {
		for w := range entries[i].Bitmapq {
			entries[i].Bitmapq[w] = uint64(i*7919+w*104729) * 0x9E3779B97F4A7C15
		}
	}
	acc.AddLeaf(&types.Blockref{Type: types.BlockrefTypeFreemapLeaf}, entries)
	acc.AddLeaf(&types.Blockref{Type: types.BlockrefTypeFreemapLeaf, Key: types.FreemapLevel1Size}, entries)

	s := acc.Stats()
	var sum uint64
	for _, v := range s.Accum16 {
		sum += v
	}
	assert.Equal(t, s.Freemap, sum+s.Unavail, "every granule is counted once")
	assert.Equal(t, 2*types.FreemapLevel1Size, s.Freemap)
	for state := range s.Accum64 {
		assert.LessOrEqual(t, s.Accum64[state], s.Accum16[state])
	}
}

func TestFreemapStatsReport(t *testing.T) {
	s := FreemapStats{Freemap: types.FreemapLevel1Size, Unavail: 512 * mib}
	s.Accum16[types.BmapStateFree] = 256 * mib

	lines := s.Report()
	require.Len(t, lines, 5)
	assert.Equal(t, "Total unallocated storage:    0.250GB ( 0.000GB in 64KB chunks)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Total possibly free storage:"))
	assert.True(t, strings.HasPrefix(lines[2], "Total allocated storage:"))
	assert.Equal(t, "Total unavailable storage:    0.500GB", lines[3])
	assert.Equal(t, "Total freemap storage:        1.000GB", lines[4])
}
