package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

func TestSubtreeCacheRequiresIdenticalBlockref(t *testing.T) {
	cache, err := NewSubtreeCache(16)
	require.NoError(t, err)

	bref := types.Blockref{Type: types.BlockrefTypeIndirect, DataOff: 0x40000a, MirrorTID: 5}
	delta := subtreeDelta{Counters: Counters{TotalBlockref: 4, Data: 3, Indirect: 1}, count: 4}
	cache.store(&bref, delta)

	got, ok := cache.lookup(&bref)
	require.True(t, ok)
	assert.Equal(t, delta, got)

	changed := bref
	changed.MirrorTID = 6
	_, ok = cache.lookup(&changed)
	assert.False(t, ok, "same offset with different content must miss")

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Offsets)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Adds)
}

func TestSubtreeCacheHoldsSeveralBlockrefsPerOffset(t *testing.T) {
	cache, err := NewSubtreeCache(16)
	require.NoError(t, err)

	a := types.Blockref{Type: types.BlockrefTypeInode, DataOff: 0x40000a, ModifyTID: 1}
	b := a
	b.ModifyTID = 2
	cache.store(&a, subtreeDelta{count: 1})
	cache.store(&b, subtreeDelta{count: 2})
	cache.store(&b, subtreeDelta{count: 3})

	got, ok := cache.lookup(&a)
	require.True(t, ok)
	assert.Equal(t, 1, got.count)
	got, ok = cache.lookup(&b)
	require.True(t, ok)
	assert.Equal(t, 2, got.count, "first stored delta wins")
	assert.Equal(t, uint64(2), cache.Stats().Adds)
}

func TestSubtreeCacheReset(t *testing.T) {
	cache, err := NewSubtreeCache(0)
	require.NoError(t, err)

	bref := types.Blockref{Type: types.BlockrefTypeData, DataOff: 0x40000c}
	cache.store(&bref, subtreeDelta{count: 1})
	cache.Reset()

	_, ok := cache.lookup(&bref)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Offsets)
}

func TestSubtreeCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewSubtreeCache(2)
	require.NoError(t, err)

	brefs := []types.Blockref{
		{Type: types.BlockrefTypeData, DataOff: 0x40000a},
		{Type: types.BlockrefTypeData, DataOff: 0x40040a},
		{Type: types.BlockrefTypeData, DataOff: 0x40080a},
	}
	for i := range brefs {
		cache.store(&brefs[i], subtreeDelta{count: i + 1})
	}

	_, ok := cache.lookup(&brefs[0])
	assert.False(t, ok)
	_, ok = cache.lookup(&brefs[2])
	assert.True(t, ok)
}
