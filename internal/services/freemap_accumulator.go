package services

import (
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

const (
	granule16Bytes = 16384
	granule64Bytes = 65536
	gigabyte       = float64(1 << 30)
)

// FreemapStats are the storage totals computed from freemap leaves, in bytes.
type FreemapStats struct {
	// Accum16 is indexed by allocation state and counts 16 KiB granules.
	Accum16 [4]uint64 `json:"accum16" yaml:"accum16"`
	// Accum64 is indexed by allocation state and counts 64 KiB chunks whose
	// four granules share that state.
	Accum64 [4]uint64 `json:"accum64" yaml:"accum64"`
	// Unavail covers level-0 ranges below aux_end or beyond the address space.
	Unavail uint64 `json:"unavail" yaml:"unavail"`
	// Freemap is the address space described by the leaves seen.
	Freemap uint64 `json:"freemap" yaml:"freemap"`
	Leaves  uint64 `json:"leaves" yaml:"leaves"`
}

// FreemapAccumulator tallies allocation states of freemap leaves. It
// implements FreemapSink.
type FreemapAccumulator struct {
	auxEnd    uint64
	totalSize uint64
	stats     FreemapStats
}

// NewFreemapAccumulator creates an accumulator for a volume set whose
// allocatable space starts at auxEnd and ends at totalSize.
func NewFreemapAccumulator(auxEnd, totalSize uint64) *FreemapAccumulator {
	return &FreemapAccumulator{auxEnd: auxEnd, totalSize: totalSize}
}

// AddLeaf accounts every bitmap entry of a freemap leaf.
func (a *FreemapAccumulator) AddLeaf(bref *types.Blockref, entries []types.BmapData) {
	for i := range entries {
		dataOff := bref.Key + uint64(i)*types.FreemapLevel0Size
		if dataOff >= a.auxEnd && dataOff < a.totalSize {
			for state := uint64(0); state < 4; state++ {
				a.countBlocks(&entries[i], state)
			}
		} else {
			a.stats.Unavail += types.FreemapLevel0Size
		}
	}
	a.stats.Freemap += types.FreemapLevel1Size
	a.stats.Leaves++
}

func (a *FreemapAccumulator) countBlocks(bmap *types.BmapData, state uint64) {
	state64 := state<<6 | state<<4 | state<<2 | state
	for _, word := range bmap.Bitmapq {
		bm := word
		for j := 0; j < 64; j += 2 {
			if bm&0x03 == state {
				a.stats.Accum16[state] += granule16Bytes
			}
			bm >>= 2
		}
		bm = word
		for j := 0; j < 64; j += 8 {
			if bm&0xff == state64 {
				a.stats.Accum64[state] += granule64Bytes
			}
			bm >>= 8
		}
	}
}

// Stats returns the totals accumulated so far.
func (a *FreemapAccumulator) Stats() FreemapStats {
	return a.stats
}

// Report renders the totals, one line per category.
func (s *FreemapStats) Report() []string {
	return []string{
		fmt.Sprintf("Total unallocated storage:   %6.3fGB (%6.3fGB in 64KB chunks)",
			float64(s.Accum16[types.BmapStateFree])/gigabyte, float64(s.Accum64[types.BmapStateFree])/gigabyte),
		fmt.Sprintf("Total possibly free storage: %6.3fGB (%6.3fGB in 64KB chunks)",
			float64(s.Accum16[types.BmapStatePossiblyFree])/gigabyte, float64(s.Accum64[types.BmapStatePossiblyFree])/gigabyte),
		fmt.Sprintf("Total allocated storage:     %6.3fGB (%6.3fGB in 64KB chunks)",
			float64(s.Accum16[types.BmapStateAllocated])/gigabyte, float64(s.Accum64[types.BmapStateAllocated])/gigabyte),
		fmt.Sprintf("Total unavailable storage:   %6.3fGB", float64(s.Unavail)/gigabyte),
		fmt.Sprintf("Total freemap storage:       %6.3fGB", float64(s.Freemap)/gigabyte),
	}
}
