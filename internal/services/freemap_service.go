package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// FreemapZone summarizes one header zone seen by a freemap scan.
type FreemapZone struct {
	Zone      int    `json:"zone" yaml:"zone"`
	MirrorTID uint64 `json:"mirror_tid" yaml:"mirror_tid"`
	Scanned   bool   `json:"scanned" yaml:"scanned"`
}

// Summary renders the zone the way the freemap listing does.
func (z *FreemapZone) Summary() string {
	return fmt.Sprintf("Volume %d header %d: mirror_tid=%016x", types.RootVolume, z.Zone, z.MirrorTID)
}

// FreemapReport is the result of a freemap scan.
type FreemapReport struct {
	Path  string        `json:"path" yaml:"path"`
	Zones []FreemapZone `json:"zones" yaml:"zones"`
	Stats FreemapStats  `json:"stats" yaml:"stats"`
	// Walks holds the tree statistics of every scanned zone.
	Walks []*WalkStats `json:"-" yaml:"-"`
}

// FreemapService computes allocation totals from the freemap tree.
type FreemapService struct {
	set   *VolumeSet
	media *MediaReader
	opts  WalkOptions
	log   *zap.Logger
}

// NewFreemapService creates a freemap scanner for an opened volume set.
func NewFreemapService(set *VolumeSet, opts WalkOptions, log *zap.Logger) *FreemapService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FreemapService{set: set, media: NewMediaReader(set), opts: opts, log: log}
}

// Scan walks the freemap of the best zone, or of every zone when allZones is
// set, and accumulates the allocation state of each leaf.
func (s *FreemapService) Scan(ctx context.Context, allZones bool) (*FreemapReport, error) {
	root := s.set.RootVolume()
	if root == nil {
		return nil, ErrNoRootVolume
	}
	report := &FreemapReport{Path: root.Path}
	acc := NewFreemapAccumulator(root.Header.AuxEnd, s.set.TotalSize())
	w := NewTreeWalker(s.media, s.opts, s.log).WithFreemapSink(acc)

	var first error
	for i := 0; i < volumes.ZoneCount(root.Size); i++ {
		zr := volumes.ReadZone(root.Device, i)
		zone := FreemapZone{Zone: i}
		if zr.Header != nil {
			zone.MirrorTID = zr.Header.MirrorTID
		}
		if allZones || i == root.BestZone {
			if zr.Header == nil {
				s.log.Warn("skipping unreadable zone", zap.Int("zone", i), zap.Error(zr.Err))
			} else {
				acc.auxEnd = zr.Header.AuxEnd
				broot := RootBlockref(i, types.BlockrefTypeFreemap)
				broot.MirrorTID = zr.Header.MirrorTID
				stats := NewWalkStats(types.BlockrefTypeFreemap)
				err := w.Walk(ctx, &broot, stats)
				report.Walks = append(report.Walks, stats)
				zone.Scanned = true
				if err != nil && first == nil {
					first = err
				}
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
			}
		}
		report.Zones = append(report.Zones, zone)
	}
	report.Stats = acc.Stats()
	if first != nil && !errors.Is(first, ErrSubtreeFailed) {
		return report, first
	}
	return report, nil
}
