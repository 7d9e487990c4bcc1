package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var (
	// ErrVolumeHeaderDamaged is returned when a header copy fails its magic or CRC checks.
	ErrVolumeHeaderDamaged = errors.New("volume header damaged")
	// ErrPFSNotFound is returned when no PFS matched the requested names.
	ErrPFSNotFound = errors.New("PFS not found")
	// ErrNoRootVolume is returned when the volume set has no volume 0.
	ErrNoRootVolume = errors.New("no root volume")
)

// Pass names, in the order fsck runs them.
const (
	PassVolumeHeader = "volume header"
	PassFreemap      = "freemap"
	PassVolume       = "volume"
)

// FsckOptions configure a verification run.
type FsckOptions struct {
	WalkOptions
	// ScanBest restricts every pass to the best header zone.
	ScanBest bool
	// ScanPFS walks each PFS separately instead of the whole volume tree.
	ScanPFS bool
	// PrintPFS lists PFSs instead of verifying anything.
	PrintPFS bool
	// PFSNames restricts PFS passes to the named PFSs.
	PFSNames []string
	// ResetCachePerZone gives each zone a cold subtree cache.
	ResetCachePerZone bool
	// CacheSize bounds the number of cached offsets.
	CacheSize int
}

// ZoneResult is the outcome of one pass over one header zone, or over one
// PFS within a zone.
type ZoneResult struct {
	Zone int `json:"zone" yaml:"zone"`
	// Offset is the data_off of the synthetic root blockref.
	Offset uint64 `json:"offset" yaml:"offset"`
	// Best marks the selected zone when all zones are scanned.
	Best bool `json:"best" yaml:"best"`
	// Exceeds marks a zone beyond the end of the root volume.
	Exceeds  bool       `json:"exceeds,omitempty" yaml:"exceeds,omitempty"`
	Problems []string   `json:"problems,omitempty" yaml:"problems,omitempty"`
	Stats    *WalkStats `json:"-" yaml:"-"`
	PFSList  []PFSEntry `json:"-" yaml:"-"`
	PFSWalks []PFSWalk  `json:"-" yaml:"-"`
	Err      error      `json:"-" yaml:"-"`
}

// PFSWalk is the verification of one PFS tree.
type PFSWalk struct {
	Name  string
	Stats *WalkStats
	Err   error
}

// Heading renders the zone line printed before its results.
func (z *ZoneResult) Heading() string {
	if z.Exceeds {
		return fmt.Sprintf("zone.%d exceeds volume size", z.Zone)
	}
	best := ""
	if z.Best {
		best = " (best)"
	}
	return fmt.Sprintf("zone.%d %016x%s", z.Zone, z.Offset, best)
}

// PassResult collects the zone results of one pass.
type PassResult struct {
	Name  string             `json:"name" yaml:"name"`
	Zones []ZoneResult       `json:"zones" yaml:"zones"`
	Cache *SubtreeCacheStats `json:"cache,omitempty" yaml:"cache,omitempty"`
	// Err is the first failure of the pass.
	Err error `json:"-" yaml:"-"`
}

func (p *PassResult) record(err error) {
	if err != nil && p.Err == nil {
		p.Err = err
	}
}

// FsckReport is the outcome of a full run.
type FsckReport struct {
	BestZone int          `json:"best_zone" yaml:"best_zone"`
	Passes   []PassResult `json:"passes" yaml:"passes"`
}

// Failed reports whether any pass recorded a failure.
func (r *FsckReport) Failed() bool {
	for i := range r.Passes {
		if r.Passes[i].Err != nil {
			return true
		}
	}
	return false
}

// FsckService runs the verification passes over a volume set.
type FsckService struct {
	set   *VolumeSet
	media *MediaReader
	opts  FsckOptions
	log   *zap.Logger

	// OnProgress, when set, receives periodic walk statistics.
	OnProgress func(pass string, stats *WalkStats)
}

// NewFsckService creates a verifier for an opened volume set.
func NewFsckService(set *VolumeSet, opts FsckOptions, log *zap.Logger) *FsckService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FsckService{set: set, media: NewMediaReader(set), opts: opts, log: log}
}

// RootBlockref returns the synthetic root blockref of a FREEMAP, VOLUME or
// EMPTY scan of zone i.
func RootBlockref(zone int, typ types.BlockrefType) types.Blockref {
	return types.Blockref{
		Type:    typ,
		DataOff: volumes.ZoneOffset(zone) | uint64(types.PBufRadix),
	}
}

// Run executes the volume header, freemap and volume passes in order. Integrity
// problems are recorded and the run continues; read failures abort unless
// Force is set. The returned error is the first failure of the run.
func (s *FsckService) Run(ctx context.Context) (*FsckReport, error) {
	root := s.set.RootVolume()
	if root == nil {
		return nil, ErrNoRootVolume
	}
	report := &FsckReport{BestZone: root.BestZone}

	if s.opts.PrintPFS {
		pass := s.VerifyPFS(ctx)
		report.Passes = append(report.Passes, pass)
		return report, pass.Err
	}

	var first error
	passes := []func(context.Context) PassResult{
		s.VerifyVolumeHeaders,
		func(ctx context.Context) PassResult { return s.VerifyTree(ctx, types.BlockrefTypeFreemap) },
		func(ctx context.Context) PassResult {
			if s.opts.ScanPFS {
				return s.VerifyPFS(ctx)
			}
			return s.VerifyTree(ctx, types.BlockrefTypeVolume)
		},
	}
	for _, run := range passes {
		pass := run(ctx)
		report.Passes = append(report.Passes, pass)
		if pass.Err == nil {
			continue
		}
		if first == nil {
			first = fmt.Errorf("%s: %w", pass.Name, pass.Err)
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !s.opts.Force && !isIntegrityFailure(pass.Err) {
			s.log.Warn("fsck aborted", zap.String("pass", pass.Name), zap.Error(pass.Err))
			return report, first
		}
	}
	return report, first
}

// isIntegrityFailure reports whether err only means problems were recorded.
func isIntegrityFailure(err error) bool {
	return errors.Is(err, ErrSubtreeFailed) ||
		errors.Is(err, ErrVolumeHeaderDamaged) ||
		errors.Is(err, ErrPFSNotFound)
}

// zones calls fn for each zone of the root volume selected by the options.
func (s *FsckService) zones(pass *PassResult, fn func(zone int, result *ZoneResult)) {
	root := s.set.RootVolume()
	for i := 0; i < types.NumVolHdrs; i++ {
		if s.opts.ScanBest && i != root.BestZone {
			continue
		}
		result := ZoneResult{Zone: i, Best: !s.opts.ScanBest && i == root.BestZone}
		if volumes.ZoneOffset(i) >= root.Size {
			result.Exceeds = true
			pass.Zones = append(pass.Zones, result)
			break
		}
		fn(i, &result)
		pass.record(result.Err)
		pass.Zones = append(pass.Zones, result)
	}
}

// VerifyVolumeHeaders checks the magic and CRCs of each header copy.
func (s *FsckService) VerifyVolumeHeaders(ctx context.Context) PassResult {
	pass := PassResult{Name: PassVolumeHeader}
	root := s.set.RootVolume()
	s.zones(&pass, func(zone int, result *ZoneResult) {
		result.Offset = RootBlockref(zone, types.BlockrefTypeEmpty).DataOff
		if err := ctx.Err(); err != nil {
			result.Err = err
			return
		}
		report := volumes.ReadZone(root.Device, zone)
		if report.Err != nil && report.Header == nil &&
			!errors.Is(report.Err, volumes.ErrBadMagic) && !errors.Is(report.Err, volumes.ErrReverseEndian) {
			result.Problems = []string{report.Err.Error()}
			result.Err = report.Err
			return
		}
		result.Problems = report.Problems()
		if len(result.Problems) > 0 {
			result.Err = fmt.Errorf("zone %d: %w", zone, ErrVolumeHeaderDamaged)
		}
		s.log.Debug("volume header checked", zap.Int("zone", zone), zap.Strings("problems", result.Problems))
	})
	return pass
}

// newCache creates the subtree cache for one pass, or nil when caching is off.
func (s *FsckService) newCache() *SubtreeCache {
	if s.opts.CacheThreshold <= 0 {
		return nil
	}
	cache, err := NewSubtreeCache(s.opts.CacheSize)
	if err != nil {
		s.log.Warn("subtree cache disabled", zap.Error(err))
		return nil
	}
	return cache
}

func (s *FsckService) walker(pass string, cache *SubtreeCache) *TreeWalker {
	w := NewTreeWalker(s.media, s.opts.WalkOptions, s.log.With(zap.String("pass", pass)))
	if cache != nil {
		w.WithCache(cache)
	}
	if s.OnProgress != nil {
		w.OnProgress = func(stats *WalkStats) { s.OnProgress(pass, stats) }
	}
	return w
}

func cacheStats(cache *SubtreeCache) *SubtreeCacheStats {
	if cache == nil {
		return nil
	}
	stats := cache.Stats()
	return &stats
}

// VerifyTree walks the FREEMAP or VOLUME tree of each zone.
func (s *FsckService) VerifyTree(ctx context.Context, typ types.BlockrefType) PassResult {
	name := PassVolume
	if typ == types.BlockrefTypeFreemap {
		name = PassFreemap
	}
	pass := PassResult{Name: name}
	cache := s.newCache()
	w := s.walker(name, cache)

	s.zones(&pass, func(zone int, result *ZoneResult) {
		if cache != nil && s.opts.ResetCachePerZone {
			cache.Reset()
		}
		broot := RootBlockref(zone, typ)
		result.Offset = broot.DataOff
		result.Stats = NewWalkStats(typ)
		result.Err = w.Walk(ctx, &broot, result.Stats)
	})
	pass.Cache = cacheStats(cache)
	return pass
}

// VerifyPFS walks each PFS of each zone, or only lists them when PrintPFS is set.
func (s *FsckService) VerifyPFS(ctx context.Context) PassResult {
	pass := PassResult{Name: PassVolume}
	cache := s.newCache()
	w := s.walker(PassVolume, cache)
	scanner := NewPFSScanner(s.media, s.log)

	s.zones(&pass, func(zone int, result *ZoneResult) {
		if cache != nil && s.opts.ResetCachePerZone {
			cache.Reset()
		}
		broot := RootBlockref(zone, types.BlockrefTypeVolume)
		result.Offset = broot.DataOff

		entries, err := scanner.Scan(ctx, &broot)
		if err != nil {
			result.Problems = []string{fmt.Sprintf("Failed to read PFS blockref: %v", err)}
			result.Err = err
			return
		}
		if len(entries) == 0 {
			result.Problems = []string{"Failed to find PFS blockref"}
			result.Err = fmt.Errorf("zone %d: %w", zone, ErrSubtreeFailed)
			return
		}
		entries = FilterPFS(entries, s.opts.PFSNames)
		if len(s.opts.PFSNames) > 0 && len(entries) == 0 {
			result.Problems = []string{"PFS not found"}
			result.Err = fmt.Errorf("zone %d: %w", zone, ErrPFSNotFound)
			return
		}
		result.PFSList = entries
		if s.opts.PrintPFS {
			return
		}

		for i := range entries {
			walk := PFSWalk{Name: entries[i].Name(), Stats: NewWalkStats(types.BlockrefTypeVolume)}
			walk.Err = w.Walk(ctx, &entries[i].Blockref, walk.Stats)
			if walk.Err != nil && result.Err == nil {
				result.Err = walk.Err
			}
			result.PFSWalks = append(result.PFSWalks, walk)
			if ctx.Err() != nil {
				break
			}
		}
	})
	pass.Cache = cacheStats(cache)
	return pass
}

// DescribeMedia re-reads the block of a blockref and describes its content.
func (s *FsckService) DescribeMedia(bref *types.Blockref) ([]string, error) {
	media, err := s.media.ReadMedia(bref.DataOff)
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	return FormatMedia(bref, media), nil
}
