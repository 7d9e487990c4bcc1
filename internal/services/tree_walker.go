package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-hammer2/internal/interfaces"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/freemap"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/inodes"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// ErrSubtreeFailed is returned when a node or one of its descendants failed
// verification. The walk itself continued past the failure.
var ErrSubtreeFailed = errors.New("subtree verification failed")

// progressInterval is the number of counted blockrefs between progress callbacks.
const progressInterval = 100

// WalkOptions tune a tree walk.
type WalkOptions struct {
	// Strict fails blocks whose check algorithm is none or disabled.
	Strict bool
	// Force disables pruning below failed nodes.
	Force bool
	// CountEmpty counts EMPTY blockrefs.
	CountEmpty bool
	// VerifyData decompresses compressed DATA blocks.
	VerifyData bool
	// MaxDepth limits how deep below the root the walk descends. Zero or
	// negative is unlimited.
	MaxDepth int
	// MinMirrorTID skips blockrefs last synchronized before this TID.
	MinMirrorTID uint64
	// MinModifyTID skips blockrefs last modified before this TID.
	MinModifyTID uint64
	// CacheThreshold is the number of verified nodes a subtree must hold
	// before it is cached. Zero disables the cache.
	CacheThreshold int
}

// FreemapSink receives every freemap leaf the walker reads.
type FreemapSink interface {
	AddLeaf(bref *types.Blockref, entries []types.BmapData)
}

// TreeWalker verifies a block tree depth-first from a root blockref.
type TreeWalker struct {
	media    interfaces.MediaReader
	verifier interfaces.ChecksumVerifier
	decomp   interfaces.Decompressor
	cache    *SubtreeCache
	sink     FreemapSink
	opts     WalkOptions
	log      *zap.Logger

	// OnProgress, when set, is called every progressInterval counted blockrefs.
	OnProgress func(stats *WalkStats)
}

// NewTreeWalker creates a walker reading through media.
func NewTreeWalker(media interfaces.MediaReader, opts WalkOptions, log *zap.Logger) *TreeWalker {
	if log == nil {
		log = zap.NewNop()
	}
	return &TreeWalker{
		media:    media,
		verifier: checksums.NewChecksumVerifier(opts.Strict),
		decomp:   NewCompressionService(),
		opts:     opts,
		log:      log,
	}
}

// WithCache attaches a subtree cache. The cache may be shared between walkers.
func (w *TreeWalker) WithCache(cache *SubtreeCache) *TreeWalker {
	w.cache = cache
	return w
}

// WithFreemapSink attaches a freemap leaf consumer. While a sink is attached
// the subtree cache is bypassed so every leaf is read.
func (w *TreeWalker) WithFreemapSink(sink FreemapSink) *TreeWalker {
	w.sink = sink
	return w
}

// Options returns the options of the walker.
func (w *TreeWalker) Options() WalkOptions {
	return w.opts
}

// walkState is the per-walk mutable state.
type walkState struct {
	stats *WalkStats
	path  map[uint64]struct{}
}

// Walk verifies the tree rooted at root, accumulating into stats. A returned
// error wrapping ErrSubtreeFailed means diagnostics were recorded; any other
// error means the root could not be read or ctx was cancelled.
func (w *TreeWalker) Walk(ctx context.Context, root *types.Blockref, stats *WalkStats) error {
	st := &walkState{stats: stats, path: make(map[uint64]struct{})}
	w.log.Debug("walk start",
		zap.Stringer("type", root.Type),
		zap.Uint64("data_off", root.DataOff))

	_, err := w.visit(ctx, st, root, false, 0)

	w.log.Debug("walk done",
		zap.Stringer("type", root.Type),
		zap.Uint64("blockrefs", stats.TotalBlockref),
		zap.Int("diagnostics", stats.Diagnostics.Len()),
		zap.Error(err))
	return err
}

func (w *TreeWalker) cacheEnabled() bool {
	return w.cache != nil && w.sink == nil && w.opts.CacheThreshold > 0
}

// fail records a diagnostic against bref.
func (w *TreeWalker) fail(st *walkState, bref *types.Blockref, kind DiagnosticKind, msg string) {
	st.stats.Diagnostics.Add(bref, kind, msg)
	w.log.Debug(msg,
		zap.Stringer("type", bref.Type),
		zap.String("data_off", fmt.Sprintf("%016x", bref.DataOff)),
		zap.String("key", fmt.Sprintf("%016x/%d", bref.Key, bref.Keybits)),
		zap.String("kind", string(kind)))
}

// classify counts bref by type and reports whether the type is valid.
func (w *TreeWalker) classify(st *walkState, delta *subtreeDelta, bref *types.Blockref) bool {
	shared := &st.stats.Counters
	shared.TotalBlockref++
	delta.TotalBlockref++

	switch bref.Type {
	case types.BlockrefTypeEmpty:
		if w.opts.CountEmpty {
			shared.TotalEmpty++
			delta.TotalEmpty++
		} else {
			shared.TotalBlockref--
			delta.TotalBlockref--
		}
	case types.BlockrefTypeInode:
		shared.Inode++
		delta.Inode++
	case types.BlockrefTypeIndirect:
		shared.Indirect++
		delta.Indirect++
	case types.BlockrefTypeData:
		shared.Data++
		delta.Data++
	case types.BlockrefTypeDirent:
		shared.Dirent++
		delta.Dirent++
	case types.BlockrefTypeFreemapNode:
		shared.FreemapNode++
		delta.FreemapNode++
	case types.BlockrefTypeFreemapLeaf:
		shared.FreemapLeaf++
		delta.FreemapLeaf++
	case types.BlockrefTypeFreemap, types.BlockrefTypeVolume:
		shared.TotalBlockref--
		delta.TotalBlockref--
	default:
		return false
	}

	if w.OnProgress != nil && delta.TotalBlockref > 0 && shared.TotalBlockref%progressInterval == 0 {
		w.OnProgress(st.stats)
	}
	return true
}

// skip reports whether a child is excluded by the TID filters.
func (w *TreeWalker) skip(bref *types.Blockref) bool {
	if bref.Type.IsPseudo() {
		return false
	}
	if bref.MirrorTID < w.opts.MinMirrorTID {
		return true
	}
	if bref.ModifyTID < w.opts.MinModifyTID &&
		(bref.ModifyTID != 0 || (bref.Type == types.BlockrefTypeInode && bref.LeafCount == 0)) {
		return true
	}
	return false
}

func (w *TreeWalker) visit(ctx context.Context, st *walkState, bref *types.Blockref, norecurse bool, depth int) (subtreeDelta, error) {
	var delta subtreeDelta
	if err := ctx.Err(); err != nil {
		return delta, err
	}

	if bref.DataOff != 0 && w.cacheEnabled() {
		if cached, ok := w.cache.lookup(bref); ok {
			delta.add(&cached)
			st.stats.Counters.Add(&cached.Counters)
			st.stats.CacheHits++
			w.log.Debug("cache-hit", zap.String("data_off", fmt.Sprintf("%016x", bref.DataOff)))
			return delta, nil
		}
	}

	if !w.classify(st, &delta, bref) {
		w.fail(st, bref, DiagnosticDecode, fmt.Sprintf("Invalid blockref type %d", uint8(bref.Type)))
		return delta, fmt.Errorf("blockref at 0x%016x: %w", bref.DataOff, ErrSubtreeFailed)
	}

	if bref.HasMedia() {
		if _, seen := st.path[bref.DataOff]; seen {
			w.fail(st, bref, DiagnosticDecode, "Blockref cycle detected")
			return delta, fmt.Errorf("blockref at 0x%016x: %w", bref.DataOff, ErrSubtreeFailed)
		}
		st.path[bref.DataOff] = struct{}{}
		defer delete(st.path, bref.DataOff)
	}

	media, err := w.media.ReadMedia(bref.DataOff)
	if err != nil {
		if IsAddressingError(err) {
			w.fail(st, bref, DiagnosticAddressing, "Bad I/O bytes")
		} else {
			w.fail(st, bref, DiagnosticIO, "Failed to read media")
		}
		return delta, fmt.Errorf("read %s: %w", bref.Type, err)
	}

	bytes := uint64(len(media))
	if !bref.Type.IsPseudo() {
		st.stats.TotalBytes += bytes
		delta.TotalBytes += bytes
	}

	failed := false
	if bytes != 0 {
		ok, err := w.verifier.Verify(bref, media)
		switch {
		case err != nil:
			w.fail(st, bref, DiagnosticUnsupported,
				fmt.Sprintf("Unsupported check algorithm %d", uint8(bref.CheckAlgo())))
			return delta, fmt.Errorf("blockref at 0x%016x: %w", bref.DataOff, errors.Join(err, ErrSubtreeFailed))
		case !ok:
			w.fail(st, bref, DiagnosticIntegrity, "Bad "+bref.CheckAlgo().DiagnosticName())
			failed = true
		}

		if !failed && w.opts.VerifyData && bref.Type == types.BlockrefTypeData && bref.CompAlgo() != types.CompNone {
			if _, err := w.decomp.Decompress(bref, media); err != nil {
				w.fail(st, bref, DiagnosticDecode, "Failed to decompress")
				failed = true
			}
		}

		children, msg, err := w.children(bref, media)
		if err != nil {
			w.log.Debug("child decode failed", zap.Error(err))
			w.fail(st, bref, DiagnosticDecode, msg)
			failed = true
		}

		if w.opts.Force {
			norecurse = false
		}
		descend := !norecurse && (w.opts.MaxDepth <= 0 || depth < w.opts.MaxDepth)
		if !descend && len(children) > 0 {
			delta.truncated = true
		}
		tainted := false
		if descend {
			for i := range children {
				child := &children[i]
				if w.skip(child) {
					continue
				}
				cd, err := w.visit(ctx, st, child, failed, depth+1)
				if ctxErr := ctx.Err(); ctxErr != nil {
					return delta, ctxErr
				}
				if err != nil {
					tainted = true
					continue
				}
				if !failed {
					delta.add(&cd)
				}
			}
		}
		if tainted && !failed {
			return delta, fmt.Errorf("below 0x%016x: %w", bref.DataOff, ErrSubtreeFailed)
		}
	}

	if failed {
		return delta, fmt.Errorf("blockref at 0x%016x: %w", bref.DataOff, ErrSubtreeFailed)
	}

	delta.count++
	if bref.DataOff != 0 && w.cacheEnabled() && !delta.truncated && delta.count >= w.opts.CacheThreshold {
		w.cache.store(bref, delta)
		w.log.Debug("cache-add", zap.String("data_off", fmt.Sprintf("%016x", bref.DataOff)))
	}
	return delta, nil
}

// children decodes the child blockrefs held by a block. Leaves return none.
// On failure the returned message is the diagnostic to record.
func (w *TreeWalker) children(bref *types.Blockref, media []byte) ([]types.Blockref, string, error) {
	switch bref.Type {
	case types.BlockrefTypeInode:
		ip, err := inodes.ParseInode(media)
		if err != nil {
			return nil, "Failed to decode inode", err
		}
		if ip.Meta.IsDirectData() {
			return nil, "", nil
		}
		set, err := inodes.Blockset(ip)
		if err != nil {
			return nil, "Failed to decode inode blockset", err
		}
		return set[:], "", nil
	case types.BlockrefTypeIndirect, types.BlockrefTypeFreemapNode:
		list, err := blockrefs.ParseBlockrefArray(media)
		if err != nil {
			return nil, "Failed to decode blockref array", err
		}
		return list, "", nil
	case types.BlockrefTypeFreemap, types.BlockrefTypeVolume:
		hdr, err := volumes.ParseVolumeHeader(media)
		if err != nil {
			return nil, "Failed to decode volume header", err
		}
		if bref.Type == types.BlockrefTypeFreemap {
			return hdr.FreemapBlockset[:], "", nil
		}
		return hdr.SrootBlockset[:], "", nil
	case types.BlockrefTypeFreemapLeaf:
		if w.sink == nil {
			return nil, "", nil
		}
		entries, err := freemap.ParseBmapArray(media)
		if err != nil {
			return nil, "Failed to decode freemap leaf", err
		}
		w.sink.AddLeaf(bref, entries)
		return nil, "", nil
	default:
		return nil, "", nil
	}
}
