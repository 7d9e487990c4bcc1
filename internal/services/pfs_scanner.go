package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-hammer2/internal/interfaces"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/inodes"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// ErrUnexpectedInode is returned when an inode directly below the super-root
// is neither the super-root nor a PFS root.
var ErrUnexpectedInode = errors.New("unexpected inode below super-root")

// PFSEntry is a PFS root inode found below the super-root.
type PFSEntry struct {
	Blockref types.Blockref
	Inode    *types.InodeData
}

// Name returns the PFS name.
func (e *PFSEntry) Name() string {
	return e.Inode.Name()
}

// TypeString returns the cluster role shown in PFS listings.
func (e *PFSEntry) TypeString() string {
	meta := &e.Inode.Meta
	if meta.PFSType == types.PFSTypeMaster {
		if meta.PFSSubtype == types.PFSSubtypeNone {
			return "MASTER"
		}
		return meta.PFSSubtype.String()
	}
	return meta.PFSType.String()
}

// Summary renders the PFS as "<type> <cluster id> <name>".
func (e *PFSEntry) Summary() string {
	return fmt.Sprintf("%-11s %s %s", e.TypeString(), types.UUIDString(e.Inode.Meta.PFSClID), e.Name())
}

// PFSScanner locates PFS root inodes from a VOLUME root.
type PFSScanner struct {
	media interfaces.MediaReader
	log   *zap.Logger
}

// NewPFSScanner creates a scanner reading through media.
func NewPFSScanner(media interfaces.MediaReader, log *zap.Logger) *PFSScanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &PFSScanner{media: media, log: log}
}

// Scan returns every PFS root reachable through the super-root, sorted by name.
func (s *PFSScanner) Scan(ctx context.Context, root *types.Blockref) ([]PFSEntry, error) {
	var out []PFSEntry
	if err := s.scan(ctx, root, make(map[uint64]struct{}), &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return bytes.Compare(out[i].Inode.Filename[:], out[j].Inode.Filename[:]) < 0
	})
	s.log.Debug("pfs scan done", zap.Int("count", len(out)))
	return out, nil
}

func (s *PFSScanner) scan(ctx context.Context, bref *types.Blockref, path map[uint64]struct{}, out *[]PFSEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bref.HasMedia() {
		if _, seen := path[bref.DataOff]; seen {
			return fmt.Errorf("blockref cycle at 0x%016x", bref.DataOff)
		}
		path[bref.DataOff] = struct{}{}
		defer delete(path, bref.DataOff)
	}

	media, err := s.media.ReadMedia(bref.DataOff)
	if err != nil {
		return fmt.Errorf("read %s at 0x%016x: %w", bref.Type, bref.DataOff, err)
	}
	if len(media) == 0 {
		return nil
	}

	var children []types.Blockref
	switch bref.Type {
	case types.BlockrefTypeInode:
		ip, err := inodes.ParseInode(media)
		if err != nil {
			return err
		}
		switch {
		case ip.Meta.PFSType == types.PFSTypeSupRoot:
			set, err := inodes.Blockset(ip)
			if err != nil {
				return err
			}
			children = set[:]
		case ip.Meta.IsPFSRoot():
			*out = append(*out, PFSEntry{Blockref: *bref, Inode: ip})
		default:
			return fmt.Errorf("inode %d: %w", ip.Meta.Inum, ErrUnexpectedInode)
		}
	case types.BlockrefTypeIndirect:
		if children, err = blockrefs.ParseBlockrefArray(media); err != nil {
			return err
		}
	case types.BlockrefTypeVolume:
		hdr, err := volumes.ParseVolumeHeader(media)
		if err != nil {
			return err
		}
		children = hdr.SrootBlockset[:]
	}

	for i := range children {
		if err := s.scan(ctx, &children[i], path, out); err != nil {
			return err
		}
	}
	return nil
}

// FilterPFS keeps the entries whose name is listed. An empty list keeps all.
func FilterPFS(entries []PFSEntry, names []string) []PFSEntry {
	if len(names) == 0 {
		return entries
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []PFSEntry
	for _, e := range entries {
		if _, ok := want[e.Name()]; ok {
			out = append(out, e)
		}
	}
	return out
}
