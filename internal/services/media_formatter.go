package services

import (
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/dirents"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/freemap"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/inodes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// FormatMedia describes the decoded content of a block, one field per line.
// Types without a textual form, or media that fails to decode, yield nothing.
func FormatMedia(bref *types.Blockref, media []byte) []string {
	switch bref.Type {
	case types.BlockrefTypeInode:
		ip, err := inodes.ParseInode(media)
		if err != nil {
			return nil
		}
		return formatInode(bref, ip)
	case types.BlockrefTypeIndirect, types.BlockrefTypeFreemapNode:
		list, err := blockrefs.ParseBlockrefArray(media)
		if err != nil {
			return nil
		}
		out := make([]string, 0, len(list))
		for i := range list {
			b := &list[i]
			out = append(out, fmt.Sprintf("%-3d %016x %-12s %016x/%-2d", i, b.DataOff, b.Type, b.Key, b.Keybits))
		}
		return out
	case types.BlockrefTypeDirent:
		d, err := dirents.ParseDirent(bref, media)
		if err != nil {
			return nil
		}
		return []string{
			fmt.Sprintf("filename %q", d.Name),
			fmt.Sprintf("inum 0x%016x", d.Inum),
			fmt.Sprintf("namelen %d", len(d.Name)),
			fmt.Sprintf("type %s", d.Type),
		}
	case types.BlockrefTypeFreemapLeaf:
		entries, err := freemap.ParseBmapArray(media)
		if err != nil {
			return nil
		}
		out := make([]string, 0, len(entries))
		for i := range entries {
			b := &entries[i]
			dataOff := bref.Key + uint64(i)*types.FreemapLevel0Size
			out = append(out, fmt.Sprintf("%016x %04d.%04x (avail=%07d) %016x %016x %016x %016x %016x %016x %016x %016x",
				dataOff, i, b.Class, b.Avail,
				b.Bitmapq[0], b.Bitmapq[1], b.Bitmapq[2], b.Bitmapq[3],
				b.Bitmapq[4], b.Bitmapq[5], b.Bitmapq[6], b.Bitmapq[7]))
		}
		return out
	default:
		return nil
	}
}

func formatInode(bref *types.Blockref, ip *types.InodeData) []string {
	meta := &ip.Meta
	isPFS := meta.IsPFSRoot() || meta.PFSType == types.PFSTypeSupRoot

	out := []string{
		fmt.Sprintf("filename %q", ip.Name()),
		fmt.Sprintf("version %d", meta.Version),
	}
	if isPFS {
		out = append(out, fmt.Sprintf("pfs_subtype %d (%s)", meta.PFSSubtype, meta.PFSSubtype))
	}
	out = append(out, fmt.Sprintf("uflags 0x%08x", meta.UFlags))
	if meta.RMajor != 0 || meta.RMinor != 0 {
		out = append(out,
			fmt.Sprintf("rmajor %d", meta.RMajor),
			fmt.Sprintf("rminor %d", meta.RMinor))
	}

	size := fmt.Sprintf("size %d", meta.Size)
	if meta.IsDirectData() && meta.Size <= types.EmbeddedBytes {
		size += " (embedded data)"
	}
	out = append(out,
		"ctime "+types.TimeString(meta.CTime),
		"mtime "+types.TimeString(meta.MTime),
		"atime "+types.TimeString(meta.ATime),
		"btime "+types.TimeString(meta.BTime),
		"uid "+types.UUIDString(meta.UID),
		"gid "+types.UUIDString(meta.GID),
		"type "+meta.Type.String(),
		fmt.Sprintf("op_flags 0x%02x", meta.OpFlags),
		fmt.Sprintf("cap_flags 0x%04x", meta.CapFlags),
		fmt.Sprintf("mode %-7o", meta.Mode),
		fmt.Sprintf("inum 0x%016x", meta.Inum),
		size,
		fmt.Sprintf("nlinks %d", meta.NLinks),
		fmt.Sprintf("iparent 0x%016x", meta.IParent),
		fmt.Sprintf("name_key 0x%016x", meta.NameKey),
		fmt.Sprintf("name_len %d", meta.NameLen),
		fmt.Sprintf("ncopies %d", meta.NCopies),
		"comp_algo "+types.CompModeString(meta.CompAlgo),
		"check_algo "+types.CheckModeString(meta.CheckAlgo),
	)
	if isPFS {
		out = append(out,
			fmt.Sprintf("pfs_nmasters %d", meta.PFSNMasters),
			fmt.Sprintf("pfs_type %d (%s)", meta.PFSType, meta.PFSType),
			fmt.Sprintf("pfs_inum 0x%016x", meta.PFSInum),
			"pfs_clid "+types.UUIDString(meta.PFSClID),
			"pfs_fsid "+types.UUIDString(meta.PFSFSID),
			fmt.Sprintf("pfs_lsnap_tid 0x%016x", meta.PFSLsnapTID))
	}
	stats := bref.Stats()
	out = append(out,
		fmt.Sprintf("data_quota %d", meta.DataQuota),
		fmt.Sprintf("data_count %d", stats.DataCount),
		fmt.Sprintf("inode_quota %d", meta.InodeQuota),
		fmt.Sprintf("inode_count %d", stats.InodeCount))
	return out
}
