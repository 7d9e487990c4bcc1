package volhdr

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

const (
	megabyte = float64(1 << 20)
	gigabyte = float64(1 << 30)
)

// blocksetLabelWidth fits the longest type name plus a blockset index.
var blocksetLabelWidth = len(types.BlockrefTypeFreemapLeaf.String()) + len(".0")

// volumeResolver maps a blockref offset to the volume holding it.
type volumeResolver interface {
	Resolve(offset uint64) (*types.Volume, error)
}

// newHeader decodes the header copy of a zone report. Lines renders it in
// the layout of the volhdr listing.
func newHeader(zr *volumes.ZoneReport, resolver volumeResolver) *Header {
	v := zr.Header
	h := &Header{
		Magic:         v.Magic,
		Version:       v.Version,
		Flags:         v.Flags,
		VoluID:        v.VoluID,
		NVolumes:      v.NVolumes,
		VoluSize:      v.VoluSize,
		TotalSize:     v.TotalSize,
		FSID:          types.UUIDString(v.FSID),
		FSType:        types.UUIDString(v.FSType),
		AllocatorSize: v.AllocatorSize,
		AllocatorFree: v.AllocatorFree,
		AllocatorBeg:  v.AllocatorBeg,
		MirrorTID:     v.MirrorTID,
		FreemapTID:    v.FreemapTID,
		BulkfreeTID:   v.BulkfreeTID,
	}
	for _, c := range zr.CRCs {
		h.CRCs = append(h.CRCs, CRC{Name: c.Name, Stored: c.Stored, Computed: c.Computed, OK: c.OK()})
	}
	h.Lines = describe(zr, resolver)
	return h
}

func describe(zr *volumes.ZoneReport, resolver volumeResolver) []string {
	v := zr.Header
	var out []string
	add := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	add("Volume %d header %d {", v.VoluID, zr.Zone)
	add("    magic          0x%016x", v.Magic)
	add("    boot_beg       0x%016x", v.BootBeg)
	add("    boot_end       0x%016x (%6.2fMB)", v.BootEnd, float64(v.BootEnd-v.BootBeg)/megabyte)
	add("    aux_beg        0x%016x", v.AuxBeg)
	add("    aux_end        0x%016x (%6.2fMB)", v.AuxEnd, float64(v.AuxEnd-v.AuxBeg)/megabyte)
	add("    volu_size      0x%016x (%6.2fGB)", v.VoluSize, float64(v.VoluSize)/gigabyte)
	add("    version        %d", v.Version)
	add("    flags          0x%08x", v.Flags)
	add("    copyid         %d", v.CopyID)
	add("    freemap_vers   %d", v.FreemapVersion)
	add("    peer_type      %d", v.PeerType)
	add("    volu_id        %d", v.VoluID)
	add("    nvolumes       %d", v.NVolumes)
	add("    fsid           %s", types.UUIDString(v.FSID))
	fstype := types.UUIDString(v.FSType)
	add("    fstype         %s", fstype)
	name := "?"
	if v.FSType == types.HAMMER2FSType() {
		name = "DragonFly HAMMER2"
	}
	add("                   (%s)", name)
	add("    allocator_size 0x%016x (%6.2fGB)", v.AllocatorSize, float64(v.AllocatorSize)/gigabyte)
	add("    allocator_free 0x%016x (%6.2fGB)", v.AllocatorFree, float64(v.AllocatorFree)/gigabyte)
	add("    allocator_beg  0x%016x (%6.2fGB)", v.AllocatorBeg, float64(v.AllocatorBeg)/gigabyte)
	add("    mirror_tid     0x%016x", v.MirrorTID)
	add("    freemap_tid    0x%016x", v.FreemapTID)
	add("    bulkfree_tid   0x%016x", v.BulkfreeTID)
	add("    total_size     0x%016x", v.TotalSize)

	var sb strings.Builder
	sb.WriteString("    copyexists    ")
	for _, x := range v.CopyExists {
		fmt.Fprintf(&sb, " 0x%02x", x)
	}
	out = append(out, sb.String(), "")

	crcs := make(map[string]volumes.CRCCheck, len(zr.CRCs))
	for _, c := range zr.CRCs {
		crcs[c.Name] = c
	}
	for i, stored := range v.ICRCSects {
		var check volumes.CRCCheck
		switch i {
		case types.VolICRCSect0:
			check = crcs["sector 0"]
		case types.VolICRCSect1:
			check = crcs["sector 1"]
		default:
			add("    icrc_sects[%d]  0x%08x (reserved)", i, stored)
			continue
		}
		add("    icrc_sects[%d]  0x%08x/0x%08x%s", i, check.Computed, check.Stored, crcState(check, "FAILED"))
	}
	vh := crcs["volume header"]
	add("    icrc_volhdr    0x%08x/0x%08x%s", vh.Computed, vh.Stored, crcState(vh, "FAILED - not a critical error"))

	out = append(out, "", "    sroot_blockset {")
	out = append(out, describeBlockset(&v.SrootBlockset, resolver)...)
	out = append(out, "    }", "    freemap_blockset {")
	out = append(out, describeBlockset(&v.FreemapBlockset, resolver)...)
	out = append(out, "    }")

	allZero := true
	for _, off := range v.VoluLoff {
		if off != 0 {
			allZero = false
			break
		}
	}
	if !allZero {
		out = append(out, "")
		for i, off := range v.VoluLoff {
			if off != ^uint64(0) {
				add("    volu_loff[%d]   0x%016x", i, off)
			}
		}
	}
	out = append(out, "}")
	return out
}

func crcState(c volumes.CRCCheck, failed string) string {
	if c.OK() {
		return " (OK)"
	}
	return " (" + failed + ")"
}

func describeBlockset(set *types.Blockset, resolver volumeResolver) []string {
	lines := make([]string, 0, len(set))
	for i := range set {
		bref := &set[i]
		vol := "?"
		if v, err := resolver.Resolve(bref.DataOff); err == nil {
			vol = fmt.Sprintf("%d", v.ID)
		}
		label := fmt.Sprintf("%s.%d", bref.Type.String(), i)
		lines = append(lines, fmt.Sprintf("        %-*s %016x %016x/%-2d vol=%s mir=%016x mod=%016x lfcnt=%d",
			blocksetLabelWidth, label, bref.DataOff, bref.Key, bref.Keybits, vol, bref.MirrorTID, bref.ModifyTID, bref.LeafCount))
	}
	return lines
}
