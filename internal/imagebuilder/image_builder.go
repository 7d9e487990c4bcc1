// Package imagebuilder assembles small HAMMER2 images in memory for tests and
// fixtures. Allocation is a simple bump allocator; nothing is ever freed.
package imagebuilder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/freemap"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/inodes"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// pageBytes is the granularity of the sparse backing store.
const pageBytes = types.PBufSize

// ErrImageFull is returned when the allocator runs past the end of the image.
var ErrImageFull = errors.New("image full")

// Builder is a sparse in-memory HAMMER2 image.
type Builder struct {
	size  uint64
	pages map[uint64][]byte
	next  uint64
	fsid  [16]byte
}

// New creates an empty image of size bytes. Allocation starts past the
// reserved segment of zone 0.
func New(size uint64) *Builder {
	return &Builder{
		size:  size,
		pages: make(map[uint64][]byte),
		next:  types.ZoneSeg,
		fsid:  types.UUIDToDisk(uuid.New()),
	}
}

// Size returns the image size in bytes.
func (b *Builder) Size() uint64 {
	return b.size
}

// SetNext moves the allocator to off. Used to place blocks at chosen addresses.
func (b *Builder) SetNext(off uint64) {
	b.next = off
}

// ReadAt implements io.ReaderAt. Unwritten ranges read as zeros.
func (b *Builder) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	pos := uint64(off)
	if pos >= b.size {
		return 0, io.EOF
	}
	n := len(p)
	if remain := b.size - pos; uint64(n) > remain {
		n = int(remain)
	}
	for done := 0; done < n; {
		page := (pos + uint64(done)) &^ (pageBytes - 1)
		inPage := int((pos + uint64(done)) - page)
		chunk := int(pageBytes) - inPage
		if chunk > n-done {
			chunk = n - done
		}
		if data, ok := b.pages[page]; ok {
			copy(p[done:done+chunk], data[inPage:inPage+chunk])
		} else {
			clear(p[done : done+chunk])
		}
		done += chunk
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt stores p at off, growing nothing: writes past the image end fail.
func (b *Builder) WriteAt(p []byte, off uint64) error {
	if off+uint64(len(p)) > b.size {
		return fmt.Errorf("write of %d bytes at %#x: %w", len(p), off, ErrImageFull)
	}
	for done := 0; done < len(p); {
		page := (off + uint64(done)) &^ (pageBytes - 1)
		inPage := int((off + uint64(done)) - page)
		chunk := int(pageBytes) - inPage
		if chunk > len(p)-done {
			chunk = len(p) - done
		}
		data, ok := b.pages[page]
		if !ok {
			data = make([]byte, pageBytes)
			b.pages[page] = data
		}
		copy(data[inPage:inPage+chunk], p[done:done+chunk])
		done += chunk
	}
	return nil
}

// Corrupt flips every bit of the byte at off.
func (b *Builder) Corrupt(off uint64) {
	var one [1]byte
	_, _ = b.ReadAt(one[:], int64(off))
	one[0] ^= 0xFF
	_ = b.WriteAt(one[:], off)
}

// RadixFor returns the smallest allocation radix holding n bytes.
func RadixFor(n int) uint8 {
	radix := uint8(types.RadixMin)
	for (1 << radix) < n {
		radix++
	}
	return radix
}

// Alloc reserves a naturally aligned block of 1<<radix bytes and returns its
// data_off with the radix encoded.
func (b *Builder) Alloc(radix uint8) (uint64, error) {
	if radix < types.RadixMin || radix > types.RadixMax {
		return 0, fmt.Errorf("radix %d out of range", radix)
	}
	size := uint64(1) << radix
	off := (b.next + size - 1) &^ (size - 1)
	if off+size > b.size {
		return 0, fmt.Errorf("allocating %d bytes: %w", size, ErrImageFull)
	}
	b.next = off + size
	return off | uint64(radix), nil
}

// WriteBlock allocates a block for data, writes it and returns a blockref
// sealed with check. Data shorter than the block is zero padded.
func (b *Builder) WriteBlock(typ types.BlockrefType, data []byte, check types.CheckAlgorithm) (types.Blockref, error) {
	return b.writeBlock(typ, data, types.EncodeMethods(check, types.CompNone))
}

func (b *Builder) writeBlock(typ types.BlockrefType, data []byte, methods uint8) (types.Blockref, error) {
	radix := RadixFor(len(data))
	dataOff, err := b.Alloc(radix)
	if err != nil {
		return types.Blockref{}, err
	}
	block := make([]byte, 1<<radix)
	copy(block, data)
	if err := b.WriteAt(block, dataOff&types.OffMask); err != nil {
		return types.Blockref{}, err
	}

	bref := types.Blockref{
		Type:      typ,
		Methods:   methods,
		DataOff:   dataOff,
		VRadix:    radix,
		MirrorTID: 1,
		ModifyTID: 1,
	}
	if err := checksums.Seal(&bref, block); err != nil {
		return types.Blockref{}, err
	}
	return bref, nil
}

// Data writes a DATA block, compressing it with comp first. vradix records
// the logical size of data.
func (b *Builder) Data(data []byte, check types.CheckAlgorithm, comp types.CompressionAlgorithm) (types.Blockref, error) {
	payload := data
	var err error
	switch comp {
	case types.CompLZ4:
		payload, err = compressLZ4(data)
	case types.CompZlib:
		payload, err = compressZlib(data)
	case types.CompNone, types.CompAutoZero:
	default:
		return types.Blockref{}, fmt.Errorf("compression %d not supported by builder", comp)
	}
	if err != nil {
		return types.Blockref{}, err
	}
	bref, err := b.writeBlock(types.BlockrefTypeData, payload, types.EncodeMethods(check, comp))
	if err != nil {
		return types.Blockref{}, err
	}
	bref.VRadix = RadixFor(len(data))
	return bref, nil
}

// Inode writes an inode and returns its blockref keyed by inode number.
func (b *Builder) Inode(ip *types.InodeData, check types.CheckAlgorithm) (types.Blockref, error) {
	bref, err := b.WriteBlock(types.BlockrefTypeInode, inodes.EncodeInode(ip), check)
	if err != nil {
		return bref, err
	}
	bref.Key = ip.Meta.Inum
	if ip.Meta.IsPFSRoot() {
		bref.Flags |= types.BlockrefFlagPFSRoot
	}
	return bref, nil
}

// Indirect writes an indirect block holding children.
func (b *Builder) Indirect(children []types.Blockref, check types.CheckAlgorithm) (types.Blockref, error) {
	return b.WriteBlock(types.BlockrefTypeIndirect, blockrefs.EncodeBlockrefArray(children), check)
}

// FreemapNode writes a freemap node covering key/keybits.
func (b *Builder) FreemapNode(key uint64, keybits uint8, children []types.Blockref) (types.Blockref, error) {
	list := make([]types.Blockref, types.FreemapLevelNPSize/types.BlockrefBytes)
	copy(list, children)
	bref, err := b.WriteBlock(types.BlockrefTypeFreemapNode, blockrefs.EncodeBlockrefArray(list), types.CheckFreemap)
	if err != nil {
		return bref, err
	}
	bref.Key = key
	bref.Keybits = keybits
	return bref, nil
}

// FreemapLeaf writes a freemap leaf for the 1 GiB range starting at key.
// Missing entries are zero.
func (b *Builder) FreemapLeaf(key uint64, entries []types.BmapData) (types.Blockref, error) {
	full := make([]types.BmapData, types.FreemapCount)
	copy(full, entries)
	bref, err := b.WriteBlock(types.BlockrefTypeFreemapLeaf, freemap.EncodeBmapArray(full), types.CheckFreemap)
	if err != nil {
		return bref, err
	}
	bref.Key = key
	bref.Keybits = types.FreemapLevel1Radix
	return bref, nil
}

// SuperRoot returns a super-root inode whose blockset holds children.
func SuperRoot(children ...types.Blockref) *types.InodeData {
	ip := &types.InodeData{}
	ip.Meta.Version = 1
	ip.Meta.Inum = 0
	ip.Meta.Type = types.ObjTypeDirectory
	ip.Meta.PFSType = types.PFSTypeSupRoot
	setChildren(ip, children)
	return ip
}

// PFSRoot returns a PFS root inode named name whose blockset holds children.
func PFSRoot(name string, inum uint64, children ...types.Blockref) *types.InodeData {
	ip := &types.InodeData{}
	ip.Meta.Version = 1
	ip.Meta.Inum = inum
	ip.Meta.Type = types.ObjTypeDirectory
	ip.Meta.OpFlags = types.OpFlagPFSRoot
	ip.Meta.PFSType = types.PFSTypeMaster
	ip.Meta.PFSClID = types.UUIDToDisk(uuid.New())
	ip.Meta.PFSFSID = types.UUIDToDisk(uuid.New())
	inodes.SetFilename(ip, name)
	setChildren(ip, children)
	return ip
}

// File returns a regular file inode whose blockset holds data blocks.
func File(name string, inum uint64, size uint64, children ...types.Blockref) *types.InodeData {
	ip := &types.InodeData{}
	ip.Meta.Version = 1
	ip.Meta.Inum = inum
	ip.Meta.Type = types.ObjTypeRegFile
	ip.Meta.Size = size
	ip.Meta.NLinks = 1
	inodes.SetFilename(ip, name)
	setChildren(ip, children)
	return ip
}

func setChildren(ip *types.InodeData, children []types.Blockref) {
	var set types.Blockset
	copy(set[:], children)
	inodes.SetBlockset(ip, &set)
}

// Header returns a single-volume version 2 header describing the image.
func (b *Builder) Header(mirrorTID uint64) *types.VolumeData {
	hdr := &types.VolumeData{
		Magic:          types.VolumeIDHBO,
		BootBeg:        0,
		BootEnd:        0,
		AuxBeg:         0,
		AuxEnd:         types.ZoneSeg,
		VoluSize:       b.size,
		Version:        types.VolVersionDefault,
		FreemapVersion: 1,
		VoluID:         types.RootVolume,
		NVolumes:       1,
		FSID:           b.fsid,
		FSType:         types.HAMMER2FSType(),
		AllocatorSize:  b.size,
		MirrorTID:      mirrorTID,
		FreemapTID:     mirrorTID,
		TotalSize:      b.size,
	}
	for i := range hdr.VoluLoff {
		hdr.VoluLoff[i] = ^uint64(0)
	}
	hdr.VoluLoff[0] = 0
	return hdr
}

// WriteHeader seals hdr and writes it into zone.
func (b *Builder) WriteHeader(zone int, hdr *types.VolumeData) error {
	data := volumes.EncodeVolumeHeader(hdr)
	if err := volumes.SealVolumeHeader(data); err != nil {
		return err
	}
	return b.WriteAt(data, volumes.ZoneOffset(zone))
}

// WriteFile stores the image at path as a sparse file.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(int64(b.size)); err != nil {
		return fmt.Errorf("failed to size image: %w", err)
	}
	for off, data := range b.pages {
		if _, err := f.WriteAt(data, int64(off)); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
	}
	return f.Close()
}
