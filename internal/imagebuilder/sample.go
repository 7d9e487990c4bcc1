package imagebuilder

import (
	"bytes"
	"fmt"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// DefaultSampleSize is the size of the image built by NewSample.
const DefaultSampleSize = 16 * 1024 * 1024

// Sample is a small but complete single-volume filesystem:
//
//	volume header
//	  sroot:   super-root -> PFS "ROOT" -> file "hello" -> [data, indirect -> [lz4 data, zlib data]]
//	  freemap: node -> leaf covering the first 1 GiB
type Sample struct {
	Builder     *Builder
	Header      *types.VolumeData
	SuperRoot   types.Blockref
	PFS         types.Blockref
	File        types.Blockref
	Indirect    types.Blockref
	Data        []types.Blockref
	FreemapNode types.Blockref
	FreemapLeaf types.Blockref
}

// Blockrefs returns every non-empty blockref of the volume tree.
func (s *Sample) Blockrefs() []types.Blockref {
	out := []types.Blockref{s.SuperRoot, s.PFS, s.File, s.Indirect}
	return append(out, s.Data...)
}

// SampleData returns the plaintext of the sample data blocks.
func SampleData() [][]byte {
	plain := make([]byte, 4096)
	for i := range plain {
		plain[i] = byte(i * 7)
	}
	return [][]byte{
		plain,
		bytes.Repeat([]byte("hammer2 lz4 block "), 900),
		bytes.Repeat([]byte("hammer2 zlib block "), 800),
	}
}

// NewSample builds the sample filesystem in an image of size bytes and writes
// its header into zone 0.
func NewSample(size uint64) (*Sample, error) {
	b := New(size)
	s := &Sample{Builder: b}
	data := SampleData()

	d0, err := b.Data(data[0], types.CheckXXHash64, types.CompNone)
	if err != nil {
		return nil, fmt.Errorf("data 0: %w", err)
	}
	d1, err := b.Data(data[1], types.CheckISCSI32, types.CompLZ4)
	if err != nil {
		return nil, fmt.Errorf("data 1: %w", err)
	}
	d2, err := b.Data(data[2], types.CheckSHA192, types.CompZlib)
	if err != nil {
		return nil, fmt.Errorf("data 2: %w", err)
	}
	d0.Key, d1.Key, d2.Key = 0, 1<<16, 2<<16
	s.Data = []types.Blockref{d0, d1, d2}

	if s.Indirect, err = b.Indirect([]types.Blockref{d1, d2}, types.CheckXXHash64); err != nil {
		return nil, fmt.Errorf("indirect: %w", err)
	}
	s.Indirect.Key = 1 << 16
	s.Indirect.Keybits = 17

	fileSize := uint64(len(data[0]) + len(data[1]) + len(data[2]))
	if s.File, err = b.Inode(File("hello", 2, fileSize, d0, s.Indirect), types.CheckXXHash64); err != nil {
		return nil, fmt.Errorf("file: %w", err)
	}
	if s.PFS, err = b.Inode(PFSRoot("ROOT", 1, s.File), types.CheckXXHash64); err != nil {
		return nil, fmt.Errorf("pfs: %w", err)
	}
	if s.SuperRoot, err = b.Inode(SuperRoot(s.PFS), types.CheckXXHash64); err != nil {
		return nil, fmt.Errorf("super-root: %w", err)
	}

	s.Header = b.Header(1)
	if s.FreemapLeaf, err = b.FreemapLeaf(0, sampleBitmap(s.Header.AuxEnd, b.next)); err != nil {
		return nil, fmt.Errorf("freemap leaf: %w", err)
	}
	if s.FreemapNode, err = b.FreemapNode(0, types.FreemapLevel2Radix, []types.Blockref{s.FreemapLeaf}); err != nil {
		return nil, fmt.Errorf("freemap node: %w", err)
	}

	s.Header.SrootBlockset[0] = s.SuperRoot
	s.Header.FreemapBlockset[0] = s.FreemapNode
	if err := b.WriteHeader(0, s.Header); err != nil {
		return nil, fmt.Errorf("volume header: %w", err)
	}
	return s, nil
}

// sampleBitmap marks every 16 KiB granule in [auxEnd, used) allocated.
func sampleBitmap(auxEnd, used uint64) []types.BmapData {
	entries := make([]types.BmapData, types.FreemapCount)
	for off := auxEnd; off < used; off += types.FreemapBlockSize {
		i := off / types.FreemapLevel0Size
		granule := (off % types.FreemapLevel0Size) / types.FreemapBlockSize
		word := granule / types.BmapBlocksPerElement
		shift := (granule % types.BmapBlocksPerElement) * 2
		entries[i].Bitmapq[word] |= uint64(types.BmapStateAllocated) << shift
	}
	for i := range entries {
		entries[i].Avail = uint32(types.FreemapLevel0Size)
	}
	return entries
}
