package types

// BmapData is one 128-byte freemap leaf entry covering 4 MiB of storage.
//
// Each bitmap word encodes 32 granules of 16 KiB at 2 bits per granule:
// 00 free, 01 reserved, 10 possibly free, 11 allocated.
type BmapData struct {
	Linear  uint32
	Class   uint16
	Reserv  uint8
	Avail   uint32
	Bitmapq [BmapElements]uint64
}

// Freemap granule states
const (
	BmapStateFree         = 0
	BmapStateReserved     = 1
	BmapStatePossiblyFree = 2
	BmapStateAllocated    = 3
)

// Bmap field offsets
const (
	BmapOffLinear  = 0x00
	BmapOffClass   = 0x04
	BmapOffReserv  = 0x06
	BmapOffAvail   = 0x1C
	BmapOffBitmapq = 0x40
)
