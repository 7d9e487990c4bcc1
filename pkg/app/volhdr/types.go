package volhdr

import (
	"time"
)

// Request represents a volume header dump request
type Request struct {
	VolumePaths []string
	// AllZones decodes every header copy instead of only the best one.
	AllZones bool
}

// Response represents the decoded headers of every volume
type Response struct {
	Volumes []Volume      `json:"volumes" yaml:"volumes"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Volume is one member of the volume set
type Volume struct {
	ID       uint8  `json:"id" yaml:"id"`
	Path     string `json:"path" yaml:"path"`
	BestZone int    `json:"best_zone" yaml:"best_zone"`
	Zones    []Zone `json:"zones" yaml:"zones"`
}

// Zone is the header copy stored in one zone of a volume
type Zone struct {
	Zone      int      `json:"zone" yaml:"zone"`
	Offset    uint64   `json:"offset" yaml:"offset"`
	MirrorTID uint64   `json:"mirror_tid" yaml:"mirror_tid"`
	Problems  []string `json:"problems,omitempty" yaml:"problems,omitempty"`
	Summary   string   `json:"-" yaml:"-"`
	// Header is only decoded for the best zone unless every zone was requested.
	Header *Header `json:"header,omitempty" yaml:"header,omitempty"`
}

// Header holds the decoded fields of a volume header copy
type Header struct {
	Magic         uint64   `json:"magic" yaml:"magic"`
	Version       uint32   `json:"version" yaml:"version"`
	Flags         uint32   `json:"flags" yaml:"flags"`
	VoluID        uint8    `json:"volu_id" yaml:"volu_id"`
	NVolumes      uint8    `json:"nvolumes" yaml:"nvolumes"`
	VoluSize      uint64   `json:"volu_size" yaml:"volu_size"`
	TotalSize     uint64   `json:"total_size" yaml:"total_size"`
	FSID          string   `json:"fsid" yaml:"fsid"`
	FSType        string   `json:"fstype" yaml:"fstype"`
	AllocatorSize uint64   `json:"allocator_size" yaml:"allocator_size"`
	AllocatorFree uint64   `json:"allocator_free" yaml:"allocator_free"`
	AllocatorBeg  uint64   `json:"allocator_beg" yaml:"allocator_beg"`
	MirrorTID     uint64   `json:"mirror_tid" yaml:"mirror_tid"`
	FreemapTID    uint64   `json:"freemap_tid" yaml:"freemap_tid"`
	BulkfreeTID   uint64   `json:"bulkfree_tid" yaml:"bulkfree_tid"`
	CRCs          []CRC    `json:"crcs" yaml:"crcs"`
	Lines         []string `json:"-" yaml:"-"`
}

// CRC is the state of one header CRC
type CRC struct {
	Name     string `json:"name" yaml:"name"`
	Stored   uint32 `json:"stored" yaml:"stored"`
	Computed uint32 `json:"computed" yaml:"computed"`
	OK       bool   `json:"ok" yaml:"ok"`
}
