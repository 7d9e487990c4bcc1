package fsck

import (
	"fmt"
	"time"

	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// Request represents a verification request
type Request struct {
	VolumePaths []string

	// Walk behaviour
	Force        bool
	Strict       bool
	CountEmpty   bool
	VerifyData   bool
	MaxDepth     int
	MinMirrorTID uint64
	MinModifyTID uint64

	// Zone and PFS selection
	ScanBest bool
	ScanPFS  bool
	PrintPFS bool
	PFSNames []string

	// Subtree cache
	CacheCount        int
	CacheSize         int
	ResetCachePerZone bool

	// ShowMedia decodes the block behind every diagnostic.
	ShowMedia bool
}

// Options converts the request into engine options.
func (r *Request) Options() services.FsckOptions {
	return services.FsckOptions{
		WalkOptions: services.WalkOptions{
			Strict:         r.Strict,
			Force:          r.Force,
			CountEmpty:     r.CountEmpty,
			VerifyData:     r.VerifyData,
			MaxDepth:       r.MaxDepth,
			MinMirrorTID:   r.MinMirrorTID,
			MinModifyTID:   r.MinModifyTID,
			CacheThreshold: r.CacheCount,
		},
		ScanBest:          r.ScanBest,
		ScanPFS:           r.ScanPFS,
		PrintPFS:          r.PrintPFS,
		PFSNames:          r.PFSNames,
		ResetCachePerZone: r.ResetCachePerZone,
		CacheSize:         r.CacheSize,
	}
}

// Response represents verification results
type Response struct {
	Volumes    []string      `json:"volumes" yaml:"volumes"`
	BestZone   int           `json:"best_zone" yaml:"best_zone"`
	Passes     []Pass        `json:"passes" yaml:"passes"`
	Failed     bool          `json:"failed" yaml:"failed"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	CountEmpty bool          `json:"-" yaml:"-"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Pass is one verification pass over the selected zones
type Pass struct {
	Name  string                      `json:"name" yaml:"name"`
	Zones []Zone                      `json:"zones" yaml:"zones"`
	Cache *services.SubtreeCacheStats `json:"cache,omitempty" yaml:"cache,omitempty"`
	Error string                      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Zone is the outcome of a pass in one header zone
type Zone struct {
	Zone        int          `json:"zone" yaml:"zone"`
	Heading     string       `json:"heading" yaml:"heading"`
	Exceeds     bool         `json:"exceeds,omitempty" yaml:"exceeds,omitempty"`
	Problems    []string     `json:"problems,omitempty" yaml:"problems,omitempty"`
	Stats       *Stats       `json:"stats,omitempty" yaml:"stats,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	PFS         []PFS        `json:"pfs,omitempty" yaml:"pfs,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Stats are the totals of one tree walk
type Stats struct {
	services.Counters `yaml:",inline"`
	CacheHits         uint64 `json:"cache_hits" yaml:"cache_hits"`
	Summary           string `json:"summary" yaml:"summary"`
}

// Diagnostic is one problem found at a physical offset
type Diagnostic struct {
	DataOff string   `json:"data_off" yaml:"data_off"`
	Type    string   `json:"type" yaml:"type"`
	Key     string   `json:"key" yaml:"key"`
	Kind    string   `json:"kind" yaml:"kind"`
	Message string   `json:"message" yaml:"message"`
	Line    string   `json:"-" yaml:"-"`
	Media   []string `json:"media,omitempty" yaml:"media,omitempty"`
}

// PFS is a PFS found below the super-root, with its walk when one ran
type PFS struct {
	Name        string       `json:"name" yaml:"name"`
	Type        string       `json:"type" yaml:"type"`
	ClusterID   string       `json:"cluster_id" yaml:"cluster_id"`
	Line        string       `json:"-" yaml:"-"`
	Stats       *Stats       `json:"stats,omitempty" yaml:"stats,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func newStats(s *services.WalkStats, countEmpty bool) *Stats {
	if s == nil {
		return nil
	}
	return &Stats{Counters: s.Counters, CacheHits: s.CacheHits, Summary: s.Summary(countEmpty)}
}

func newDiagnostic(d *services.Diagnostic) Diagnostic {
	b := &d.Blockref
	return Diagnostic{
		DataOff: fmt.Sprintf("%016x", b.DataOff),
		Type:    b.Type.String(),
		Key:     fmt.Sprintf("%016x/%d", b.Key, b.Keybits),
		Kind:    string(d.Kind),
		Message: d.Message,
		Line:    services.FormatDiagnostic(d),
	}
}

func newPFS(e *services.PFSEntry) PFS {
	return PFS{
		Name:      e.Name(),
		Type:      e.TypeString(),
		ClusterID: types.UUIDString(e.Inode.Meta.PFSClID),
		Line:      e.Summary(),
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
