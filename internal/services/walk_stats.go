package services

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// DiagnosticKind classifies a recorded problem.
type DiagnosticKind string

const (
	DiagnosticAddressing  DiagnosticKind = "addressing"
	DiagnosticIO          DiagnosticKind = "io"
	DiagnosticDecode      DiagnosticKind = "decode"
	DiagnosticIntegrity   DiagnosticKind = "integrity"
	DiagnosticUnsupported DiagnosticKind = "unsupported"
)

// Diagnostic is one problem recorded against a blockref.
type Diagnostic struct {
	Blockref types.Blockref `json:"-" yaml:"-"`
	Kind     DiagnosticKind `json:"kind" yaml:"kind"`
	Message  string         `json:"message" yaml:"message"`
}

// DiagnosticEntry groups every diagnostic recorded at one physical offset.
type DiagnosticEntry struct {
	DataOff     uint64
	Diagnostics []Diagnostic
}

// Less orders entries by physical offset.
func (e *DiagnosticEntry) Less(than btree.Item) bool {
	return e.DataOff < than.(*DiagnosticEntry).DataOff
}

// DiagnosticLog is an ordered index of diagnostics keyed by data_off.
type DiagnosticLog struct {
	tree  *btree.BTree
	count int
}

// NewDiagnosticLog creates an empty log.
func NewDiagnosticLog() *DiagnosticLog {
	return &DiagnosticLog{tree: btree.New(8)}
}

// Add records a diagnostic against bref.
func (l *DiagnosticLog) Add(bref *types.Blockref, kind DiagnosticKind, msg string) {
	d := Diagnostic{Blockref: *bref, Kind: kind, Message: msg}
	if item := l.tree.Get(&DiagnosticEntry{DataOff: bref.DataOff}); item != nil {
		entry := item.(*DiagnosticEntry)
		entry.Diagnostics = append(entry.Diagnostics, d)
	} else {
		l.tree.ReplaceOrInsert(&DiagnosticEntry{DataOff: bref.DataOff, Diagnostics: []Diagnostic{d}})
	}
	l.count++
}

// At returns the diagnostics recorded at dataOff.
func (l *DiagnosticLog) At(dataOff uint64) []Diagnostic {
	item := l.tree.Get(&DiagnosticEntry{DataOff: dataOff})
	if item == nil {
		return nil
	}
	return item.(*DiagnosticEntry).Diagnostics
}

// Entries returns every entry in offset order.
func (l *DiagnosticLog) Entries() []DiagnosticEntry {
	out := make([]DiagnosticEntry, 0, l.tree.Len())
	l.tree.Ascend(func(item btree.Item) bool {
		out = append(out, *item.(*DiagnosticEntry))
		return true
	})
	return out
}

// Len returns the total number of diagnostics.
func (l *DiagnosticLog) Len() int {
	return l.count
}

// Offsets returns the number of distinct offsets with diagnostics.
func (l *DiagnosticLog) Offsets() int {
	return l.tree.Len()
}

// Counters are the additive totals of a walk or of one cached subtree.
type Counters struct {
	TotalBlockref uint64 `json:"total_blockref" yaml:"total_blockref"`
	TotalEmpty    uint64 `json:"total_empty" yaml:"total_empty"`
	TotalBytes    uint64 `json:"total_bytes" yaml:"total_bytes"`
	Inode         uint64 `json:"inode" yaml:"inode"`
	Indirect      uint64 `json:"indirect" yaml:"indirect"`
	Data          uint64 `json:"data" yaml:"data"`
	Dirent        uint64 `json:"dirent" yaml:"dirent"`
	FreemapNode   uint64 `json:"freemap_node" yaml:"freemap_node"`
	FreemapLeaf   uint64 `json:"freemap_leaf" yaml:"freemap_leaf"`
}

// Add accumulates o into c.
func (c *Counters) Add(o *Counters) {
	c.TotalBlockref += o.TotalBlockref
	c.TotalEmpty += o.TotalEmpty
	c.TotalBytes += o.TotalBytes
	c.Inode += o.Inode
	c.Indirect += o.Indirect
	c.Data += o.Data
	c.Dirent += o.Dirent
	c.FreemapNode += o.FreemapNode
	c.FreemapLeaf += o.FreemapLeaf
}

// subtreeDelta is what one visit contributed, plus the number of fully
// successful nodes beneath it. A truncated delta left children unvisited and
// never describes the whole subtree.
type subtreeDelta struct {
	Counters
	count     int
	truncated bool
}

func (d *subtreeDelta) add(o *subtreeDelta) {
	d.Counters.Add(&o.Counters)
	d.count += o.count
	d.truncated = d.truncated || o.truncated
}

// WalkStats is the result of walking one tree from one root.
type WalkStats struct {
	// Type is BlockrefTypeVolume or BlockrefTypeFreemap.
	Type types.BlockrefType
	Counters
	Diagnostics *DiagnosticLog
	// CacheHits counts subtrees skipped through the subtree cache.
	CacheHits uint64
}

// NewWalkStats creates empty statistics for a walk of the given root type.
func NewWalkStats(typ types.BlockrefType) *WalkStats {
	return &WalkStats{Type: typ, Diagnostics: NewDiagnosticLog()}
}

// Summary renders the totals on one line, e.g.
// "12 blockref (3 inode, 2 indirect, 6 data, 1 dirent),  96.00KB".
func (s *WalkStats) Summary(countEmpty bool) string {
	var empty string
	if countEmpty {
		empty = fmt.Sprintf(", %d empty", s.TotalEmpty)
	}
	if s.Type == types.BlockrefTypeFreemap {
		return fmt.Sprintf("%d blockref (%d node, %d leaf%s), %s",
			s.TotalBlockref, s.FreemapNode, s.FreemapLeaf, empty, types.SizeString(s.TotalBytes))
	}
	return fmt.Sprintf("%d blockref (%d inode, %d indirect, %d data, %d dirent%s), %s",
		s.TotalBlockref, s.Inode, s.Indirect, s.Data, s.Dirent, empty, types.SizeString(s.TotalBytes))
}

// FormatDiagnostic renders one diagnostic the way fsck lists them.
func FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%016x %-12s %016x/%-2d", d.Blockref.DataOff, d.Blockref.Type, d.Blockref.Key, d.Blockref.Keybits)
	if d.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(d.Message)
	}
	return sb.String()
}
