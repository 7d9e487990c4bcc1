package freemap

import (
	"time"

	"github.com/deploymenttheory/go-hammer2/internal/services"
)

// Request represents a freemap scan request
type Request struct {
	VolumePaths []string
	// AllZones walks the freemap of every header zone instead of the best one.
	AllZones bool
	Strict   bool
}

// Response represents freemap statistics
type Response struct {
	Path        string                 `json:"path" yaml:"path"`
	Zones       []services.FreemapZone `json:"zones" yaml:"zones"`
	Stats       services.FreemapStats  `json:"stats" yaml:"stats"`
	Report      []string               `json:"report" yaml:"report"`
	Blockrefs   uint64                 `json:"blockrefs" yaml:"blockrefs"`
	Diagnostics []string               `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Elapsed     time.Duration          `json:"elapsed" yaml:"elapsed"`
}

// StateRow is one allocation state of the summary table
type StateRow struct {
	State   string
	Bytes16 uint64
	Bytes64 uint64
}

// States returns the per-state totals in bitmap order.
func (r *Response) States() []StateRow {
	names := []string{"free", "reserved", "possibly free", "allocated"}
	rows := make([]StateRow, 0, len(names))
	for i, name := range names {
		rows = append(rows, StateRow{State: name, Bytes16: r.Stats.Accum16[i], Bytes64: r.Stats.Accum64[i]})
	}
	return rows
}
