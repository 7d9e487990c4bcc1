package volumes

import (
	"errors"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// ErrNoValidHeader is returned when no zone of a volume holds a usable header.
var ErrNoValidHeader = errors.New("no valid volume header")

// CRCCheck is the outcome of one of the three volume header CRCs.
type CRCCheck struct {
	Name     string
	Stored   uint32
	Computed uint32
	// Critical is false for the whole-header CRC.
	Critical bool
}

// OK reports whether the stored and computed CRCs agree.
func (c CRCCheck) OK() bool {
	return c.Stored == c.Computed
}

// String describes a failed check the way fsck reports it.
func (c CRCCheck) String() string {
	if c.OK() {
		return c.Name + " CRC ok"
	}
	return fmt.Sprintf("Bad %s CRC %08x/%08x", c.Name, c.Stored, c.Computed)
}

// CheckCRCs computes the sector-0, sector-1 and whole-header CRCs.
func (r *VolumeHeaderReader) CheckCRCs() []CRCCheck {
	return []CRCCheck{
		{Name: "sector 0", Stored: r.header.Sector0CRC(), Computed: sector0CRC(r.data), Critical: true},
		{Name: "sector 1", Stored: r.header.Sector1CRC(), Computed: sector1CRC(r.data), Critical: true},
		{Name: "volume header", Stored: r.header.ICRCVolheader, Computed: volheaderCRC(r.data), Critical: false},
	}
}

// ZoneReport describes the header copy found in one zone.
type ZoneReport struct {
	Zone   int
	Offset uint64
	Header *types.VolumeData
	CRCs   []CRCCheck
	// Err is set when the zone could not be read or has no valid magic.
	Err error
}

// Valid reports whether the zone holds a header with a valid magic.
func (z *ZoneReport) Valid() bool {
	return z.Err == nil && z.Header != nil
}

// CRCFailures returns the CRC checks that did not match.
func (z *ZoneReport) CRCFailures() []CRCCheck {
	var failed []CRCCheck
	for _, c := range z.CRCs {
		if !c.OK() {
			failed = append(failed, c)
		}
	}
	return failed
}

// fsckCRCNames maps a CRC check to the name fsck reports it under.
var fsckCRCNames = map[string]string{
	"sector 0":      "Bad HAMMER2_VOL_ICRC_SECT0 CRC",
	"sector 1":      "Bad HAMMER2_VOL_ICRC_SECT1 CRC",
	"volume header": "Bad volume header CRC",
}

// Problems lists the defects of the zone in fsck wording. An empty list means
// the header copy is intact.
func (z *ZoneReport) Problems() []string {
	switch {
	case z.Err == nil:
	case errors.Is(z.Err, ErrReverseEndian):
		return []string{"Reverse endian"}
	case errors.Is(z.Err, ErrBadMagic):
		return []string{"Bad magic"}
	default:
		return []string{z.Err.Error()}
	}
	var out []string
	for _, c := range z.CRCFailures() {
		out = append(out, fsckCRCNames[c.Name])
	}
	return out
}

// Selection is the result of choosing the best header copy of a volume.
type Selection struct {
	Best   int
	Header *types.VolumeData
	Zones  []ZoneReport
}

// BestZone returns the report of the selected zone.
func (s *Selection) BestZone() *ZoneReport {
	return &s.Zones[s.Best]
}

// Diagnostics lists every zone-level problem found while selecting.
func (s *Selection) Diagnostics() []string {
	var out []string
	for i := range s.Zones {
		z := &s.Zones[i]
		if z.Err != nil {
			out = append(out, fmt.Sprintf("zone.%d: %v", z.Zone, z.Err))
			continue
		}
		for _, c := range z.CRCFailures() {
			out = append(out, fmt.Sprintf("zone.%d: %s", z.Zone, c))
		}
	}
	return out
}

// ZoneOffset returns the byte offset of the header copy in zone i.
func ZoneOffset(i int) uint64 {
	return uint64(i) * types.ZoneBytes
}

// ZoneCount returns how many header zones fit in a volume of the given size.
func ZoneCount(size uint64) int {
	n := 0
	for i := 0; i < types.NumVolHdrs; i++ {
		if ZoneOffset(i) >= size {
			break
		}
		n++
	}
	return n
}

// ReadZone reads and checks the header copy in zone i of r.
func ReadZone(r io.ReaderAt, zone int) ZoneReport {
	report := ZoneReport{Zone: zone, Offset: ZoneOffset(zone)}

	data := make([]byte, types.VolumeBytes)
	n, err := r.ReadAt(data, int64(report.Offset))
	if err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
		report.Err = fmt.Errorf("failed to read volume header: %w", err)
		return report
	}

	reader, err := NewVolumeHeaderReader(data)
	if err != nil {
		report.Err = err
		return report
	}
	report.Header = reader.Header()
	report.CRCs = reader.CheckCRCs()
	return report
}

// SelectBest reads every header zone that fits in size and picks the one with
// the highest mirror transaction id among those with a valid magic. CRC
// mismatches are reported per zone but do not disqualify a copy.
func SelectBest(r io.ReaderAt, size uint64) (*Selection, error) {
	count := ZoneCount(size)
	if count == 0 {
		return nil, fmt.Errorf("volume of %d bytes holds no header zone: %w", size, ErrNoValidHeader)
	}

	sel := &Selection{Best: -1, Zones: make([]ZoneReport, 0, count)}
	var lastErr error
	for i := 0; i < count; i++ {
		report := ReadZone(r, i)
		sel.Zones = append(sel.Zones, report)
		if !report.Valid() {
			lastErr = report.Err
			continue
		}
		if sel.Best < 0 || report.Header.MirrorTID > sel.Header.MirrorTID {
			sel.Best = i
			sel.Header = report.Header
		}
	}

	if sel.Best < 0 {
		if errors.Is(lastErr, ErrReverseEndian) {
			return sel, fmt.Errorf("%w: %w", ErrNoValidHeader, ErrReverseEndian)
		}
		return sel, fmt.Errorf("%w: %w", ErrNoValidHeader, lastErr)
	}
	return sel, nil
}
