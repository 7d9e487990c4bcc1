package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

func TestWalkStatsSummary(t *testing.T) {
	tests := []struct {
		name       string
		typ        types.BlockrefType
		countEmpty bool
		want       string
	}{
		{
			name: "volume",
			typ:  types.BlockrefTypeVolume,
			want: "7 blockref (3 inode, 1 indirect, 3 data, 0 dirent),  16.00KB",
		},
		{
			name:       "volume with empty",
			typ:        types.BlockrefTypeVolume,
			countEmpty: true,
			want:       "7 blockref (3 inode, 1 indirect, 3 data, 0 dirent, 5 empty),  16.00KB",
		},
		{
			name: "freemap",
			typ:  types.BlockrefTypeFreemap,
			want: "7 blockref (1 node, 2 leaf),  16.00KB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWalkStats(tt.typ)
			s.Counters = Counters{
				TotalBlockref: 7, TotalEmpty: 5, TotalBytes: 16384,
				Inode: 3, Indirect: 1, Data: 3, FreemapNode: 1, FreemapLeaf: 2,
			}
			assert.Equal(t, tt.want, s.Summary(tt.countEmpty))
		})
	}
}

func TestDiagnosticLogOrdersByOffset(t *testing.T) {
	log := NewDiagnosticLog()
	high := &types.Blockref{Type: types.BlockrefTypeData, DataOff: 0x80000c}
	low := &types.Blockref{Type: types.BlockrefTypeInode, DataOff: 0x40000a}

	log.Add(high, DiagnosticIntegrity, "Bad HAMMER2_CHECK_XXHASH64")
	log.Add(low, DiagnosticIntegrity, "Bad HAMMER2_CHECK_ISCSI32")
	log.Add(high, DiagnosticDecode, "Failed to decompress")

	assert.Equal(t, 3, log.Len())
	assert.Equal(t, 2, log.Offsets())

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, low.DataOff, entries[0].DataOff)
	assert.Equal(t, high.DataOff, entries[1].DataOff)
	assert.Len(t, entries[1].Diagnostics, 2)
	assert.Len(t, log.At(high.DataOff), 2)
	assert.Nil(t, log.At(0x1234))
}

func TestFormatDiagnostic(t *testing.T) {
	d := &Diagnostic{
		Blockref: types.Blockref{Type: types.BlockrefTypeData, DataOff: 0x40000c, Key: 0x10000, Keybits: 16},
		Message:  "Bad HAMMER2_CHECK_XXHASH64",
	}
	got := FormatDiagnostic(d)
	assert.Equal(t, "000000000040000c "+padRight(types.BlockrefTypeData.String(), 12)+" 0000000000010000/16 Bad HAMMER2_CHECK_XXHASH64", got)
}

func padRight(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s
}

func TestCountersAdd(t *testing.T) {
	a := Counters{TotalBlockref: 1, Inode: 1, TotalBytes: 1024}
	b := Counters{TotalBlockref: 2, Data: 2, TotalBytes: 8192}
	a.Add(&b)
	assert.Equal(t, Counters{TotalBlockref: 3, Inode: 1, Data: 2, TotalBytes: 9216}, a)
}
