package fsck

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-hammer2/internal/services"
)

func sampleResponse() *Response {
	stats := &Stats{
		Counters:  services.Counters{TotalBlockref: 1234, TotalBytes: 64 * 1024, Inode: 3, Data: 1231},
		CacheHits: 2,
		Summary:   "total blockref 1234, ...",
	}
	return &Response{
		Volumes:  []string{"hammer2.img"},
		BestZone: 0,
		Passes: []Pass{
			{
				Name: "volume-header",
				Zones: []Zone{
					{Zone: 0, Heading: "zone.0 0000000000000010 (best)"},
					{Zone: 1, Heading: "zone.1 0000000000000008", Problems: []string{"Bad volume header CRC"}},
				},
			},
			{
				Name: "volume",
				Zones: []Zone{
					{
						Zone:    0,
						Heading: "zone.0 0000000000000010 (best)",
						Stats:   stats,
						Diagnostics: []Diagnostic{{
							DataOff: "0000000000410010",
							Type:    "data",
							Kind:    "integrity",
							Message: "Bad HAMMER2_CHECK_XXHASH64",
							Line:    "0000000000410010 data Bad HAMMER2_CHECK_XXHASH64",
							Media:   []string{"media bytes"},
						}},
					},
				},
			},
		},
		Failed:  true,
		Error:   "volume: subtree failed",
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantErr  bool
		validate func(*testing.T, string)
	}{
		{
			name:   "table format",
			format: "table",
			validate: func(t *testing.T, output string) {
				lines := strings.Split(output, "\n")
				assert.Equal(t, "volume-header", lines[0])
				assert.Equal(t, "zone.0 0000000000000010 (best)", lines[1])
				assert.Equal(t, "zone.1 0000000000000008", lines[2])
				assert.Equal(t, "    Bad volume header CRC", lines[3])
				assert.Equal(t, "volume", lines[4])
				assert.Equal(t, "    total blockref 1234, ...", lines[6])
				assert.Equal(t, "    0000000000410010 data Bad HAMMER2_CHECK_XXHASH64", lines[7])
				assert.Equal(t, "        media bytes", lines[8])
				assert.Contains(t, output, "CACHE HITS")
				assert.Contains(t, output, "1,234")
				assert.Contains(t, output, "64 KiB")
				assert.Contains(t, output, "Verification failed: volume: subtree failed")
			},
		},
		{
			name:   "json format",
			format: "json",
			validate: func(t *testing.T, output string) {
				var decoded map[string]any
				require.NoError(t, json.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, true, decoded["failed"])
				passes := decoded["passes"].([]any)
				require.Len(t, passes, 2)
				zone := passes[1].(map[string]any)["zones"].([]any)[0].(map[string]any)
				stats := zone["stats"].(map[string]any)
				assert.EqualValues(t, 1234, stats["total_blockref"])
				assert.NotContains(t, output, "Line")
			},
		},
		{
			name:   "yaml format",
			format: "yaml",
			validate: func(t *testing.T, output string) {
				var decoded map[string]any
				require.NoError(t, yaml.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, true, decoded["failed"])
				assert.Contains(t, output, "total_blockref: 1234")
				assert.Contains(t, output, "message: Bad HAMMER2_CHECK_XXHASH64")
			},
		},
		{
			name:    "unknown format",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := FormatOutput(&buf, sampleResponse(), tt.format)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported output format")
				return
			}
			require.NoError(t, err)
			tt.validate(t, buf.String())
		})
	}
}

func TestFormatSummary(t *testing.T) {
	resp := sampleResponse()
	assert.Equal(t, "Verified 1,234 blockrefs in 1 walk with 1 diagnostic in 1.5s", FormatSummary(resp))

	resp.Passes[1].Zones[0].Diagnostics = nil
	resp.Passes[1].Zones = append(resp.Passes[1].Zones, resp.Passes[1].Zones[0])
	assert.Equal(t, "Verified 2,468 blockrefs in 2 walks in 1.5s", FormatSummary(resp))
}

func TestSummaryRows(t *testing.T) {
	rows := summaryRows(sampleResponse())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"volume-header", "0", "-", "-", "0", "-"}, rows[0])
	assert.Equal(t, []string{"volume-header", "1", "-", "-", "1", "-"}, rows[1])
	assert.Equal(t, []string{"volume", "0", "1,234", "64 KiB", "1", "2"}, rows[2])
}
