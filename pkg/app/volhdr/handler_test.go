package volhdr

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/imagebuilder"
	"github.com/deploymenttheory/go-hammer2/internal/types"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

func writeSample(t *testing.T, mutate func(s *imagebuilder.Sample)) string {
	t.Helper()
	sample, err := imagebuilder.NewSample(imagebuilder.DefaultSampleSize)
	require.NoError(t, err)
	if mutate != nil {
		mutate(sample)
	}
	path := filepath.Join(t.TempDir(), "hammer2.img")
	require.NoError(t, sample.Builder.WriteFile(path))
	return path
}

func testContext() *app.Context {
	ctx := app.NewContext()
	ctx.Out = &bytes.Buffer{}
	ctx.Stderr = &bytes.Buffer{}
	return ctx
}

func TestHandle(t *testing.T) {
	path := writeSample(t, nil)

	resp, err := Handle(testContext(), &Request{VolumePaths: []string{path}})
	require.NoError(t, err)
	require.Len(t, resp.Volumes, 1)

	vol := resp.Volumes[0]
	assert.Equal(t, path, vol.Path)
	assert.Equal(t, 0, vol.BestZone)
	require.Len(t, vol.Zones, 1)

	zone := vol.Zones[0]
	assert.Equal(t, "Volume 0 header 0: mirror_tid=0000000000000001", zone.Summary)
	assert.Empty(t, zone.Problems)
	require.NotNil(t, zone.Header)

	h := zone.Header
	assert.Equal(t, types.VolumeIDHBO, h.Magic)
	assert.Equal(t, uint64(imagebuilder.DefaultSampleSize), h.VoluSize)
	assert.Equal(t, types.UUIDString(types.HAMMER2FSType()), h.FSType)
	require.Len(t, h.CRCs, 3)
	for _, c := range h.CRCs {
		assert.True(t, c.OK, c.Name)
	}

	lines := h.Lines
	assert.Equal(t, "Volume 0 header 0 {", lines[0])
	assert.Equal(t, "    magic          0x48414d3205172011", lines[1])
	assert.Equal(t, "    volu_size      0x0000000001000000 (  0.02GB)", lines[6])
	assert.Contains(t, lines, "                   (DragonFly HAMMER2)")
	assert.Contains(t, lines, "    volu_loff[0]   0x0000000000000000")
	assert.Equal(t, "}", lines[len(lines)-1])

	text := strings.Join(lines, "\n")
	assert.Contains(t, text, "icrc_sects[7]")
	assert.Contains(t, text, "(reserved)")
	assert.NotContains(t, text, "FAILED")
	assert.Contains(t, text, "        inode.0        ")
	assert.Contains(t, text, "        freemap_node.0 ")
	assert.Contains(t, text, "        empty.1        ")

	column := -1
	for _, line := range lines {
		if !strings.Contains(line, " vol=") {
			continue
		}
		if column < 0 {
			column = strings.Index(line, " vol=")
		}
		assert.Equal(t, column, strings.Index(line, " vol="), line)
	}
	assert.Positive(t, column)
}

func TestHandleReportsCRCFailures(t *testing.T) {
	path := writeSample(t, func(s *imagebuilder.Sample) {
		s.Builder.Corrupt(512 + 3*types.BlockrefBytes + 0x50)
	})

	resp, err := Handle(testContext(), &Request{VolumePaths: []string{path}, AllZones: true})
	require.NoError(t, err)
	zone := resp.Volumes[0].Zones[0]
	assert.Equal(t, []string{"Bad HAMMER2_VOL_ICRC_SECT1 CRC", "Bad volume header CRC"}, zone.Problems)
	require.NotNil(t, zone.Header)

	text := strings.Join(zone.Header.Lines, "\n")
	assert.Contains(t, text, "(FAILED)")
	assert.Contains(t, text, "(FAILED - not a critical error)")
}

func TestHandleErrors(t *testing.T) {
	_, err := Handle(testContext(), &Request{})
	assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode(err))

	_, err = Handle(testContext(), &Request{VolumePaths: []string{"/nonexistent/hammer2.img"}})
	assert.Equal(t, app.ErrCodeVolumeAccess, app.ErrorCode(err))
}

func TestFormatOutput(t *testing.T) {
	path := writeSample(t, nil)
	resp, err := Handle(testContext(), &Request{VolumePaths: []string{path}})
	require.NoError(t, err)

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
				assert.Equal(t, path, lines[0])
				assert.Equal(t, "Volume 0 header 0: mirror_tid=0000000000000001", lines[1])
				assert.Equal(t, "", lines[2])
				assert.Equal(t, "Volume 0 header 0 {", lines[3])
				assert.Contains(t, output, "OK (best)")
				assert.Contains(t, output, "16 MiB")
			},
		},
		{
			name:   "json format",
			format: "json",
			validate: func(t *testing.T, output string) {
				assert.Contains(t, output, `"best_zone": 0`)
				assert.Contains(t, output, `"name": "sector 0"`)
				assert.NotContains(t, output, "magic          ")
			},
		},
		{
			name:   "yaml format",
			format: "yaml",
			validate: func(t *testing.T, output string) {
				assert.Contains(t, output, "volu_id: 0")
				assert.Contains(t, output, "mirror_tid: 1")
			},
		},
		{name: "unknown format", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := FormatOutput(&buf, resp, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, buf.String())
		})
	}
}

func TestFormatSeparatesVolumes(t *testing.T) {
	resp := &Response{Volumes: []Volume{
		{ID: 0, Path: "a.img", Zones: []Zone{{Summary: "Volume 0 header 0: mirror_tid=0000000000000002"}}},
		{ID: 1, Path: "b.img", Zones: []Zone{{Summary: "Volume 1 header 0: mirror_tid=0000000000000002"}}},
	}}
	var buf bytes.Buffer
	require.NoError(t, FormatOutput(&buf, resp, "table"))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, []string{
		"a.img",
		"Volume 0 header 0: mirror_tid=0000000000000002",
		volumeSeparator,
		"b.img",
		"Volume 1 header 0: mirror_tid=0000000000000002",
	}, lines[:5])
}
