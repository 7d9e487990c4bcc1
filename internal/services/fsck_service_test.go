package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

func TestFsckRunCleanImage(t *testing.T) {
	_, vs := openSample(t)
	svc := NewFsckService(vs, FsckOptions{WalkOptions: WalkOptions{VerifyData: true}}, nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, 0, report.BestZone)

	require.Len(t, report.Passes, 3)
	names := []string{report.Passes[0].Name, report.Passes[1].Name, report.Passes[2].Name}
	assert.Equal(t, []string{PassVolumeHeader, PassFreemap, PassVolume}, names)

	for _, pass := range report.Passes {
		require.Len(t, pass.Zones, 2, pass.Name)
		assert.Equal(t, "zone.0 0000000000000010 (best)", pass.Zones[0].Heading())
		assert.True(t, pass.Zones[1].Exceeds)
		assert.Equal(t, "zone.1 exceeds volume size", pass.Zones[1].Heading())
		assert.Nil(t, pass.Cache, "cache is off without a threshold")
	}

	freemapStats := report.Passes[1].Zones[0].Stats
	assert.Equal(t, uint64(1), freemapStats.FreemapNode)
	assert.Equal(t, uint64(1), freemapStats.FreemapLeaf)

	volumeStats := report.Passes[2].Zones[0].Stats
	assert.Equal(t, uint64(7), volumeStats.TotalBlockref)
	assert.Empty(t, report.Passes[0].Zones[0].Problems)
}

func TestFsckRunContinuesPastIntegrityFailures(t *testing.T) {
	sample, vs := openSample(t)
	sample.Builder.Corrupt(sample.Data[0].Offset() + 1)
	sample.Builder.Corrupt(sample.FreemapLeaf.Offset() + 1)

	report, err := NewFsckService(vs, FsckOptions{}, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubtreeFailed)
	assert.Contains(t, err.Error(), PassFreemap+":")
	assert.True(t, report.Failed())

	require.Len(t, report.Passes, 3)
	assert.NoError(t, report.Passes[0].Err)
	assert.ErrorIs(t, report.Passes[1].Err, ErrSubtreeFailed)
	assert.ErrorIs(t, report.Passes[2].Err, ErrSubtreeFailed)

	diags := report.Passes[2].Zones[0].Stats.Diagnostics.At(sample.Data[0].DataOff)
	require.Len(t, diags, 1)
	assert.Equal(t, "Bad HAMMER2_CHECK_XXHASH64", diags[0].Message)
}

func TestFsckReportsHeaderProblems(t *testing.T) {
	sample, vs := openSample(t)
	// A byte of the unused fourth sroot blockref check area in sector 1.
	sample.Builder.Corrupt(512 + 3*types.BlockrefBytes + 0x50)

	report, err := NewFsckService(vs, FsckOptions{ScanBest: true}, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrVolumeHeaderDamaged)

	header := report.Passes[0]
	require.Len(t, header.Zones, 1)
	assert.Equal(t, "zone.0 0000000000000010", header.Zones[0].Heading())
	assert.Equal(t, []string{"Bad HAMMER2_VOL_ICRC_SECT1 CRC", "Bad volume header CRC"}, header.Zones[0].Problems)

	// The trees are still verified.
	require.Len(t, report.Passes, 3)
	assert.NoError(t, report.Passes[1].Err)
	assert.NoError(t, report.Passes[2].Err)
}

func TestFsckScanPFS(t *testing.T) {
	_, vs := openSample(t)
	opts := FsckOptions{ScanPFS: true, WalkOptions: WalkOptions{CacheThreshold: 1}}

	report, err := NewFsckService(vs, opts, nil).Run(context.Background())
	require.NoError(t, err)

	volume := report.Passes[2]
	require.NotNil(t, volume.Cache)
	zone := volume.Zones[0]
	require.Len(t, zone.PFSList, 1)
	require.Len(t, zone.PFSWalks, 1)
	assert.Equal(t, "ROOT", zone.PFSWalks[0].Name)
	// PFS root, file, indirect and three data blocks.
	assert.Equal(t, uint64(6), zone.PFSWalks[0].Stats.TotalBlockref)
}

func TestFsckPFSNames(t *testing.T) {
	_, vs := openSample(t)

	report, err := NewFsckService(vs, FsckOptions{ScanPFS: true, PFSNames: []string{"nope"}}, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrPFSNotFound)
	assert.Equal(t, []string{"PFS not found"}, report.Passes[2].Zones[0].Problems)
}

func TestFsckPrintPFS(t *testing.T) {
	_, vs := openSample(t)

	report, err := NewFsckService(vs, FsckOptions{PrintPFS: true}, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Passes, 1)

	zone := report.Passes[0].Zones[0]
	require.Len(t, zone.PFSList, 1)
	assert.Empty(t, zone.PFSWalks)
	assert.Equal(t, "ROOT", zone.PFSList[0].Name())
}

func TestFsckCancelledRunStops(t *testing.T) {
	_, vs := openSample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewFsckService(vs, FsckOptions{WalkOptions: WalkOptions{Force: true}}, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Passes, 1)
}

func TestFsckDescribeMedia(t *testing.T) {
	sample, vs := openSample(t)
	svc := NewFsckService(vs, FsckOptions{}, nil)

	lines, err := svc.DescribeMedia(&sample.File)
	require.NoError(t, err)
	assert.Contains(t, lines, `filename "hello"`)
	assert.Contains(t, lines, "inum 0x0000000000000002")
	assert.Contains(t, lines, "uflags 0x00000000")
	assert.Contains(t, lines, "op_flags 0x00")
	assert.Contains(t, lines, "cap_flags 0x0000")

	lines, err = svc.DescribeMedia(&sample.Indirect)
	require.NoError(t, err)
	assert.Len(t, lines, 8)
}
