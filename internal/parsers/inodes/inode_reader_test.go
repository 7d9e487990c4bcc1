package inodes

import (
	"testing"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/layout"
	"github.com/deploymenttheory/go-hammer2/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInode() *types.InodeData {
	ip := &types.InodeData{}
	ip.Meta.Version = 1
	ip.Meta.Type = types.ObjTypeDirectory
	ip.Meta.Inum = 1
	ip.Meta.Mode = 0o755
	ip.Meta.NLinks = 2
	ip.Meta.PFSType = types.PFSTypeMaster
	ip.Meta.PFSInum = 16
	ip.Meta.OpFlags = types.OpFlagPFSRoot
	ip.Meta.CompAlgo = uint8(types.CompLZ4)
	ip.Meta.CheckAlgo = uint8(types.CheckXXHash64)
	ip.Meta.MTime = 1_000_000
	SetFilename(ip, "DATA")

	var set types.Blockset
	set[0] = types.Blockref{Type: types.BlockrefTypeInode, DataOff: 0x40000a, Key: 1}
	SetBlockset(ip, &set)
	return ip
}

func TestParseInode(t *testing.T) {
	want := createTestInode()
	data := EncodeInode(want)
	require.Len(t, data, types.InodeBytes)

	got, err := ParseInode(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "DATA", got.Name())
	assert.True(t, got.Meta.IsPFSRoot())
	assert.False(t, got.Meta.IsDirectData())
	assert.Equal(t, "01-Jan-1970 00:00:01", types.TimeString(got.Meta.MTime))

	set, err := Blockset(got)
	require.NoError(t, err)
	assert.Equal(t, types.BlockrefTypeInode, set[0].Type)
	assert.Equal(t, types.BlockrefTypeEmpty, set[1].Type)
}

func TestParseInodeFieldOffsets(t *testing.T) {
	data := make([]byte, types.InodeBytes)
	data[0x50] = uint8(types.ObjTypeRegFile)
	data[0x51] = types.OpFlagDirectData
	endian.PutUint64(data[0x58:0x60], 99)
	endian.PutUint64(data[0x60:0x68], 5)
	data[0x87] = uint8(types.PFSTypeSupRoot)
	copy(data[0x200:], "hello")

	ip, err := ParseInode(data)
	require.NoError(t, err)
	assert.Equal(t, types.ObjTypeRegFile, ip.Meta.Type)
	assert.Equal(t, uint64(99), ip.Meta.Inum)
	assert.Equal(t, types.PFSTypeSupRoot, ip.Meta.PFSType)

	direct, ok := ip.DirectData()
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), direct)

	_, err = Blockset(ip)
	assert.ErrorIs(t, err, ErrDirectData)
}

func TestParseInodeSize(t *testing.T) {
	_, err := ParseInode(make([]byte, 512))
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)
}
