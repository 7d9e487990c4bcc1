package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, []byte("hammer2 volume"), 0o600))

	dev, err := Open(path)
	require.NoError(t, err)
	defer dev.Close()

	assert.Equal(t, uint64(14), dev.Size())
	assert.Equal(t, path, dev.Path())

	buf := make([]byte, 6)
	n, err := dev.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "volume", string(buf))
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.img"))
	assert.ErrorContains(t, err, "failed to stat volume")

	_, err = Open(dir)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, (&Device{}).Close())
}
