package checksums

import (
	"encoding/hex"
	"testing"

	"github.com/deploymenttheory/go-hammer2/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXXHash64Vectors(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{input: "", want: 0x84566ac0f5a0cb84},
		{input: "hammer2", want: 0xa041be268b5674e5},
		{input: "A", want: 0xe1ce53434b3aad24},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, XXHash64([]byte(tt.input)), "input %q", tt.input)
	}
}

func TestSHA192Vector(t *testing.T) {
	full, err := hex.DecodeString("8a6606c9532c846c617512bce93e4c5496dde608b985d1aefcc9156314928c6f")
	require.NoError(t, err)
	sum := SHA192([]byte("hammer2"))
	assert.Equal(t, full[:24], sum[:])
}

func TestISCSI32(t *testing.T) {
	assert.Equal(t, uint32(0), ISCSI32(nil))
	// Standard CRC-32C check value.
	assert.Equal(t, uint32(0xe3069283), ISCSI32([]byte("123456789")))
}

func createPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func TestSealVerifyRoundTrip(t *testing.T) {
	algos := []types.CheckAlgorithm{
		types.CheckISCSI32,
		types.CheckXXHash64,
		types.CheckSHA192,
		types.CheckFreemap,
	}
	verifier := NewChecksumVerifier(false)

	for _, algo := range algos {
		t.Run(algo.String(), func(t *testing.T) {
			media := createPayload(16384)
			bref := &types.Blockref{
				Type:    types.BlockrefTypeIndirect,
				Methods: types.EncodeMethods(algo, types.CompNone),
				DataOff: 0x40000e,
			}
			require.NoError(t, Seal(bref, media))

			ok, err := verifier.Verify(bref, media)
			require.NoError(t, err)
			assert.True(t, ok, "sealed payload must verify")

			for _, pos := range []int{0, 1, len(media) / 2, len(media) - 1} {
				flipped := append([]byte(nil), media...)
				flipped[pos] ^= 0x01
				ok, err := verifier.Verify(bref, flipped)
				require.NoError(t, err)
				assert.False(t, ok, "flipped byte %d must fail", pos)
			}
		})
	}
}

func TestSealPreservesFreemapFields(t *testing.T) {
	bref := &types.Blockref{Methods: types.EncodeMethods(types.CheckFreemap, types.CompNone)}
	bref.SetFreemap(types.FreemapCheck{Bigmask: 0xFFFF, Avail: 1 << 30})
	media := createPayload(32768)
	require.NoError(t, Seal(bref, media))

	fm := bref.Freemap()
	assert.Equal(t, uint32(0xFFFF), fm.Bigmask)
	assert.Equal(t, uint64(1<<30), fm.Avail)
	assert.Equal(t, ISCSI32(media), fm.ICRC32)
}

func TestVerifyNoneStrict(t *testing.T) {
	for _, algo := range []types.CheckAlgorithm{types.CheckNone, types.CheckDisabled} {
		bref := &types.Blockref{Methods: types.EncodeMethods(algo, types.CompNone)}

		ok, err := NewChecksumVerifier(false).Verify(bref, []byte("x"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = NewChecksumVerifier(true).Verify(bref, []byte("x"))
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestVerifyUnsupported(t *testing.T) {
	bref := &types.Blockref{Methods: types.EncodeMethods(types.CheckAlgorithm(9), types.CompNone)}
	_, err := NewChecksumVerifier(false).Verify(bref, []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedCheck)
	assert.ErrorIs(t, Seal(bref, []byte("x")), ErrUnsupportedCheck)
}

func TestVerifyUsesHighNibble(t *testing.T) {
	media := createPayload(1024)
	bref := &types.Blockref{Methods: types.EncodeMethods(types.CheckXXHash64, types.CompZlib)}
	require.NoError(t, Seal(bref, media))
	assert.Equal(t, uint8(0x33), bref.Methods)

	ok, err := VerifyMethods(bref.Methods, media, &bref.Check, true)
	require.NoError(t, err)
	assert.True(t, ok)
}
