package services

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// ErrUnsupportedCompression is returned for compression codes this build does not know.
var ErrUnsupportedCompression = errors.New("unsupported compression algorithm")

// ErrDecompress is returned when a compressed payload cannot be decoded.
var ErrDecompress = errors.New("decompression failed")

// lz4HeaderBytes is the little-endian compressed length prefixed to LZ4 payloads.
const lz4HeaderBytes = 4

// CompressionService decodes HAMMER2 DATA block payloads.
type CompressionService struct{}

// NewCompressionService creates a new compression service
func NewCompressionService() *CompressionService {
	return &CompressionService{}
}

// outputLimit bounds the decompressed size of a block.
func outputLimit(bref *types.Blockref) int {
	limit := bref.LogicalBytes()
	if limit == 0 || limit > types.PBufSize {
		limit = types.PBufSize
	}
	return int(limit)
}

// Decompress decodes media according to the compression half of bref.Methods.
func (cs *CompressionService) Decompress(bref *types.Blockref, media []byte) ([]byte, error) {
	switch algo := bref.CompAlgo(); algo {
	case types.CompNone:
		return append([]byte(nil), media...), nil
	case types.CompAutoZero:
		if len(media) == 0 {
			return make([]byte, outputLimit(bref)), nil
		}
		return append([]byte(nil), media...), nil
	case types.CompLZ4:
		return cs.DecompressLZ4(media, outputLimit(bref))
	case types.CompZlib:
		return cs.DecompressZlib(media, outputLimit(bref))
	default:
		return nil, fmt.Errorf("compression algorithm %d: %w", uint8(algo), ErrUnsupportedCompression)
	}
}

// DecompressLZ4 decodes a length-prefixed LZ4 block into at most limit bytes.
func (cs *CompressionService) DecompressLZ4(media []byte, limit int) ([]byte, error) {
	if len(media) < lz4HeaderBytes {
		return nil, fmt.Errorf("insufficient data for lz4 header: %w", ErrDecompress)
	}
	n := int(binary.LittleEndian.Uint32(media[:lz4HeaderBytes]))
	if n > len(media)-lz4HeaderBytes {
		return nil, fmt.Errorf("lz4 length %d exceeds %d payload bytes: %w", n, len(media)-lz4HeaderBytes, ErrDecompress)
	}

	dst := make([]byte, limit)
	written, err := lz4.UncompressBlock(media[lz4HeaderBytes:lz4HeaderBytes+n], dst)
	if err != nil {
		return nil, fmt.Errorf("lz4: %v: %w", err, ErrDecompress)
	}
	return dst[:written], nil
}

// DecompressZlib decodes a zlib stream into at most limit bytes.
func (cs *CompressionService) DecompressZlib(media []byte, limit int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(media))
	if err != nil {
		return nil, fmt.Errorf("zlib header: %v: %w", err, ErrDecompress)
	}
	defer reader.Close()

	var result bytes.Buffer
	n, err := result.ReadFrom(io.LimitReader(reader, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("zlib: %v: %w", err, ErrDecompress)
	}
	if n > int64(limit) {
		return nil, fmt.Errorf("zlib output exceeds %d bytes: %w", limit, ErrDecompress)
	}
	return result.Bytes(), nil
}

// CompressLZ4 encodes data in the length-prefixed LZ4 layout, padded to size.
func (cs *CompressionService) CompressLZ4(data []byte, size int) ([]byte, error) {
	out := make([]byte, lz4HeaderBytes+lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, out[lz4HeaderBytes:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("lz4 compress: data is incompressible")
	}
	binary.LittleEndian.PutUint32(out[:lz4HeaderBytes], uint32(n))
	return pad(out[:lz4HeaderBytes+n], size)
}

// CompressZlib encodes data as a zlib stream, padded to size.
func (cs *CompressionService) CompressZlib(data []byte, size int) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return pad(buf.Bytes(), size)
}

func pad(data []byte, size int) ([]byte, error) {
	if len(data) > size {
		return nil, fmt.Errorf("compressed size %d exceeds block size %d", len(data), size)
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}
