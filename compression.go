package chatsheet

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CompressionType is the compression wrapped around an input file.
type CompressionType int

const (
	// CompressionNone is an uncompressed file
	CompressionNone CompressionType = iota
	// CompressionGZ is gzip
	CompressionGZ
	// CompressionBZ2 is bzip2
	CompressionBZ2
	// CompressionXZ is xz
	CompressionXZ
	// CompressionZSTD is zstandard
	CompressionZSTD
)

// Compression extensions
const (
	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
)

var compressionExtensions = []struct {
	ext string
	typ CompressionType
}{
	{extGZ, CompressionGZ},
	{extBZ2, CompressionBZ2},
	{extXZ, CompressionXZ},
	{extZSTD, CompressionZSTD},
}

// String returns the name of the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionGZ:
		return "gzip"
	case CompressionBZ2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// splitCompression returns the path without its compression extension and
// the compression it names.
func splitCompression(path string) (string, CompressionType) {
	lower := strings.ToLower(path)
	for _, c := range compressionExtensions {
		if strings.HasSuffix(lower, c.ext) {
			return path[:len(path)-len(c.ext)], c.typ
		}
	}
	return path, CompressionNone
}

// newDecompressReader wraps reader with a decompressor for the compression type.
// The returned close function releases the decompressor only.
func newDecompressReader(reader io.Reader, c CompressionType) (io.Reader, func() error, error) {
	switch c {
	case CompressionNone:
		return reader, func() error { return nil }, nil

	case CompressionGZ:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case CompressionBZ2:
		return bzip2.NewReader(reader), func() error { return nil }, nil

	case CompressionXZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, func() error { return nil }, nil

	case CompressionZSTD:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression type: %v", c)
	}
}
