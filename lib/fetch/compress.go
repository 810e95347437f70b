// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how cache entries are stored on disk.
type Compression uint8

const (
	CompressionNone Compression = iota

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4

	// CompressionZstd is zstd at the default level. Archives are
	// usually already deflated, so the gain is mostly on stored
	// (uncompressed) JAR entries.
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Valid reports whether c is a declared method.
func (c Compression) Valid() bool { return c <= CompressionZstd }

// ParseCompression parses "none", "lz4", or "zstd". The empty string
// is "none".
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown cache compression %q (valid: none, lz4, zstd)", name)
	}
}

// errIncompressible reports that compressing would not shrink the data.
// The cache then stores the entry uncompressed.
var errIncompressible = errors.New("data is incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent use via
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("fetch: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("fetch: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(data []byte, method Compression) ([]byte, error) {
	switch method {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil
	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", method)
	}
}

// lz4MaxRatio is the largest expansion an LZ4 block can encode.
const lz4MaxRatio = 255

// zstdPreallocateLimit caps the buffer reserved up front for a zstd
// entry; larger entries grow the buffer while decoding.
const zstdPreallocateLimit = 16 << 20

// decompress reverses compress. size must be the exact original
// length.
func decompress(stored []byte, method Compression, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative decompressed size %d", size)
	}
	switch method {
	case CompressionNone:
		if len(stored) != size {
			return nil, fmt.Errorf("stored entry is %d bytes, expected %d", len(stored), size)
		}
		return stored, nil
	case CompressionLZ4:
		if size > len(stored)*lz4MaxRatio {
			return nil, fmt.Errorf("lz4 decompress: %d bytes cannot expand to %d", len(stored), size)
		}
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(stored, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, min(size, zstdPreallocateLimit)))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", method)
	}
}
