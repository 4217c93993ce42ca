// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression algorithm used for a
// stored map payload. The database and bundle formats store the tag
// name, not the numeric value, so the values here are free to change.
type CompressionTag uint8

const (
	// CompressionZstd indicates zstd at the default level. The
	// standard choice (and the zero value): source maps are JSON and
	// compress 3-5x.
	CompressionZstd CompressionTag = iota

	// CompressionLZ4 indicates LZ4 block compression. Fast, modest
	// ratio. For stores on slow disks where decode speed dominates.
	CompressionLZ4

	// CompressionNone indicates uncompressed data. Also chosen
	// automatically when a payload does not shrink (tiny maps).
	CompressionNone
)

// errIncompressible signals that compressed output would be at least
// as large as the input, so the payload should be stored raw.
var errIncompressible = errors.New("mapstore: payload is incompressible")

// String returns the name stored in the database for a tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a compression tag from its string
// representation.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("mapstore: unknown compression tag: %q", name)
	}
}

// compressPayload compresses data with the preferred algorithm,
// falling back to CompressionNone when the payload does not shrink.
// Returns the stored bytes and the tag that actually applies.
func compressPayload(data []byte, preferred CompressionTag) ([]byte, CompressionTag, error) {
	compressed, err := compress(data, preferred)
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, preferred, nil
}

// compress compresses data using the specified algorithm. For
// CompressionNone, returns the input unchanged (no copy).
func compress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("mapstore: unsupported compression tag: %d", tag)
	}
}

// decompress decompresses data that was compressed with the specified
// algorithm. The uncompressedSize must match the original length
// exactly — this is verified and a mismatch returns an error.
func decompress(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("mapstore: raw payload size %d does not match expected %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil
	case CompressionLZ4:
		return decompressLZ4(compressed, uncompressedSize)
	case CompressionZstd:
		return decompressZstd(compressed, uncompressedSize)
	default:
		return nil, fmt.Errorf("mapstore: unsupported compression tag: %d", tag)
	}
}

// LZ4 compression: block-mode LZ4.

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("mapstore: lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible. Also reject output that failed to shrink.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}

	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("mapstore: lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("mapstore: lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// Zstd compression: default level — good ratio without excessive CPU.

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use
// in the EncodeAll/DecodeAll mode used here.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("mapstore: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("mapstore: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, 0, uncompressedSize)
	decompressed, err := zstdDecoder.DecodeAll(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("mapstore: zstd decompress: %w", err)
	}
	if len(decompressed) != uncompressedSize {
		return nil, fmt.Errorf("mapstore: zstd decompress: got %d bytes, expected %d",
			len(decompressed), uncompressedSize)
	}
	return decompressed, nil
}
