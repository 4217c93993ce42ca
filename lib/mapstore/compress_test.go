// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore

import (
	"bytes"
	"strings"
	"testing"
)

// compressibleSample is representative of real payloads: JSON with
// long repeated runs, which every algorithm shrinks.
var compressibleSample = []byte(`{"version":3,"mappings":"` + strings.Repeat("AAAA;", 400) + `"}`)

func TestCompressRoundTrip(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, err := compress(compressibleSample, tag)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			if len(compressed) >= len(compressibleSample) {
				t.Errorf("compressed to %d bytes, input was %d", len(compressed), len(compressibleSample))
			}

			decompressed, err := decompress(compressed, tag, len(compressibleSample))
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			if !bytes.Equal(decompressed, compressibleSample) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestCompressPayloadFallsBackToNone(t *testing.T) {
	// Tiny high-entropy input does not shrink under any algorithm.
	input := []byte{0x01, 0xfe, 0x42, 0x99, 0x7a}

	for _, preferred := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		body, tag, err := compressPayload(input, preferred)
		if err != nil {
			t.Fatalf("compressPayload(%s): %v", preferred, err)
		}
		if tag != CompressionNone {
			t.Errorf("tag = %s, want none", tag)
		}
		if !bytes.Equal(body, input) {
			t.Error("raw fallback altered payload")
		}
	}
}

func TestDecompressVerifiesSize(t *testing.T) {
	compressed, err := compress(compressibleSample, CompressionZstd)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if _, err := decompress(compressed, CompressionZstd, len(compressibleSample)+1); err == nil {
		t.Error("expected size mismatch error")
	}
	if _, err := decompress([]byte("abc"), CompressionNone, 5); err == nil {
		t.Error("expected raw size mismatch error")
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompressionTag(tag.String())
		if err != nil {
			t.Fatalf("ParseCompressionTag(%q): %v", tag.String(), err)
		}
		if parsed != tag {
			t.Errorf("ParseCompressionTag(%q) = %s", tag.String(), parsed)
		}
	}
	if _, err := ParseCompressionTag("brotli"); err == nil {
		t.Error("expected error for unknown tag name")
	}
}

func TestHashContent(t *testing.T) {
	first := HashContent([]byte(`{"version":3}`))
	second := HashContent([]byte(`{"version":3}`))
	if first != second {
		t.Error("hash is not deterministic")
	}
	if HashContent([]byte(`{"version":4}`)) == first {
		t.Error("distinct payloads collided")
	}

	parsed, err := ParseHash(first.String())
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != first {
		t.Errorf("ParseHash(%q) = %s", first.String(), parsed)
	}
	if _, err := ParseHash("deadbeef"); err == nil {
		t.Error("expected error for short hash")
	}
}
