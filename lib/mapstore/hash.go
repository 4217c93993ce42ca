// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest addressing one stored map payload.
type Hash [32]byte

// contentDomainKey is the 32-byte key for BLAKE3 keyed hashing of map
// payloads. Domain separation keeps these hashes from ever colliding
// with hashes of the same bytes computed in another context. The key
// is a fixed constant — changing it invalidates every stored content
// address. The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes, which keeps the key inspectable in hex
// dumps without sacrificing any property of BLAKE3 keyed mode.
var contentDomainKey = [32]byte{
	'm', 'a', 'p', 'g', 'r', 'a', 'b', '.', 'm', 'a', 'p', '.',
	'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashContent computes the content address of a map payload. Hashes
// are always computed on the uncompressed canonical JSON, so dedup
// survives compression algorithm changes.
func HashContent(data []byte) Hash {
	hasher, err := blake3.NewKeyed(contentDomainKey[:])
	if err != nil {
		panic("mapstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var result Hash
	copy(result[:], hasher.Sum(nil))
	return result
}

// String returns the lowercase hex form used in the database and in
// CLI output.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses the lowercase hex form back into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("mapstore: invalid hash %q: %w", s, err)
	}
	if len(decoded) != len(h) {
		return h, fmt.Errorf("mapstore: invalid hash %q: got %d bytes, want %d", s, len(decoded), len(h))
	}
	copy(h[:], decoded)
	return h, nil
}
