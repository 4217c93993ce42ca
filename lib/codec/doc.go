// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Mapgrab's standard CBOR encoding configuration.
//
// Mapgrab uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the DevTools wire protocol, source
//     maps themselves, and CLI --json output.
//   - CBOR for internal formats: export bundle records and any on-disk
//     state that is not the SQLite store.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Mapgrab package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes — which is what makes export bundles of the same run
// byte-comparable.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (bundle files):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
