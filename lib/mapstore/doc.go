// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapstore persists the output of collection windows.
//
// A "run" is one sealed collection window: the page it was collected
// from, when, and the ordered artifact list the collector produced.
// Runs live in a single SQLite database (lib/sqlitepool). Map payloads
// are stored content-addressed — the BLAKE3 keyed hash of the map's
// canonical JSON — so the same bundle map collected across many runs
// is stored once. Payloads are compressed per-content (zstd by
// default; source maps are highly compressible JSON).
//
// Runs can be exported to and imported from bundle files: a zstd
// stream of deterministic CBOR records (lib/codec), optionally
// encrypted to age recipients. Export of identical runs is
// byte-identical, which makes bundles diffable by hash.
//
// The store records artifacts; it never interprets them. Symbolication
// and any other map consumption happen elsewhere.
package mapstore
