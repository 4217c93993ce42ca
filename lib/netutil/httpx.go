// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O utilities for Mapgrab.
//
// HTTP response helpers (ReadResponse, DecodeResponse, ErrorBody) bound all
// response body reads at MaxResponseSize to prevent unbounded memory
// allocation from a misbehaving or malicious server. They cover the two HTTP
// surfaces of the system: DevTools endpoint discovery (/json/list,
// /json/version) and source-map downloads. Neither is a streaming surface —
// a source map is consumed whole or not at all.
//
// Connection error helpers (IsExpectedCloseError) classify errors that occur
// during normal teardown of the DevTools WebSocket read loop.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on HTTP response body reads: 256 MB. This
// exists solely to prevent a pathological response from exhausting system
// memory. Real source maps for large bundles reach tens of megabytes; the
// limit is intentionally generous so that it never interferes with a
// legitimate map.
const MaxResponseSize int64 = 256 << 20

// ReadResponse reads an HTTP response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON response body (up to MaxResponseSize bytes)
// and JSON-decodes it into v. Replaces the common io.ReadAll + json.Unmarshal
// pattern.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a string for
// diagnostic error messages. Read errors are silently ignored — a partial or
// empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
