// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package cdp

import "encoding/json"

// Target describes one debuggable target from the browser's
// /json/list discovery endpoint. Pages are the interesting kind for
// source-map collection; service workers and extensions also appear.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// VersionInfo is the browser's /json/version response. The field
// names follow the DevTools wire format, capitalization included.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	V8Version            string `json:"V8-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// wireMessage is the single JSON shape all DevTools WebSocket traffic
// uses. Commands carry ID+Method+Params; replies carry ID+Result or
// ID+Error; events carry Method+Params and no ID.
type wireMessage struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// wireError is the error object in a failed command reply.
type wireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}
