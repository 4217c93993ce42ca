// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package cdp

import (
	"context"
	"encoding/json"
)

// Protocol methods of the Debugger domain used by the collector.
const (
	methodDebuggerEnable  = "Debugger.enable"
	methodDebuggerDisable = "Debugger.disable"
	eventScriptParsed     = "Debugger.scriptParsed"
)

// scriptParsedParams is the subset of the Debugger.scriptParsed event
// payload the collector consumes. The full event carries script ids,
// line ranges, and execution context details — all irrelevant to map
// acquisition.
type scriptParsedParams struct {
	URL          string `json:"url"`
	SourceMapURL string `json:"sourceMapURL"`
}

// EnableDebugger turns on the Debugger domain. The browser starts
// emitting Debugger.scriptParsed for every script it has already
// compiled and every script it compiles afterwards. Register script
// handlers with HandleScriptParsed before calling this, or the replay
// of already-compiled scripts is lost.
func (s *Session) EnableDebugger(ctx context.Context) error {
	return s.Call(ctx, methodDebuggerEnable, nil, nil)
}

// DisableDebugger turns the Debugger domain back off. Script events
// stop; the session stays usable.
func (s *Session) DisableDebugger(ctx context.Context) error {
	return s.Call(ctx, methodDebuggerDisable, nil, nil)
}

// HandleScriptParsed registers a handler for script-parsed events.
// The handler runs inline on the read loop in wire order and receives
// the script's URL and its source-map locator (empty when the script
// declares no map). It must not block.
func (s *Session) HandleScriptParsed(handler func(url, sourceMapURL string)) {
	s.Handle(eventScriptParsed, func(params json.RawMessage) {
		var parsed scriptParsedParams
		if err := json.Unmarshal(params, &parsed); err != nil {
			s.logger.Warn("malformed scriptParsed event", "error", err)
			return
		}
		handler(parsed.URL, parsed.SourceMapURL)
	})
}
