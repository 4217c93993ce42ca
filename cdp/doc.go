// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package cdp is a minimal Chrome DevTools Protocol client: enough of
// the protocol to discover debuggable targets over the browser's HTTP
// endpoint and to drive a page's Debugger domain over its WebSocket.
//
// The package deliberately implements only what the source-map
// collector needs — target discovery, command/reply correlation, and
// event subscription. It is not a general CDP binding.
//
// Event handlers run inline on the session's read loop, in protocol
// order. This is a guarantee, not an accident: the collector's
// artifact ordering is defined by event arrival order, so the
// transport must not reorder events between the wire and the
// handlers. Handlers must therefore not block; hand long work to a
// goroutine (the collector does exactly that per script).
package cdp
