// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector acquires source maps for scripts observed on a
// running page. It consumes script-parsed events pushed by a protocol
// event source (see the cdp package), resolves each script's
// source-map locator, obtains the map payload (inline data URI or
// network fetch through an injected ResourceFetcher), parses it as
// JSON, and records one Artifact per script.
//
// # Collection window
//
// A Collector runs exactly one collection window through four states:
//
//	Idle → Collecting → Draining → Closed
//
// Start opens the window. While Collecting, each OnScriptParsed event
// with a non-empty locator spawns an independent goroutine that runs
// the resolve → fetch → parse pipeline and writes its Artifact into
// the slot reserved at event arrival. Stop transitions to Draining:
// no new events are accepted, and all in-flight tasks are awaited to
// completion (a join, never a cancellation — a started fetch always
// runs to its own conclusion). Once drained the window is Closed and
// Artifacts returns the final list.
//
// # Ordering and isolation
//
// The artifact list is ordered by event arrival, not by task
// completion: a later script's fast inline map never overtakes an
// earlier script's slow network fetch. Failures are isolated per
// script — a resolution, fetch, or parse failure becomes that
// script's ErrorMessage and has no effect on any other script or on
// the window itself. Scripts that carry no locator at all are omitted
// from the list entirely.
//
// # Error message contracts
//
// Consumers match on exact error text, so the formats below are part
// of the package API:
//
//	Could not resolve map url: <locator>
//	Error: Failed fetching source map (<status>)
//	Error: <transport message>
//	SyntaxError: <diagnostic> (offset <n>)
package collector
