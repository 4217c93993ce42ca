// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

// ScriptParsedEvent is the inbound notification that the page loaded
// and compiled a script. URL is the script's own URL; SourceMapURL is
// the source-map locator the runtime reported for it — empty when the
// script declares no map, otherwise an absolute URL, a relative URL
// reference, or a data: URI carrying the map inline.
type ScriptParsedEvent struct {
	URL          string `json:"url"`
	SourceMapURL string `json:"sourceMapURL"`
}

// Artifact is the per-script output record of a collection window.
// Exactly one of Map and ErrorMessage is set: a script either yielded
// a syntactically valid map or a recorded failure. Scripts with no
// locator produce no Artifact at all.
type Artifact struct {
	// ScriptURL is the URL of the script the map belongs to.
	ScriptURL string `json:"scriptUrl"`

	// SourceMapURL is the fully resolved map URL for remote
	// locators. Empty for inline (data: URI) maps and for locators
	// that failed resolution — in both cases there is no network
	// URL to report.
	SourceMapURL string `json:"sourceMapUrl,omitempty"`

	// Map is the decoded JSON structure of the source map. The
	// schema (version, sources, mappings, names) is opaque to this
	// package; only syntactic validity was checked.
	Map any `json:"map,omitempty"`

	// ErrorMessage records why no map was obtained, in one of the
	// exact formats documented in the package comment.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// assembleArtifacts compacts the position-indexed slot buffer into
// the final list: slots are visited in event-arrival order and nil
// slots (reserved but never filled — impossible after a drain) are
// skipped. Pure and synchronous; the caller holds the window sealed.
func assembleArtifacts(slots []*Artifact) []Artifact {
	artifacts := make([]Artifact, 0, len(slots))
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		artifacts = append(artifacts, *slot)
	}
	return artifacts
}
