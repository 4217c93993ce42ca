// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoSourceMap is returned by Resolve when the script carries no
// source-map locator. Callers skip the script entirely — no Artifact
// is produced for it.
var ErrNoSourceMap = errors.New("collector: script has no source map locator")

// LocatorKind distinguishes the two ways a resolved locator yields
// map content.
type LocatorKind int

const (
	// LocatorRemote means the map must be fetched from an absolute
	// URL over the injected fetch capability.
	LocatorRemote LocatorKind = iota

	// LocatorInline means the map is embedded in the locator itself
	// as a data: URI and no network I/O occurs.
	LocatorInline
)

// ResolvedLocator is the outcome of resolving a source-map locator
// against its owning script's URL. It is ephemeral — consumed by the
// Fetcher and never persisted.
type ResolvedLocator struct {
	// Kind selects which of the fields below is meaningful.
	Kind LocatorKind

	// URL is the absolute source-map URL. Set for LocatorRemote.
	URL string

	// DataURI is the full, undecoded data: URI. Set for
	// LocatorInline. Decoding happens in the Fetcher so that a
	// malformed payload surfaces as a parse-stage failure, not a
	// resolution failure.
	DataURI string
}

// Resolve turns a source-map locator into something the Fetcher can
// act on:
//
//   - empty locator: ErrNoSourceMap (the script is skipped)
//   - data: URI: an inline locator carrying the raw URI
//   - anything else: a URL reference resolved against scriptURL per
//     standard base-URL rules (absolute locators pass through,
//     relative ones including ../ segments resolve against the
//     script's directory, scheme-relative ones keep their own origin)
//
// A locator that resolves to nothing usable — a bare scheme with no
// host such as "http://" — fails with the exact message
// "Could not resolve map url: <locator>".
func Resolve(scriptURL, sourceMapURL string) (ResolvedLocator, error) {
	if sourceMapURL == "" {
		return ResolvedLocator{}, ErrNoSourceMap
	}

	if strings.HasPrefix(sourceMapURL, "data:") {
		return ResolvedLocator{Kind: LocatorInline, DataURI: sourceMapURL}, nil
	}

	reference, err := url.Parse(sourceMapURL)
	if err != nil {
		return ResolvedLocator{}, resolveError(sourceMapURL)
	}

	resolved := reference
	if !reference.IsAbs() {
		base, err := url.Parse(scriptURL)
		if err != nil || !base.IsAbs() {
			// A relative locator is meaningless without a valid
			// absolute base to resolve against.
			return ResolvedLocator{}, resolveError(sourceMapURL)
		}
		resolved = base.ResolveReference(reference)
	}

	if !usableURL(resolved) {
		return ResolvedLocator{}, resolveError(sourceMapURL)
	}

	return ResolvedLocator{Kind: LocatorRemote, URL: resolved.String()}, nil
}

// usableURL reports whether a resolved URL identifies an actual
// resource. "http://" parses cleanly but has neither host nor path
// nor opaque part — there is nothing to fetch.
func usableURL(u *url.URL) bool {
	if u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Path != "" || u.Opaque != ""
}

// resolveError formats the resolution failure for a locator. The
// message text is an exact external contract — it carries the literal
// offending locator string.
func resolveError(sourceMapURL string) error {
	return fmt.Errorf("Could not resolve map url: %s", sourceMapURL)
}
