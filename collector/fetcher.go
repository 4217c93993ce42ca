// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// ResourceResponse is what the injected fetch capability returns for
// a completed HTTP exchange. Status is the HTTP status code; Content
// is the full response body as text.
type ResourceResponse struct {
	Status  int
	Content string
}

// ResourceFetcher is the injected network capability. The collector
// treats it as opaque I/O: one call per script with a remote locator,
// no retries, no timeout of its own. Retry and timeout policy belong
// to the implementation (see HTTPResourceFetcher). A returned error
// means the transport itself failed; a non-2xx status arrives as a
// normal ResourceResponse.
type ResourceFetcher interface {
	FetchResource(ctx context.Context, url string) (ResourceResponse, error)
}

// Fetcher obtains raw source-map text for a resolved locator, either
// by decoding an inline data URI or by a single network fetch through
// the injected capability.
type Fetcher struct {
	resource ResourceFetcher
}

// NewFetcher creates a Fetcher over the given network capability.
func NewFetcher(resource ResourceFetcher) *Fetcher {
	return &Fetcher{resource: resource}
}

// Fetch returns the map text for a resolved locator. Both failure
// modes of a remote fetch are normalized into a single error shape
// prefixed "Error: " — a non-2xx status becomes
// "Error: Failed fetching source map (<status>)", a transport failure
// carries the capability's message unmodified after the prefix.
//
// Inline locators never touch the network. A data URI whose payload
// does not decode cleanly still returns content (the best-effort
// decoded bytes); the garbled text then fails at the parse stage,
// which is where malformed inline maps are reported.
func (f *Fetcher) Fetch(ctx context.Context, locator ResolvedLocator) (string, error) {
	if locator.Kind == LocatorInline {
		return decodeDataURI(locator.DataURI), nil
	}

	response, err := f.resource.FetchResource(ctx, locator.URL)
	if err != nil {
		return "", fmt.Errorf("Error: %s", err.Error())
	}
	if response.Status < 200 || response.Status >= 300 {
		return "", fmt.Errorf("Error: Failed fetching source map (%d)", response.Status)
	}
	return response.Content, nil
}

// decodeDataURI extracts the payload of a data: URI. The header
// before the first comma declares the encoding: ";base64" means
// base64, anything else means percent-encoding. Decoding is
// best-effort — on a malformed payload the partially decoded (or
// raw) text is returned so the JSON parser reports the failure with
// positional detail.
func decodeDataURI(uri string) string {
	rest := strings.TrimPrefix(uri, "data:")
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		// No payload separator at all: nothing to decode. The
		// empty content fails JSON parsing downstream.
		return ""
	}

	if hasBase64Marker(header) {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Keep whatever prefix decoded; the parse stage
			// reports the damage.
			return string(decoded)
		}
		return string(decoded)
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return payload
	}
	return unescaped
}

// hasBase64Marker reports whether the data URI header declares a
// base64-encoded payload ("data:application/json;base64,...").
func hasBase64Marker(header string) bool {
	for _, parameter := range strings.Split(header, ";") {
		if strings.EqualFold(strings.TrimSpace(parameter), "base64") {
			return true
		}
	}
	return false
}
