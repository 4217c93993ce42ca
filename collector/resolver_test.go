// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"errors"
	"testing"
)

func TestResolveEmptyLocator(t *testing.T) {
	t.Parallel()
	_, err := Resolve("http://example.com/bundle.js", "")
	if !errors.Is(err, ErrNoSourceMap) {
		t.Fatalf("got %v, want ErrNoSourceMap", err)
	}
}

func TestResolveAbsolutePassthrough(t *testing.T) {
	t.Parallel()
	locator, err := Resolve("http://example.com/path/bundle.js", "http://other.example.org/maps/bundle.js.map")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locator.Kind != LocatorRemote {
		t.Fatalf("kind: got %v, want LocatorRemote", locator.Kind)
	}
	if locator.URL != "http://other.example.org/maps/bundle.js.map" {
		t.Errorf("url: got %q, want the locator verbatim", locator.URL)
	}
}

func TestResolveRelative(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		scriptURL string
		locator   string
		want      string
	}{
		{
			name:      "sibling file",
			scriptURL: "http://example.com/path/bundle.js",
			locator:   "bundle.js.map",
			want:      "http://example.com/path/bundle.js.map",
		},
		{
			name:      "parent directory",
			scriptURL: "http://example.com/path/bundle.js",
			locator:   "../bundle.js.map",
			want:      "http://example.com/bundle.js.map",
		},
		{
			name:      "absolute path",
			scriptURL: "http://example.com/deep/nested/app.js",
			locator:   "/maps/app.js.map",
			want:      "http://example.com/maps/app.js.map",
		},
		{
			name:      "scheme relative keeps its own origin",
			scriptURL: "https://example.com/path/bundle.js",
			locator:   "//cdn.example.org/bundle.js.map",
			want:      "https://cdn.example.org/bundle.js.map",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			locator, err := Resolve(test.scriptURL, test.locator)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if locator.URL != test.want {
				t.Errorf("got %q, want %q", locator.URL, test.want)
			}
		})
	}
}

func TestResolveDataURI(t *testing.T) {
	t.Parallel()
	uri := "data:application/json;base64,eyJ2ZXJzaW9uIjozfQ=="
	locator, err := Resolve("http://example.com/bundle.js", uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locator.Kind != LocatorInline {
		t.Fatalf("kind: got %v, want LocatorInline", locator.Kind)
	}
	if locator.DataURI != uri {
		t.Errorf("data uri: got %q, want the locator verbatim", locator.DataURI)
	}
}

func TestResolveUnresolvable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		scriptURL string
		locator   string
	}{
		{
			name:      "bare scheme with no host",
			scriptURL: "http://example.com/bundle.js",
			locator:   "http://",
		},
		{
			name:      "relative locator against unparseable base",
			scriptURL: "::not a url::",
			locator:   "bundle.js.map",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Resolve(test.scriptURL, test.locator)
			if err == nil {
				t.Fatal("expected resolution error")
			}
			want := "Could not resolve map url: " + test.locator
			if err.Error() != want {
				t.Errorf("message: got %q, want %q", err.Error(), want)
			}
		})
	}
}
