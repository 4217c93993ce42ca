// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"strings"
	"testing"
)

func TestParseMapAcceptsAnyValidJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{name: "typical map", content: `{"version":3,"sources":["a.ts"],"mappings":"AAAA","names":[]}`},
		{name: "empty object", content: `{}`},
		{name: "array", content: `[1,2,3]`},
		{name: "bare string", content: `"not really a map, still valid JSON"`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseMap(test.content); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseMapReturnsStructureUnmodified(t *testing.T) {
	t.Parallel()
	parsed, err := ParseMap(`{"version":3,"sources":["src/a.ts","src/b.ts"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	object, ok := parsed.(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map[string]any", parsed)
	}
	if object["version"] != float64(3) {
		t.Errorf("version: got %v, want 3", object["version"])
	}
	sources, ok := object["sources"].([]any)
	if !ok || len(sources) != 2 {
		t.Fatalf("sources: got %v, want two entries", object["sources"])
	}
}

func TestParseMapSyntaxErrorFormat(t *testing.T) {
	t.Parallel()
	_, err := ParseMap("{{}")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	want := "SyntaxError: invalid character '{' looking for beginning of object key string (offset 2)"
	if err.Error() != want {
		t.Errorf("message: got %q, want %q", err.Error(), want)
	}
}

func TestParseMapEmptyContent(t *testing.T) {
	t.Parallel()
	_, err := ParseMap("")
	if err == nil {
		t.Fatal("expected syntax error for empty content")
	}
	if !strings.HasPrefix(err.Error(), "SyntaxError: ") {
		t.Errorf("message: got %q, want SyntaxError prefix", err.Error())
	}
}
