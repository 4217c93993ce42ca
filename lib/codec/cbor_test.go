// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"testing"
)

// sampleRecord mirrors the shape of an export bundle record: a struct
// with cbor tags and an any-typed payload.
type sampleRecord struct {
	ScriptURL string `cbor:"script_url"`
	Position  int    `cbor:"position"`
	Map       any    `cbor:"map,omitempty"`
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()
	original := sampleRecord{
		ScriptURL: "http://example.com/bundle.js",
		Position:  3,
		Map:       map[string]any{"version": int64(3), "sources": []any{"a.ts"}},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ScriptURL != original.ScriptURL {
		t.Errorf("script_url: got %q, want %q", decoded.ScriptURL, original.ScriptURL)
	}
	if decoded.Position != original.Position {
		t.Errorf("position: got %d, want %d", decoded.Position, original.Position)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()
	// Map iteration order varies between runs; deterministic encoding
	// must erase that.
	value := map[string]any{
		"zulu": 1, "alpha": 2, "mike": 3, "charlie": 4, "xray": 5,
	}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic:\n first: %x\n again: %x", first, again)
		}
	}
}

func TestAnyDecodeUsesStringKeyedMaps(t *testing.T) {
	t.Parallel()
	data, err := Marshal(map[string]any{"version": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Fatalf("got %T, want map[string]any", decoded)
	}
}

func TestStreamEncoderDecoder(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	records := []sampleRecord{
		{ScriptURL: "http://example.com/a.js", Position: 0},
		{ScriptURL: "http://example.com/b.js", Position: 1},
	}
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i := range records {
		var decoded sampleRecord
		if err := decoder.Decode(&decoded); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if decoded != (sampleRecord{ScriptURL: records[i].ScriptURL, Position: records[i].Position}) {
			t.Errorf("record %d: got %+v, want %+v", i, decoded, records[i])
		}
	}
	var extra sampleRecord
	if err := NewDecoder(&buffer).Decode(&extra); err != io.EOF {
		t.Errorf("decode past end: got %v, want io.EOF", err)
	}
}
