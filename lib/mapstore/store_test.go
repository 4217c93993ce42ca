// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mapgrab/mapgrab/collector"
	"github.com/mapgrab/mapgrab/lib/mapstore"
)

func openTestStore(t *testing.T) *mapstore.Store {
	t.Helper()
	store, err := mapstore.Open(mapstore.Config{
		Path: filepath.Join(t.TempDir(), "runs.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func sampleMap(file string) map[string]any {
	return map[string]any{
		"version":  float64(3),
		"file":     file,
		"sources":  []any{"src/index.ts"},
		"mappings": "AAAA;AACA",
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	startedAt := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	completedAt := startedAt.Add(30 * time.Second)
	artifacts := []collector.Artifact{
		{
			ScriptURL:    "http://example.com/app.js",
			SourceMapURL: "http://example.com/app.js.map",
			Map:          sampleMap("app.js"),
		},
		{
			ScriptURL:    "http://example.com/vendor.js",
			SourceMapURL: "http://example.com/vendor.js.map",
			ErrorMessage: "Error: Failed fetching source map (404)",
		},
		{
			ScriptURL: "http://example.com/inline.js",
			Map:       sampleMap("inline.js"),
		},
	}

	runID, err := store.SaveRun(ctx, "http://example.com/", startedAt, completedAt, artifacts)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := store.ShowRun(ctx, runID)
	if err != nil {
		t.Fatalf("ShowRun: %v", err)
	}
	if run.PageURL != "http://example.com/" {
		t.Errorf("PageURL = %q, want %q", run.PageURL, "http://example.com/")
	}
	if !run.StartedAt.Equal(startedAt) || !run.CompletedAt.Equal(completedAt) {
		t.Errorf("timestamps = %v / %v, want %v / %v",
			run.StartedAt, run.CompletedAt, startedAt, completedAt)
	}
	if run.ScriptCount != 3 {
		t.Errorf("ScriptCount = %d, want 3", run.ScriptCount)
	}
	if run.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", run.ErrorCount)
	}

	stored, err := store.RunArtifacts(ctx, runID)
	if err != nil {
		t.Fatalf("RunArtifacts: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("len(stored) = %d, want 3", len(stored))
	}
	for i, artifact := range stored {
		if artifact.Position != i {
			t.Errorf("stored[%d].Position = %d", i, artifact.Position)
		}
		if artifact.ScriptURL != artifacts[i].ScriptURL {
			t.Errorf("stored[%d].ScriptURL = %q, want %q", i, artifact.ScriptURL, artifacts[i].ScriptURL)
		}
	}
	if stored[1].MapJSON != nil {
		t.Errorf("failed artifact has MapJSON %q, want none", stored[1].MapJSON)
	}
	if stored[1].ErrorMessage != artifacts[1].ErrorMessage {
		t.Errorf("stored[1].ErrorMessage = %q, want %q", stored[1].ErrorMessage, artifacts[1].ErrorMessage)
	}

	var roundTripped map[string]any
	if err := json.Unmarshal(stored[0].MapJSON, &roundTripped); err != nil {
		t.Fatalf("unmarshaling stored map: %v", err)
	}
	if !reflect.DeepEqual(roundTripped, sampleMap("app.js")) {
		t.Errorf("stored map = %v, want %v", roundTripped, sampleMap("app.js"))
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	var ids []int64
	for _, page := range []string{"http://a.example/", "http://b.example/"} {
		id, err := store.SaveRun(ctx, page, now, now, nil)
		if err != nil {
			t.Fatalf("SaveRun(%q): %v", page, err)
		}
		ids = append(ids, id)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != ids[1] || runs[1].ID != ids[0] {
		t.Errorf("run order = [%d %d], want [%d %d]", runs[0].ID, runs[1].ID, ids[1], ids[0])
	}
}

func TestContentDeduplication(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	shared := sampleMap("shared.js")
	artifacts := []collector.Artifact{
		{ScriptURL: "http://example.com/a.js", Map: shared},
		{ScriptURL: "http://example.com/b.js", Map: shared},
	}
	if _, err := store.SaveRun(ctx, "http://example.com/", now, now, artifacts); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	// A second run with the same payload adds no content rows either.
	if _, err := store.SaveRun(ctx, "http://example.com/again", now, now, artifacts[:1]); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	count, err := store.ContentCount(ctx)
	if err != nil {
		t.Fatalf("ContentCount: %v", err)
	}
	if count != 1 {
		t.Errorf("ContentCount = %d, want 1", count)
	}
}

func TestShowRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.ShowRun(context.Background(), 42)
	if !errors.Is(err, mapstore.ErrRunNotFound) {
		t.Errorf("ShowRun error = %v, want ErrRunNotFound", err)
	}
	_, err = store.RunArtifacts(context.Background(), 42)
	if !errors.Is(err, mapstore.ErrRunNotFound) {
		t.Errorf("RunArtifacts error = %v, want ErrRunNotFound", err)
	}
}
