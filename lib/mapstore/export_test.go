// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore_test

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"filippo.io/age"

	"github.com/mapgrab/mapgrab/collector"
	"github.com/mapgrab/mapgrab/lib/mapstore"
)

func saveSampleRun(t *testing.T, store *mapstore.Store) int64 {
	t.Helper()
	startedAt := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	artifacts := []collector.Artifact{
		{
			ScriptURL:    "http://example.com/app.js",
			SourceMapURL: "http://example.com/app.js.map",
			Map:          sampleMap("app.js"),
		},
		{
			ScriptURL:    "http://example.com/broken.js",
			SourceMapURL: "http://example.com/broken.js.map",
			ErrorMessage: "SyntaxError: unexpected end of JSON input",
		},
	}
	runID, err := store.SaveRun(context.Background(), "http://example.com/",
		startedAt, startedAt.Add(10*time.Second), artifacts)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	return runID
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := openTestStore(t)
	runID := saveSampleRun(t, source)

	var bundle bytes.Buffer
	if err := source.Export(ctx, &bundle, runID, nil); err != nil {
		t.Fatalf("Export: %v", err)
	}

	destination, err := mapstore.Open(mapstore.Config{
		Path: filepath.Join(t.TempDir(), "imported.db"),
	})
	if err != nil {
		t.Fatalf("Open destination: %v", err)
	}
	defer destination.Close()

	importedID, err := destination.Import(ctx, &bundle, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	originalRun, err := source.ShowRun(ctx, runID)
	if err != nil {
		t.Fatalf("ShowRun original: %v", err)
	}
	importedRun, err := destination.ShowRun(ctx, importedID)
	if err != nil {
		t.Fatalf("ShowRun imported: %v", err)
	}
	importedRun.ID = originalRun.ID
	if !reflect.DeepEqual(importedRun, originalRun) {
		t.Errorf("imported run = %+v, want %+v", importedRun, originalRun)
	}

	originalArtifacts, err := source.RunArtifacts(ctx, runID)
	if err != nil {
		t.Fatalf("RunArtifacts original: %v", err)
	}
	importedArtifacts, err := destination.RunArtifacts(ctx, importedID)
	if err != nil {
		t.Fatalf("RunArtifacts imported: %v", err)
	}
	if !reflect.DeepEqual(importedArtifacts, originalArtifacts) {
		t.Errorf("imported artifacts = %+v, want %+v", importedArtifacts, originalArtifacts)
	}
}

func TestExportIsDeterministic(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	runID := saveSampleRun(t, store)

	var first, second bytes.Buffer
	if err := store.Export(ctx, &first, runID, nil); err != nil {
		t.Fatalf("first Export: %v", err)
	}
	if err := store.Export(ctx, &second, runID, nil); err != nil {
		t.Fatalf("second Export: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("exports of the same run differ")
	}
}

func TestEncryptedBundle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	runID := saveSampleRun(t, store)

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity: %v", err)
	}

	var bundle bytes.Buffer
	err = store.Export(ctx, &bundle, runID, []age.Recipient{identity.Recipient()})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	encrypted := bundle.Bytes()

	destination, err := mapstore.Open(mapstore.Config{
		Path: filepath.Join(t.TempDir(), "imported.db"),
	})
	if err != nil {
		t.Fatalf("Open destination: %v", err)
	}
	defer destination.Close()

	// Without the identity the bundle must not open.
	_, err = destination.Import(ctx, bytes.NewReader(encrypted), nil)
	if err == nil {
		t.Fatal("expected Import of encrypted bundle without identity to fail")
	}

	importedID, err := destination.Import(ctx, bytes.NewReader(encrypted), []age.Identity{identity})
	if err != nil {
		t.Fatalf("Import with identity: %v", err)
	}
	artifacts, err := destination.RunArtifacts(ctx, importedID)
	if err != nil {
		t.Fatalf("RunArtifacts: %v", err)
	}
	if len(artifacts) != 2 {
		t.Errorf("len(artifacts) = %d, want 2", len(artifacts))
	}
}

func TestExportUnknownRun(t *testing.T) {
	store := openTestStore(t)
	var bundle bytes.Buffer
	if err := store.Export(context.Background(), &bundle, 99, nil); err == nil {
		t.Error("expected error for unknown run")
	}
}
