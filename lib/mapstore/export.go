// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"github.com/mapgrab/mapgrab/collector"
	"github.com/mapgrab/mapgrab/lib/codec"
)

// bundleFormatVersion is written into every bundle header. Bump only
// on incompatible record changes; Import rejects versions it does not
// know.
const bundleFormatVersion = 1

// bundleHeader is the first CBOR record of a bundle.
type bundleHeader struct {
	FormatVersion int    `cbor:"format_version"`
	PageURL       string `cbor:"page_url"`
	StartedAt     int64  `cbor:"started_at"`
	CompletedAt   int64  `cbor:"completed_at"`
	ArtifactCount int    `cbor:"artifact_count"`
}

// bundleArtifact is one artifact record. MapJSON carries the
// canonical JSON payload uncompressed; the bundle's zstd layer
// handles compression for the stream as a whole.
type bundleArtifact struct {
	ScriptURL    string `cbor:"script_url"`
	SourceMapURL string `cbor:"source_map_url,omitempty"`
	ErrorMessage string `cbor:"error_message,omitempty"`
	MapJSON      []byte `cbor:"map_json,omitempty"`
}

// Export writes one run as a bundle: a zstd stream of deterministic
// CBOR records, a header followed by one record per artifact in
// stored order. With recipients the stream is age-encrypted; an
// encrypted bundle is not reproducible byte-for-byte (age generates a
// fresh file key per encryption), a plain one is.
func (s *Store) Export(ctx context.Context, w io.Writer, runID int64, recipients []age.Recipient) error {
	run, err := s.ShowRun(ctx, runID)
	if err != nil {
		return err
	}
	artifacts, err := s.RunArtifacts(ctx, runID)
	if err != nil {
		return err
	}

	sink := w
	var encryptor io.WriteCloser
	if len(recipients) > 0 {
		encryptor, err = age.Encrypt(w, recipients...)
		if err != nil {
			return fmt.Errorf("mapstore: starting bundle encryption: %w", err)
		}
		sink = encryptor
	}

	// Single-threaded encoding keeps plain bundle output
	// reproducible across machines.
	compressor, err := zstd.NewWriter(sink,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("mapstore: starting bundle compression: %w", err)
	}

	encoder := codec.NewEncoder(compressor)
	header := bundleHeader{
		FormatVersion: bundleFormatVersion,
		PageURL:       run.PageURL,
		StartedAt:     run.StartedAt.Unix(),
		CompletedAt:   run.CompletedAt.Unix(),
		ArtifactCount: len(artifacts),
	}
	if err := encoder.Encode(header); err != nil {
		return fmt.Errorf("mapstore: writing bundle header: %w", err)
	}
	for _, artifact := range artifacts {
		record := bundleArtifact{
			ScriptURL:    artifact.ScriptURL,
			SourceMapURL: artifact.SourceMapURL,
			ErrorMessage: artifact.ErrorMessage,
			MapJSON:      artifact.MapJSON,
		}
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("mapstore: writing bundle artifact %d: %w", artifact.Position, err)
		}
	}

	if err := compressor.Close(); err != nil {
		return fmt.Errorf("mapstore: finishing bundle compression: %w", err)
	}
	if encryptor != nil {
		if err := encryptor.Close(); err != nil {
			return fmt.Errorf("mapstore: finishing bundle encryption: %w", err)
		}
	}
	return nil
}

// Import reads a bundle and saves its run into the store, returning
// the new run id. Identities are only consulted for encrypted
// bundles; pass nil for plain ones.
func (s *Store) Import(ctx context.Context, r io.Reader, identities []age.Identity) (int64, error) {
	source := r
	if len(identities) > 0 {
		decrypted, err := age.Decrypt(r, identities...)
		if err != nil {
			return 0, fmt.Errorf("mapstore: decrypting bundle: %w", err)
		}
		source = decrypted
	}

	decompressor, err := zstd.NewReader(source)
	if err != nil {
		return 0, fmt.Errorf("mapstore: opening bundle stream: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor)

	var header bundleHeader
	if err := decoder.Decode(&header); err != nil {
		return 0, fmt.Errorf("mapstore: reading bundle header: %w", err)
	}
	if header.FormatVersion != bundleFormatVersion {
		return 0, fmt.Errorf("mapstore: unsupported bundle format version %d", header.FormatVersion)
	}

	artifacts := make([]collector.Artifact, 0, header.ArtifactCount)
	for i := 0; i < header.ArtifactCount; i++ {
		var record bundleArtifact
		if err := decoder.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("mapstore: bundle truncated at artifact %d of %d", i, header.ArtifactCount)
			}
			return 0, fmt.Errorf("mapstore: reading bundle artifact %d: %w", i, err)
		}
		artifact := collector.Artifact{
			ScriptURL:    record.ScriptURL,
			SourceMapURL: record.SourceMapURL,
			ErrorMessage: record.ErrorMessage,
		}
		if len(record.MapJSON) > 0 {
			var parsedMap any
			if err := json.Unmarshal(record.MapJSON, &parsedMap); err != nil {
				return 0, fmt.Errorf("mapstore: bundle artifact %d has invalid map payload: %w", i, err)
			}
			artifact.Map = parsedMap
		}
		artifacts = append(artifacts, artifact)
	}

	return s.SaveRun(ctx, header.PageURL,
		time.Unix(header.StartedAt, 0).UTC(),
		time.Unix(header.CompletedAt, 0).UTC(),
		artifacts)
}
