// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package mapstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/mapgrab/mapgrab/collector"
	"github.com/mapgrab/mapgrab/lib/sqlitepool"
)

// schema creates the three tables of the store. Artifact rows
// reference content rows by hash; rows for failed artifacts have a
// NULL content_hash. Integrity between the tables is managed here,
// not by SQLite cascades (see lib/sqlitepool's foreign_keys pragma).
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY,
	page_url TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	completed_at INTEGER NOT NULL,
	script_count INTEGER NOT NULL,
	error_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	run_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	script_url TEXT NOT NULL,
	source_map_url TEXT NOT NULL,
	error_message TEXT NOT NULL,
	content_hash TEXT,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS map_contents (
	hash TEXT PRIMARY KEY,
	compression TEXT NOT NULL,
	uncompressed_size INTEGER NOT NULL,
	body BLOB NOT NULL
);
`

// ErrRunNotFound is returned when a run id does not exist in the
// store.
var ErrRunNotFound = errors.New("mapstore: run not found")

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// Compression selects the algorithm for newly stored payloads
	// (the zero value is zstd). Existing payloads keep the tag they
	// were stored with.
	Compression CompressionTag

	// Logger receives operational messages. If nil, logging is
	// discarded.
	Logger *slog.Logger

	// PoolSize is passed through to lib/sqlitepool.
	PoolSize int
}

// Store is the SQLite-backed run archive. Safe for concurrent use.
type Store struct {
	pool        *sqlitepool.Pool
	logger      *slog.Logger
	compression CompressionTag
}

// Run describes one stored collection window.
type Run struct {
	ID          int64
	PageURL     string
	StartedAt   time.Time
	CompletedAt time.Time
	ScriptCount int
	ErrorCount  int
}

// StoredArtifact is one artifact row joined with its map payload.
// MapJSON is the canonical JSON of the parsed map, nil when the
// artifact recorded a failure.
type StoredArtifact struct {
	Position     int
	ScriptURL    string
	SourceMapURL string
	ErrorMessage string
	MapJSON      []byte
}

// Open opens (creating if needed) the store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		pool:        pool,
		logger:      logger,
		compression: cfg.Compression,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// SaveRun persists one sealed collection window and returns its run
// id. Artifacts are stored in slice order, which for collector output
// is event-arrival order. Map payloads are canonicalized
// (encoding/json re-encode, sorted keys), content-addressed, and
// deduplicated across runs.
func (s *Store) SaveRun(ctx context.Context, pageURL string, startedAt, completedAt time.Time, artifacts []collector.Artifact) (runID int64, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	release := sqlitex.Save(conn)
	defer release(&err)

	errorCount := 0
	for _, artifact := range artifacts {
		if artifact.ErrorMessage != "" {
			errorCount++
		}
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO runs (page_url, started_at, completed_at, script_count, error_count)
		VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{pageURL, startedAt.Unix(), completedAt.Unix(), len(artifacts), errorCount},
		})
	if err != nil {
		return 0, fmt.Errorf("mapstore: inserting run: %w", err)
	}
	runID = conn.LastInsertRowID()

	for position, artifact := range artifacts {
		var contentHash any
		if artifact.Map != nil {
			hash, err := s.saveContent(conn, artifact.Map)
			if err != nil {
				return 0, err
			}
			contentHash = hash.String()
		}

		err = sqlitex.Execute(conn, `
			INSERT INTO artifacts (run_id, position, script_url, source_map_url, error_message, content_hash)
			VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{runID, position, artifact.ScriptURL, artifact.SourceMapURL, artifact.ErrorMessage, contentHash},
			})
		if err != nil {
			return 0, fmt.Errorf("mapstore: inserting artifact %d: %w", position, err)
		}
	}

	s.logger.Info("run saved",
		"run_id", runID,
		"page_url", pageURL,
		"scripts", len(artifacts),
		"errors", errorCount,
	)
	return runID, nil
}

// saveContent stores one map payload content-addressed, compressing
// it with the store's configured algorithm. Already-present content
// is left untouched (the hash covers the uncompressed bytes, so an
// existing row is the same payload regardless of its compression).
func (s *Store) saveContent(conn *sqlite.Conn, parsedMap any) (Hash, error) {
	canonical, err := json.Marshal(parsedMap)
	if err != nil {
		return Hash{}, fmt.Errorf("mapstore: canonicalizing map: %w", err)
	}
	hash := HashContent(canonical)

	body, tag, err := compressPayload(canonical, s.compression)
	if err != nil {
		return Hash{}, err
	}

	err = sqlitex.Execute(conn, `
		INSERT OR IGNORE INTO map_contents (hash, compression, uncompressed_size, body)
		VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{hash.String(), tag.String(), len(canonical), body},
		})
	if err != nil {
		return Hash{}, fmt.Errorf("mapstore: inserting content %s: %w", hash, err)
	}
	return hash, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var runs []Run
	err = sqlitex.Execute(conn, `
		SELECT id, page_url, started_at, completed_at, script_count, error_count
		FROM runs ORDER BY id DESC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				runs = append(runs, runFromRow(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("mapstore: listing runs: %w", err)
	}
	return runs, nil
}

// ShowRun returns one run's metadata.
func (s *Store) ShowRun(ctx context.Context, runID int64) (Run, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Run{}, err
	}
	defer s.pool.Put(conn)

	var run Run
	found := false
	err = sqlitex.Execute(conn, `
		SELECT id, page_url, started_at, completed_at, script_count, error_count
		FROM runs WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				run = runFromRow(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return Run{}, fmt.Errorf("mapstore: loading run %d: %w", runID, err)
	}
	if !found {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

// RunArtifacts returns a run's artifacts in stored (event-arrival)
// order, with map payloads decompressed.
func (s *Store) RunArtifacts(ctx context.Context, runID int64) ([]StoredArtifact, error) {
	if _, err := s.ShowRun(ctx, runID); err != nil {
		return nil, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var artifacts []StoredArtifact
	var loadErr error
	err = sqlitex.Execute(conn, `
		SELECT a.position, a.script_url, a.source_map_url, a.error_message,
		       c.compression, c.uncompressed_size, c.body
		FROM artifacts a
		LEFT JOIN map_contents c ON c.hash = a.content_hash
		WHERE a.run_id = ?
		ORDER BY a.position`,
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				artifact := StoredArtifact{
					Position:     stmt.ColumnInt(0),
					ScriptURL:    stmt.ColumnText(1),
					SourceMapURL: stmt.ColumnText(2),
					ErrorMessage: stmt.ColumnText(3),
				}
				if stmt.ColumnType(4) != sqlite.TypeNull {
					tag, err := ParseCompressionTag(stmt.ColumnText(4))
					if err != nil {
						loadErr = err
						return err
					}
					size := stmt.ColumnInt(5)
					body := make([]byte, stmt.ColumnLen(6))
					stmt.ColumnBytes(6, body)
					decoded, err := decompress(body, tag, size)
					if err != nil {
						loadErr = err
						return err
					}
					artifact.MapJSON = decoded
				}
				artifacts = append(artifacts, artifact)
				return nil
			},
		})
	if err != nil {
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, fmt.Errorf("mapstore: loading artifacts for run %d: %w", runID, err)
	}
	return artifacts, nil
}

// ContentCount returns the number of distinct map payloads in the
// store. Because payloads are content-addressed this can be far below
// the total artifact count on pages that share bundles.
func (s *Store) ContentCount(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	count := 0
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM map_contents`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("mapstore: counting contents: %w", err)
	}
	return count, nil
}

func runFromRow(stmt *sqlite.Stmt) Run {
	return Run{
		ID:          stmt.ColumnInt64(0),
		PageURL:     stmt.ColumnText(1),
		StartedAt:   time.Unix(stmt.ColumnInt64(2), 0).UTC(),
		CompletedAt: time.Unix(stmt.ColumnInt64(3), 0).UTC(),
		ScriptCount: stmt.ColumnInt(4),
		ErrorCount:  stmt.ColumnInt(5),
	}
}
