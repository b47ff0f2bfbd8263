// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/glide/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned by Get when no value is stored for a key.
var ErrNotFound = errors.New("store: key not found")

// Store wraps SQLite access for learned patterns and the decode log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Async pattern writes and decode logging share one connection.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patterns (
			sequence TEXT PRIMARY KEY,
			word TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS decodes (
			id INTEGER PRIMARY KEY,
			at TEXT NOT NULL,
			sequence TEXT NOT NULL,
			anchors TEXT NOT NULL,
			word TEXT NOT NULL,
			source TEXT NOT NULL,
			candidates INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_decodes_at ON decodes(at);`,
		`CREATE INDEX IF NOT EXISTS idx_decodes_source ON decodes(source);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the word stored for a gesture sequence.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var word string
	err := s.db.QueryRowContext(ctx, `SELECT word FROM patterns WHERE sequence = ?`, key).Scan(&word)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(word), nil
}

// Set upserts the word for a gesture sequence.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patterns (sequence, word, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(sequence) DO UPDATE SET word = excluded.word, updated_at = excluded.updated_at`,
		key, string(value), formatTime(s.now()))
	return err
}

// Entries returns every learned pattern, most recently updated first.
func (s *Store) Entries(ctx context.Context) ([]model.PatternEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sequence, word, updated_at FROM patterns ORDER BY updated_at DESC, sequence ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.PatternEntry
	for rows.Next() {
		var e model.PatternEntry
		var updatedAt string
		if err := rows.Scan(&e.Sequence, &e.Word, &updatedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pattern timestamp: %w", err)
		}
		e.UpdatedAt = parsed
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecordDecode appends a resolved gesture to the decode log.
func (s *Store) RecordDecode(ctx context.Context, rec model.DecodeRecord) error {
	at := rec.At
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decodes (at, sequence, anchors, word, source, candidates) VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(at),
		rec.Sequence,
		rec.Anchors,
		rec.Word,
		string(rec.Source),
		rec.Candidates,
	)
	return err
}

// ListDecodes returns decode records since the given time, oldest first.
// A zero since returns every record; limit <= 0 means no limit.
func (s *Store) ListDecodes(ctx context.Context, since time.Time, limit int) ([]model.DecodeRecord, error) {
	sinceArg := ""
	if !since.IsZero() {
		sinceArg = formatTime(since)
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, sequence, anchors, word, source, candidates FROM (
			SELECT id, at, sequence, anchors, word, source, candidates FROM decodes
			WHERE (? = '' OR at >= ?)
			ORDER BY at DESC, id DESC
			LIMIT ?
		) ORDER BY at ASC, id ASC`,
		sinceArg, sinceArg, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DecodeRecord
	for rows.Next() {
		var rec model.DecodeRecord
		var at, source string
		if err := rows.Scan(&at, &rec.Sequence, &rec.Anchors, &rec.Word, &source, &rec.Candidates); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decode timestamp: %w", err)
		}
		rec.At = parsed
		rec.Source = model.DecodeSource(source)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SourceCounts aggregates the decode log by source.
func (s *Store) SourceCounts(ctx context.Context) ([]model.SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM decodes GROUP BY source ORDER BY source ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SourceCount
	for rows.Next() {
		var sc model.SourceCount
		var source string
		if err := rows.Scan(&source, &sc.Count); err != nil {
			return nil, err
		}
		sc.Source = model.DecodeSource(source)
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
