// Package store persists the author/publication/venue/collaboration graph in
// SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding the publication graph.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createSchema creates all tables and indexes if they don't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS authors (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL UNIQUE,
			pid TEXT,
			is_faculty INTEGER NOT NULL DEFAULT 0,
			email TEXT,
			phone TEXT,
			designation TEXT,
			department TEXT,
			h_index INTEGER,
			total_publications INTEGER NOT NULL DEFAULT 0,
			total_collaborations INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_authors_pid ON authors(pid) WHERE pid IS NOT NULL AND pid != '';
		CREATE INDEX IF NOT EXISTS idx_authors_faculty ON authors(is_faculty);

		CREATE TABLE IF NOT EXISTS venues (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			venue_type TEXT NOT NULL,
			total_publications INTEGER NOT NULL DEFAULT 0,
			faculty_publications INTEGER NOT NULL DEFAULT 0,
			UNIQUE (normalized_name, venue_type)
		);

		CREATE TABLE IF NOT EXISTS publications (
			id INTEGER PRIMARY KEY,
			dblp_key TEXT NOT NULL UNIQUE,
			doi TEXT,
			title TEXT NOT NULL,
			normalized_title TEXT,
			pub_type TEXT,
			year INTEGER,
			venue_id INTEGER REFERENCES venues(id),
			volume TEXT,
			number TEXT,
			pages TEXT,
			publisher TEXT,
			url TEXT,
			has_faculty_author INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_publications_doi ON publications(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year);
		CREATE INDEX IF NOT EXISTS idx_publications_faculty ON publications(has_faculty_author, year);

		-- Ordered author list per publication.
		CREATE TABLE IF NOT EXISTS publication_authors (
			publication_id INTEGER NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			PRIMARY KEY (publication_id, author_id)
		);

		CREATE INDEX IF NOT EXISTS idx_pub_authors_author ON publication_authors(author_id);

		-- Source-PID set per publication. INSERT OR IGNORE gives grow-only
		-- set-union semantics valid across process restarts.
		CREATE TABLE IF NOT EXISTS publication_sources (
			publication_id INTEGER NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			pid TEXT NOT NULL,
			PRIMARY KEY (publication_id, pid)
		);

		CREATE INDEX IF NOT EXISTS idx_pub_sources_pid ON publication_sources(pid);

		-- Co-authorship edges, author1_id < author2_id.
		CREATE TABLE IF NOT EXISTS collaborations (
			author1_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			author2_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			collaboration_count INTEGER NOT NULL DEFAULT 0,
			first_year INTEGER,
			last_year INTEGER,
			PRIMARY KEY (author1_id, author2_id)
		);

		CREATE INDEX IF NOT EXISTS idx_collab_author2 ON collaborations(author2_id);

		-- Guard against counting the same publication twice for a pair.
		CREATE TABLE IF NOT EXISTS collaboration_publications (
			author1_id INTEGER NOT NULL,
			author2_id INTEGER NOT NULL,
			publication_id INTEGER NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			PRIMARY KEY (author1_id, author2_id, publication_id)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Begin starts a write transaction. Ingestion commits in batches; each batch
// is one transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is a write transaction over the store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// nullable converts a string to sql.NullString, treating empty as NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt converts an int to sql.NullInt64, treating zero as NULL.
func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// prefixFields qualifies each field in a comma-separated SELECT list with a
// table alias, for joins.
func prefixFields(prefix, fields string) string {
	parts := strings.Split(fields, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
