// Package library is the SQLite game library: the source of truth for what
// lutra knows about, what is installed where, and how identifiers map to
// games. The resolver walks explicit, ordered lookup plans instead of
// guessing, so an id never matches a slug and vice versa.
package library

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Library wraps the games database. All SQL lives in this package; callers
// deal in Game values.
type Library struct {
	db *sql.DB
}

// Open opens (or creates) the library database at path, enforces WAL journal
// mode and a 5-second busy timeout, and ensures the schema is applied. The
// same file is shared by the primary instance and text-mode invocations, so
// the busy timeout matters.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, SchemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Library{db: db}, nil
}

// New wraps an already-open database. The caller is responsible for the
// schema; tests use this with in-memory databases.
func New(db *sql.DB) *Library {
	return &Library{db: db}
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}
