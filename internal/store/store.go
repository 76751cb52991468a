// Package store is the relational state store: per-project SQLite
// databases holding projects, file records, symbols, symbol edges,
// snippets, index jobs, branch state, tombstones, worktree leases and
// vector record metadata.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work against
// either a plain connection or a transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps one project's SQLite database.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or the enclosing transaction
	dbPath string
}

// OpenPath opens (creating if needed) the state database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single-writer-per-database-file model: the state store is
	// accessed by many goroutines but SQLite under WAL tolerates one
	// writer at a time, so a single *sql.DB handle with its own
	// internal pool is sufficient; no manual serialization needed here.
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory database, for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction runs fn within a single SQLite transaction. fn
// receives a transaction-scoped Store; all store methods called on it
// participate in the same commit. This is how the writer guarantees
// that every row belonging to one file (symbols, snippets, edges, the
// file record, and any tombstone) lands together or not at all.
func (s *Store) WithTransaction(fn func(tx *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for operations outside this
// package's helpers (e.g. the full-text index's staged-commit marker).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path ("":memory:" for in-memory stores).
func (s *Store) Path() string {
	return s.dbPath
}

// Now returns the current time in RFC3339 UTC, the canonical timestamp
// format for every *_at column in the schema.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
