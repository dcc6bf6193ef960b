// Package sqlite implements the repository interfaces on an embedded SQLite
// file.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, so you need a C compiler and cross-compilation
// gets painful. modernc.org/sqlite is a pure Go translation of SQLite.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB: a connection pool (NOT a single connection!)
//   - sql.Row: a single result row
//   - sql.Rows: multiple result rows (must be closed!)
//
// The pool is capped at ONE open connection. SQLite serialises writers
// anyway, and an in-memory database (":memory:") is private to the
// connection that created it, so a second pooled connection would see an
// empty schema.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB owns the connection pool. Users and Students hand out the per-table
// stores that share it.
type DB struct {
	conn *sql.DB
}

// pragmas are applied by the driver to every new connection, so they
// survive the pool replacing a connection.
var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/roster.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// sql.Open does not connect; Ping surfaces a bad path now instead of on
	// the first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Wrap builds a DB around an already-open pool without migrating it.
// Tests use it with go-sqlmock.
func Wrap(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// SQL exposes the pool for instrumentation such as the Prometheus DB stats
// collector. Queries go through Users and Students.
func (db *DB) SQL() *sql.DB {
	return db.conn
}

// Users returns the credential store.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Students returns the student store.
func (db *DB) Students() *StudentDB {
	return &StudentDB{conn: db.conn}
}

func dsn(path string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// migrate creates the schema.
//
// MIGRATIONS:
// CREATE TABLE IF NOT EXISTS is idempotent, which is enough for a schema
// that has only ever had one version.
func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// UNIQUE(user_id, email): an email may repeat across owners, never
	// within one.
	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS students (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id         INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name            TEXT NOT NULL,
			email           TEXT NOT NULL COLLATE NOCASE,
			phone           TEXT,
			address         TEXT,
			enrollment_date TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'Active',
			created_at      DATETIME NOT NULL,
			UNIQUE(user_id, email)
		);
		CREATE INDEX IF NOT EXISTS idx_students_user_id ON students(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating students table: %w", err)
	}

	return nil
}
