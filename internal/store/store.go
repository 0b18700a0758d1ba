// Package store implements the embedded single-file relational store of
// spec §6: SQLite accessed through plain database/sql (no ORM), schema
// managed by golang-migrate, foreign keys cascading per the ownership
// relationships of spec §3. Grounded structurally on the raw
// database/sql + migration-table idiom seen across the pack's SQLite-backed
// repos (e.g. the mind-palace index package, in other_examples/), but
// driven by golang-migrate's versioned .sql migration files instead of a
// hand-rolled migration function slice, since golang-migrate is already the
// teacher-pack's migration library of choice for SQLite (jrepp-hermes,
// flyingrobots-go-redis-work-queue).
package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rknightion/paperless-dedupe/internal/clock"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store wraps the SQLite-backed persistence layer. This package's functions
// take a querier and do not open transactions themselves; callers that need
// one begin it through DB().BeginTx and pass the *sql.Tx in (the sync engine
// per document, the analysis orchestrator for Stage 8's group reconciliation).
type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// Open opens (creating if absent) the SQLite database at path, enables
// foreign key enforcement, and migrates the schema to the latest version.
func Open(path string, clk clock.Clock) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// mattn/go-sqlite3 serializes writers at the driver level; a single
	// connection avoids SQLITE_BUSY churn under our own bounded-concurrency
	// writers rather than papering over it with a busy_timeout retry loop.
	db.SetMaxOpenConns(1)

	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, clock: clk}, nil
}

func migrateSchema(db *sql.DB) error {
	driver, err := migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("store: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("store: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the raw handle for callers that need to compose a transaction
// across more than one of this package's operations (the sync engine's
// per-document insert/update, and the analysis orchestrator's Stage 8
// reconciliation).
func (s *Store) DB() *sql.DB { return s.db }
