package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a log from user_version i to i+1. A fresh file
// gets schema.sql and then every migration.
var migrations = []func(tx *sql.Tx) error{
	// v1: unsynced scans page by (synced, seq).
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_synced ON transactions(synced, seq)`)
		return err
	},
}

// schemaVersion is the user_version of an up-to-date log.
var schemaVersion = len(migrations)

// ErrFormatMismatch is returned by Open when the log holds transactions
// serialized in a format this build cannot read.
var ErrFormatMismatch = errors.New("transaction log format mismatch")

// Store is the SQLite transaction log of one workbook.
type Store struct {
	db *sql.DB
}

// Open creates or opens the log at path. ":memory:" gives a private
// in-memory log.
//
// Connections use WAL journaling, NORMAL sync, a 5s busy timeout and
// foreign keys. Reopening an existing log applies pending migrations and
// checks the serialized format of its transactions.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite has a single writer, and ":memory:" is
	// per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, step := range []struct {
		name string
		run  func(*sql.DB) error
	}{
		{"apply pragmas", applyPragmas},
		{"apply schema", applySchema},
		{"migrate", migrate},
		{"check format", checkFormat},
	} {
		if err := step.run(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to %s: %w", step.name, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

// migrate runs the migrations past the log's user_version in one
// transaction.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for v := version; v < schemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("to v%d: %w", v+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

// checkFormat rejects logs holding transactions of another format version.
func checkFormat(db *sql.DB) error {
	var found string
	err := db.QueryRow(
		`SELECT format_version FROM transactions WHERE format_version != ? LIMIT 1`,
		ir.FormatVersion,
	).Scan(&found)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	}
	return fmt.Errorf("%w: log has version %q, expected %q", ErrFormatMismatch, found, ir.FormatVersion)
}

// pragma reads a pragma value. Used by tests.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
