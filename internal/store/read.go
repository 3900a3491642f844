package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// Sheet is a stored sheet row.
type Sheet struct {
	ID    ir.SheetID
	Name  string
	Order int
}

// Entry is a stored transaction.
type Entry struct {
	Seq     int64
	Forward operation.Transaction
	Reverse operation.Transaction
	Digest  string
	Synced  bool
}

// ReadSheets returns every sheet in display order.
//
// Returns an empty slice (not nil) if no sheets exist.
func (s *Store) ReadSheets(ctx context.Context) ([]Sheet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ord
		FROM sheets
		ORDER BY ord ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sheets: %w", err)
	}
	defer rows.Close()

	sheets := []Sheet{}
	for rows.Next() {
		var sh Sheet
		var id string
		if err := rows.Scan(&id, &sh.Name, &sh.Order); err != nil {
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		sh.ID = ir.SheetID(id)
		sheets = append(sheets, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheets: %w", err)
	}
	return sheets, nil
}

// ReadTransactions returns every transaction with seq greater than after,
// in commit order. Each payload's digest is checked against the stored one.
//
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ReadTransactions(ctx context.Context, after int64) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT seq, forward, reverse, digest, synced
		FROM transactions
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
}

// ReadUnsynced returns the transactions not yet delivered to peers, in
// commit order.
func (s *Store) ReadUnsynced(ctx context.Context) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT seq, forward, reverse, digest, synced
		FROM transactions
		WHERE synced = 0
		ORDER BY seq ASC
	`)
}

// LastSeq returns the highest seq in the log, 0 when empty.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM transactions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) readEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                Entry
		forward, reverse string
		synced           int
	)
	if err := rows.Scan(&e.Seq, &forward, &reverse, &e.Digest, &synced); err != nil {
		return Entry{}, fmt.Errorf("scan transaction: %w", err)
	}
	e.Synced = synced == 1

	var err error
	if e.Forward, err = unmarshalTransaction(forward); err != nil {
		return Entry{}, fmt.Errorf("transaction seq %d forward: %w", e.Seq, err)
	}
	if e.Reverse, err = unmarshalTransaction(reverse); err != nil {
		return Entry{}, fmt.Errorf("transaction seq %d reverse: %w", e.Seq, err)
	}

	digest, err := operation.Digest(e.Forward.Operations)
	if err != nil {
		return Entry{}, fmt.Errorf("transaction seq %d: digest: %w", e.Seq, err)
	}
	if digest != e.Digest {
		return Entry{}, fmt.Errorf("transaction seq %d: digest mismatch: stored %s, computed %s", e.Seq, e.Digest, digest)
	}
	return e, nil
}
