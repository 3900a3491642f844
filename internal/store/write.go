package store

import (
	"context"
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// WriteSheet records a sheet, updating its name and order if it exists.
func (s *Store) WriteSheet(ctx context.Context, id ir.SheetID, name string, order int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sheets (id, name, ord)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, ord = excluded.ord
	`, string(id), name, order)
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", id, err)
	}
	return nil
}

// WriteTransaction appends a committed transaction and its inverse.
// Returns the assigned seq and whether a new record was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same
// transaction again returns its existing seq and inserted=false.
func (s *Store) WriteTransaction(ctx context.Context, forward, reverse operation.Transaction) (seq int64, inserted bool, err error) {
	forwardJSON, err := marshalTransaction(forward)
	if err != nil {
		return 0, false, fmt.Errorf("write transaction: %w", err)
	}
	reverseJSON, err := marshalTransaction(reverse)
	if err != nil {
		return 0, false, fmt.Errorf("write transaction: %w", err)
	}
	digest, err := operation.Digest(forward.Operations)
	if err != nil {
		return 0, false, fmt.Errorf("write transaction: digest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write transaction: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
		(id, type, cursor, forward, reverse, digest, engine_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		forward.ID,
		string(forward.Type),
		forward.Cursor,
		forwardJSON,
		reverseJSON,
		digest,
		ir.EngineVersion,
		ir.FormatVersion,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write transaction: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write transaction: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		seq, err = result.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("write transaction: last insert id: %w", err)
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `SELECT seq FROM transactions WHERE id = ?`, forward.ID).Scan(&seq)
		if err != nil {
			return 0, false, fmt.Errorf("write transaction: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write transaction: commit: %w", err)
	}

	return seq, inserted, nil
}

// MarkSynced flags every transaction up to and including seq as delivered
// to peers.
func (s *Store) MarkSynced(ctx context.Context, upTo int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET synced = 1 WHERE seq <= ? AND synced = 0
	`, upTo)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}
