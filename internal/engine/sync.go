package engine

import (
	"context"
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
	"github.com/PawelJastrzebski/quadratic-fork/internal/store"
)

// Flush writes the sheets and every committed transaction not yet saved to
// s, in commit order. Returns the number of newly inserted transactions.
//
// Entries that fail to write stay queued for the next Flush. Writing an
// entry that is already in the log is a no-op.
func (c *Controller) Flush(ctx context.Context, s *store.Store) (int, error) {
	for _, sheet := range c.grid.Sheets() {
		if err := s.WriteSheet(ctx, sheet.ID, sheet.Name, sheet.Order); err != nil {
			return 0, fmt.Errorf("flush: %w", err)
		}
	}

	entries := c.unsaved
	c.unsaved = nil
	written := 0
	for i, e := range entries {
		seq, inserted, err := s.WriteTransaction(ctx, e.Forward, e.Reverse)
		if err != nil {
			c.unsaved = append(entries[i:], c.unsaved...)
			return written, fmt.Errorf("flush: %w", err)
		}
		if inserted {
			written++
		}
		c.logger.Debug("transaction flushed",
			"transaction", e.Forward.ID,
			"type", e.Forward.Type,
			"seq", seq,
			"inserted", inserted,
		)
	}
	return written, nil
}

// Replay rebuilds a Controller from the log in s.
//
// Sheets are created first, then every transaction is reapplied in commit
// order under its logged id and type with compute disabled: code-run
// writes were logged as operations, so the rebuilt grid matches the
// original without evaluating any cell. Undo and redo stacks are rebuilt
// the same way they were built live.
func Replay(ctx context.Context, s *store.Store, opts ...Option) (*Controller, error) {
	sheets, err := s.ReadSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	g := grid.New()
	for _, sh := range sheets {
		if _, err := g.AddSheetWithID(sh.ID, sh.Name); err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
	}
	if len(sheets) == 0 {
		g = grid.NewWithSheet()
	}

	entries, err := s.ReadTransactions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	c := New(g, opts...)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.replayEntry(e); err != nil {
			return nil, fmt.Errorf("replay: seq %d: %w", e.Seq, err)
		}
	}
	c.unsaved = nil

	c.logger.Info("replay complete",
		"transactions", len(entries),
		"sheets", len(g.Sheets()),
		"undo", len(c.undoStack),
		"redo", len(c.redoStack),
	)
	return c, nil
}

func (c *Controller) replayEntry(e store.Entry) error {
	tx := e.Forward
	bindings, err := c.checkBindings(tx.Axes)
	if err != nil {
		return NewMalformedOperationsError(tx.ID, err)
	}
	if err := c.checkReceived(tx.Operations, bindings); err != nil {
		return NewMalformedOperationsError(tx.ID, err)
	}
	c.admit(tx)

	switch tx.Type {
	case operation.TypeUndo:
		if len(c.undoStack) == 0 {
			return NewInvariantError(tx.ID, "undo logged with an empty undo stack")
		}
		c.undoStack = c.undoStack[:len(c.undoStack)-1]
	case operation.TypeRedo:
		if len(c.redoStack) == 0 {
			return NewInvariantError(tx.ID, "redo logged with an empty redo stack")
		}
		c.redoStack = c.redoStack[:len(c.redoStack)-1]
	}

	pt := c.newPending(tx.ID, tx.Type, tx.Operations, tx.Cursor, false)
	summary := c.start(pt)
	if !summary.Complete {
		return NewInvariantError(tx.ID, "replayed transaction did not complete")
	}
	return nil
}
