package engine

import "github.com/PawelJastrzebski/quadratic-fork/internal/operation"

// Undo reverts the most recent User or Redo transaction. With an empty undo
// stack it is a no-op returning a complete, empty summary.
//
// Undo replays recorded inverse operations with compute disabled: code-run
// writes were recorded as operations, so no code cell is evaluated.
func (c *Controller) Undo(cursor string) TransactionSummary {
	if len(c.undoStack) == 0 {
		return TransactionSummary{Complete: true, Cursor: cursor}
	}
	entry := c.undoStack[len(c.undoStack)-1]
	c.undoStack = c.undoStack[:len(c.undoStack)-1]

	pt := c.newPending("", operation.TypeUndo, entry.Operations, cursorOr(cursor, entry.Cursor), false)
	return c.start(pt)
}

// Redo reapplies the most recently undone transaction. With an empty redo
// stack it is a no-op returning a complete, empty summary.
func (c *Controller) Redo(cursor string) TransactionSummary {
	if len(c.redoStack) == 0 {
		return TransactionSummary{Complete: true, Cursor: cursor}
	}
	entry := c.redoStack[len(c.redoStack)-1]
	c.redoStack = c.redoStack[:len(c.redoStack)-1]

	pt := c.newPending("", operation.TypeRedo, entry.Operations, cursorOr(cursor, entry.Cursor), false)
	return c.start(pt)
}

func cursorOr(cursor, fallback string) string {
	if cursor != "" {
		return cursor
	}
	return fallback
}
