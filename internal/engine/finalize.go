package engine

import (
	"cmp"
	"slices"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// finalize commits pt: bounds are recalculated, the undo/redo stacks are
// updated according to the transaction type, and the (forward, reverse)
// pair is recorded for synchronization.
func (c *Controller) finalize(pt *PendingTransaction) TransactionSummary {
	c.recalculateBounds(pt)
	pt.complete = true

	summary := pt.summary.take()
	summary.Complete = true
	summary.Cursor = pt.Cursor

	if len(pt.forward) == 0 {
		c.logger.Info("transaction finalized", "transaction", pt.ID, "type", pt.Type, "operations", 0)
		return summary
	}

	undo := pt.undoTransaction()
	switch pt.Type {
	case operation.TypeUser:
		c.undoStack = append(c.undoStack, undo)
		c.redoStack = nil
	case operation.TypeUndo:
		c.redoStack = append(c.redoStack, undo)
	case operation.TypeRedo:
		c.undoStack = append(c.undoStack, undo)
	case operation.TypeMultiplayer:
	default:
		panic(NewInvariantError(pt.ID, "transaction without a known type"))
	}

	forward := pt.forwardTransaction()
	forward.Axes = c.bindAxes(forward.Operations)
	undo.Axes = c.bindAxes(undo.Operations)
	c.unsaved = append(c.unsaved, SyncEntry{Forward: forward, Reverse: undo})
	summary.Save = true

	c.logger.Info("transaction finalized",
		"transaction", pt.ID,
		"type", pt.Type,
		"operations", len(pt.forward),
		"undo", len(c.undoStack),
		"redo", len(c.redoStack),
	)
	return summary
}

// bindAxes lists the index of every column and row id ops mention, so a
// receiver can register ids it has not allocated yet.
func (c *Controller) bindAxes(ops []operation.Operation) []operation.AxisBinding {
	type axes struct {
		columns map[ir.ColumnID]int64
		rows    map[ir.RowID]int64
	}
	bySheet := make(map[ir.SheetID]*axes)
	for _, op := range ops {
		for _, ref := range operation.Cells(op) {
			sheet := c.grid.Sheet(ref.Sheet)
			if sheet == nil {
				continue
			}
			a, ok := bySheet[ref.Sheet]
			if !ok {
				a = &axes{columns: make(map[ir.ColumnID]int64), rows: make(map[ir.RowID]int64)}
				bySheet[ref.Sheet] = a
			}
			if x, ok := sheet.ColumnIndex(ref.Column); ok {
				a.columns[ref.Column] = x
			}
			if y, ok := sheet.RowIndex(ref.Row); ok {
				a.rows[ref.Row] = y
			}
		}
	}

	out := make([]operation.AxisBinding, 0, len(bySheet))
	for id, a := range bySheet {
		b := operation.AxisBinding{Sheet: id}
		for col, x := range a.columns {
			b.Columns = append(b.Columns, operation.ColumnBinding{ID: col, Index: x})
		}
		for row, y := range a.rows {
			b.Rows = append(b.Rows, operation.RowBinding{ID: row, Index: y})
		}
		slices.SortFunc(b.Columns, func(l, r operation.ColumnBinding) int { return cmp.Compare(l.Index, r.Index) })
		slices.SortFunc(b.Rows, func(l, r operation.RowBinding) int { return cmp.Compare(l.Index, r.Index) })
		out = append(out, b)
	}
	slices.SortFunc(out, func(l, r operation.AxisBinding) int { return cmp.Compare(l.Sheet, r.Sheet) })
	return out
}
