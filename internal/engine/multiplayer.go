package engine

import (
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// ApplyReceivedOperations applies a transaction committed by a peer.
//
// The payload is a serialized operation.Transaction. It runs as a
// Multiplayer transaction under the peer's id: compute stays disabled
// because the peer's code-run writes travel with the operations, and the
// undo and redo stacks are left alone. Malformed payloads, unknown sheets,
// axis bindings that conflict with local ids and cells that do not resolve
// fail with MALFORMED_OPERATIONS before anything is applied.
func (c *Controller) ApplyReceivedOperations(data []byte) (TransactionSummary, error) {
	tx, err := operation.Decode(data)
	if err != nil {
		return TransactionSummary{}, NewMalformedOperationsError("", err)
	}
	if _, parked := c.suspended[tx.ID]; parked {
		return TransactionSummary{}, NewMalformedOperationsError(tx.ID, fmt.Errorf("transaction id is in use"))
	}

	bindings, err := c.checkBindings(tx.Axes)
	if err != nil {
		return TransactionSummary{}, NewMalformedOperationsError(tx.ID, err)
	}
	if err := c.checkReceived(tx.Operations, bindings); err != nil {
		return TransactionSummary{}, NewMalformedOperationsError(tx.ID, err)
	}

	c.admit(tx)

	c.logger.Info("received transaction",
		"transaction", tx.ID,
		"peer_type", tx.Type,
		"operations", len(tx.Operations),
	)
	pt := c.newPending(tx.ID, operation.TypeMultiplayer, tx.Operations, tx.Cursor, false)
	return c.start(pt), nil
}

// admit registers the axis ids a logged or received transaction binds and
// advances the clock past its code-run stamps.
func (c *Controller) admit(tx operation.Transaction) {
	for _, b := range tx.Axes {
		sheet := c.grid.Sheet(b.Sheet)
		for _, col := range b.Columns {
			if err := sheet.RegisterColumn(col.ID, col.Index); err != nil {
				panic(NewInvariantError(tx.ID, err.Error()))
			}
		}
		for _, row := range b.Rows {
			if err := sheet.RegisterRow(row.ID, row.Index); err != nil {
				panic(NewInvariantError(tx.ID, err.Error()))
			}
		}
	}
	for _, op := range tx.Operations {
		if code, ok := op.(operation.SetCellCode); ok && code.Code != nil {
			c.clock.Observe(code.Code.LastModified)
		}
	}
}

// pendingAxes are the ids a received transaction will register.
type pendingAxes struct {
	columns map[ir.ColumnID]int64
	rows    map[ir.RowID]int64
}

func (p *pendingAxes) knows(ref ir.CellRef) (column, row bool) {
	if p == nil {
		return false, false
	}
	_, column = p.columns[ref.Column]
	_, row = p.rows[ref.Row]
	return column, row
}

// checkBindings verifies that axis bindings agree with each other and
// with the ids already allocated.
func (c *Controller) checkBindings(axes []operation.AxisBinding) (map[ir.SheetID]*pendingAxes, error) {
	out := make(map[ir.SheetID]*pendingAxes, len(axes))
	for _, b := range axes {
		sheet := c.grid.Sheet(b.Sheet)
		if sheet == nil {
			return nil, fmt.Errorf("axes: sheet %s not found", b.Sheet)
		}
		p, ok := out[b.Sheet]
		if !ok {
			p = &pendingAxes{columns: make(map[ir.ColumnID]int64), rows: make(map[ir.RowID]int64)}
			out[b.Sheet] = p
		}

		colAt := make(map[int64]ir.ColumnID)
		for _, col := range b.Columns {
			if x, ok := sheet.ColumnIndex(col.ID); ok && x != col.Index {
				return nil, fmt.Errorf("axes: column %s is at %d locally, %d remotely", col.ID, x, col.Index)
			}
			if id, ok := sheet.ColumnID(col.Index); ok && id != col.ID {
				return nil, fmt.Errorf("axes: column %d is %s locally, %s remotely", col.Index, id, col.ID)
			}
			if x, ok := p.columns[col.ID]; ok && x != col.Index {
				return nil, fmt.Errorf("axes: column %s bound twice", col.ID)
			}
			if id, ok := colAt[col.Index]; ok && id != col.ID {
				return nil, fmt.Errorf("axes: column %d bound twice", col.Index)
			}
			p.columns[col.ID] = col.Index
			colAt[col.Index] = col.ID
		}

		rowAt := make(map[int64]ir.RowID)
		for _, row := range b.Rows {
			if y, ok := sheet.RowIndex(row.ID); ok && y != row.Index {
				return nil, fmt.Errorf("axes: row %s is at %d locally, %d remotely", row.ID, y, row.Index)
			}
			if id, ok := sheet.RowID(row.Index); ok && id != row.ID {
				return nil, fmt.Errorf("axes: row %d is %s locally, %s remotely", row.Index, id, row.ID)
			}
			if y, ok := p.rows[row.ID]; ok && y != row.Index {
				return nil, fmt.Errorf("axes: row %s bound twice", row.ID)
			}
			if id, ok := rowAt[row.Index]; ok && id != row.ID {
				return nil, fmt.Errorf("axes: row %d bound twice", row.Index)
			}
			p.rows[row.ID] = row.Index
			rowAt[row.Index] = row.ID
		}
	}
	return out, nil
}

// checkReceived verifies that every addressed cell resolves locally or
// through the pending bindings.
func (c *Controller) checkReceived(ops []operation.Operation, bindings map[ir.SheetID]*pendingAxes) error {
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		for _, ref := range operation.Cells(op) {
			sheet := c.grid.Sheet(ref.Sheet)
			if sheet == nil {
				return fmt.Errorf("operation %d (%s): sheet %s not found", i, op.Kind(), ref.Sheet)
			}
			boundCol, boundRow := bindings[ref.Sheet].knows(ref)
			if _, ok := sheet.ColumnIndex(ref.Column); !ok && !boundCol {
				return fmt.Errorf("operation %d (%s): column %s not found", i, op.Kind(), ref.Column)
			}
			if _, ok := sheet.RowIndex(ref.Row); !ok && !boundRow {
				return fmt.Errorf("operation %d (%s): row %s not found", i, op.Kind(), ref.Row)
			}
		}
	}
	return nil
}
