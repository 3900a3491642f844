package engine

import (
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// execute applies op, records it with its inverse, and seeds the frontier.
// Operations reaching execute have been resolved by checkOperations, so a
// failure here is an invariant violation.
func (c *Controller) execute(pt *PendingTransaction, op operation.Operation) {
	inverse, err := c.apply(pt, op, true)
	if err != nil {
		panic(NewInvariantError(pt.ID, err.Error()))
	}
	pt.record(op, inverse)
}

func (c *Controller) apply(pt *PendingTransaction, op operation.Operation, seed bool) (operation.Operation, error) {
	switch o := op.(type) {
	case operation.SetCellValues:
		return c.applySetCellValues(pt, o)
	case operation.SetCellCode:
		return c.applySetCellCode(pt, o, seed)
	case operation.SetCellFormats:
		return c.applySetCellFormats(pt, o)
	case operation.SetBorders:
		return c.applySetBorders(pt, o)
	}
	return nil, fmt.Errorf("unknown operation %T", op)
}

// regionPositions resolves every cell of a region in row-major order.
func (c *Controller) regionPositions(region operation.Region) (*grid.Sheet, []ir.Pos, error) {
	sheet := c.grid.Sheet(region.Sheet)
	if sheet == nil {
		return nil, nil, fmt.Errorf("sheet %s not found", region.Sheet)
	}
	refs := region.Refs()
	out := make([]ir.Pos, len(refs))
	for i, ref := range refs {
		pos, ok := sheet.Pos(ref)
		if !ok {
			return nil, nil, fmt.Errorf("cell %s not found", ref)
		}
		out[i] = pos
	}
	return sheet, out, nil
}

func (c *Controller) applySetCellValues(pt *PendingTransaction, op operation.SetCellValues) (operation.Operation, error) {
	sheet, positions, err := c.regionPositions(op.Region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Kind(), err)
	}
	refs := op.Region.Refs()
	width := op.Values.Width
	old := ir.NewArray(op.Values.Width, op.Values.Height)

	for i, pos := range positions {
		x, y := int64(i)%width, int64(i)/width
		before := sheet.DisplayValue(pos)
		old.Set(x, y, sheet.SetValue(pos, op.Values.Get(x, y)))
		if ir.ValuesEqual(before, sheet.DisplayValue(pos)) {
			continue
		}
		pt.summary.cellChanged(sheet.ID, pos)
		if pt.compute {
			pt.frontier.Push(c.deps.Dependents(refs[i])...)
		}
	}
	pt.boundsDirty.add(sheet.ID)

	return operation.SetCellValues{Region: op.Region, Values: old}, nil
}

// applySetCellCode replaces the code cell at op.Cell.
//
// Dependency edges move from the old record's access set to the new one's.
// Spills are re-derived for the sheet and the dependents of every position
// whose displayed value changed are seeded (when seed is set). A record
// without output is fresh code and seeds its own anchor. Removing an anchor
// records its slot in the inverse so undo restores its spill priority.
func (c *Controller) applySetCellCode(pt *PendingTransaction, op operation.SetCellCode, seed bool) (operation.Operation, error) {
	sheet, pos, ok := c.grid.Resolve(op.Cell)
	if !ok {
		return nil, fmt.Errorf("%s: cell %s not found", op.Kind(), op.Cell)
	}
	old := sheet.CodeCell(pos)
	oldSlot, registered := sheet.Slot(pos)
	updated := op.Code.Clone()

	positions := affectedPositions(sheet, old.OutputRect(pos), updated.OutputRect(pos))
	before := sheet.DisplaySnapshot(positions)

	if op.Slot != nil {
		sheet.RestoreCodeCell(pos, updated, *op.Slot)
	} else {
		sheet.SetCodeCell(pos, updated)
	}
	c.deps.Update(op.Cell, old.CellsAccessed(), updated.CellsAccessed())
	for _, anchor := range recomputeSpills(sheet) {
		c.logger.Debug("spill state changed",
			"transaction", pt.ID,
			"sheet", sheet.Name,
			"cell", anchor.A1(),
			"spilled", sheet.CodeCell(anchor).Spilled(),
		)
	}

	for _, p := range positions {
		if ir.ValuesEqual(before[p], sheet.DisplayValue(p)) {
			continue
		}
		pt.summary.cellChanged(sheet.ID, p)
		if !pt.compute || !seed {
			continue
		}
		if ref, ok := existingRef(sheet, p); ok {
			pt.frontier.Push(c.deps.Dependents(ref)...)
		}
	}
	if pt.compute && updated != nil && updated.Output == nil {
		pt.frontier.Push(op.Cell)
	}

	pt.boundsDirty.add(sheet.ID)
	pt.summary.code.add(sheet.ID)

	inverse := operation.SetCellCode{Cell: op.Cell, Code: old.Clone()}
	if registered && updated == nil {
		inverse.Slot = &oldSlot
	}
	return inverse, nil
}

func (c *Controller) applySetCellFormats(pt *PendingTransaction, op operation.SetCellFormats) (operation.Operation, error) {
	sheet, positions, err := c.regionPositions(op.Region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Kind(), err)
	}
	values := op.Values.Expand()
	old := make([]*string, len(positions))
	for i, pos := range positions {
		old[i] = sheet.SetFormatAttr(pos, op.Attr, values[i])
	}
	pt.boundsDirty.add(sheet.ID)
	pt.summary.formats.add(sheet.ID)

	return operation.SetCellFormats{Region: op.Region, Attr: op.Attr, Values: ir.Compress(old)}, nil
}

func (c *Controller) applySetBorders(pt *PendingTransaction, op operation.SetBorders) (operation.Operation, error) {
	sheet, positions, err := c.regionPositions(op.Region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Kind(), err)
	}
	old := make([]ir.CellBorders, len(positions))
	for i, pos := range positions {
		old[i] = sheet.SetBorders(pos, op.Borders[i])
	}
	pt.boundsDirty.add(sheet.ID)
	pt.summary.borders.add(sheet.ID)

	return operation.SetBorders{Region: op.Region, Borders: old}, nil
}

// existingRef builds the reference of pos without allocating axis ids. A
// position with no allocated ids cannot have been read by any code cell.
func existingRef(sheet *grid.Sheet, pos ir.Pos) (ir.CellRef, bool) {
	col, ok := sheet.ColumnID(pos.X)
	if !ok {
		return ir.CellRef{}, false
	}
	row, ok := sheet.RowID(pos.Y)
	if !ok {
		return ir.CellRef{}, false
	}
	return ir.CellRef{Sheet: sheet.ID, Column: col, Row: row}, true
}

// checkOperations verifies that every cell ops address resolves on the grid.
func (c *Controller) checkOperations(ops []operation.Operation) error {
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		for _, ref := range operation.Cells(op) {
			if _, _, ok := c.grid.Resolve(ref); !ok {
				return fmt.Errorf("operation %d (%s): cell %s not found", i, op.Kind(), ref)
			}
		}
	}
	return nil
}

// recalculateBounds recomputes bounds once per touched sheet.
func (c *Controller) recalculateBounds(pt *PendingTransaction) {
	for id := range pt.boundsDirty {
		sheet := c.grid.Sheet(id)
		if sheet == nil {
			continue
		}
		if sheet.RecalculateBounds() {
			pt.summary.bounds.add(id)
		}
	}
	clear(pt.boundsDirty)
}
