package engine

import (
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// StartUserTransaction applies ops as a User transaction. Every cell the
// operations address must already resolve; otherwise nothing is applied.
func (c *Controller) StartUserTransaction(ops []operation.Operation, cursor string) (TransactionSummary, error) {
	if err := c.checkOperations(ops); err != nil {
		return TransactionSummary{}, fmt.Errorf("start user transaction: %w", err)
	}
	pt := c.newPending("", operation.TypeUser, ops, cursor, true)
	return c.start(pt), nil
}

// SetCellValue parses input like typed text and writes it to one cell.
func (c *Controller) SetCellValue(sp ir.SheetPos, input string, cursor string) (TransactionSummary, error) {
	return c.SetCellValues(sp, [][]string{{input}}, cursor)
}

// SetCellValues writes a block of parsed inputs with its top-left corner at
// origin. Short rows are padded with Blank.
func (c *Controller) SetCellValues(origin ir.SheetPos, rows [][]string, cursor string) (TransactionSummary, error) {
	sheet, err := c.sheet(origin.Sheet)
	if err != nil {
		return TransactionSummary{}, err
	}
	if len(rows) == 0 {
		return TransactionSummary{}, fmt.Errorf("set cell values: no rows")
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if width == 0 {
		return TransactionSummary{}, fmt.Errorf("set cell values: no columns")
	}

	values := ir.NewArray(int64(width), int64(len(rows)))
	for y, row := range rows {
		for x, input := range row {
			values.Set(int64(x), int64(y), ir.ParseCellValue(input))
		}
	}
	rect := ir.RectFromSize(origin.Pos, values.Width, values.Height)
	op, err := operation.NewSetCellValues(region(sheet, rect), values)
	if err != nil {
		return TransactionSummary{}, fmt.Errorf("set cell values: %w", err)
	}
	return c.StartUserTransaction([]operation.Operation{op}, cursor)
}

// SetCodeCell stores code at sp and evaluates it. A literal under the anchor
// is cleared first, since a literal would hide the output.
func (c *Controller) SetCodeCell(sp ir.SheetPos, language ir.CodeCellLanguage, code string, cursor string) (TransactionSummary, error) {
	sheet, err := c.sheet(sp.Sheet)
	if err != nil {
		return TransactionSummary{}, err
	}
	if !language.Valid() {
		return TransactionSummary{}, fmt.Errorf("set code cell: unknown language %q", language)
	}

	var ops []operation.Operation
	if !ir.IsBlank(sheet.Literal(sp.Pos)) {
		clearOp, err := operation.NewSetCellValues(region(sheet, ir.SinglePos(sp.Pos)), ir.NewArray(1, 1))
		if err != nil {
			return TransactionSummary{}, fmt.Errorf("set code cell: %w", err)
		}
		ops = append(ops, clearOp)
	}
	ops = append(ops, operation.SetCellCode{
		Cell: sheet.CellRef(sp.Pos),
		Code: &ir.CodeCellValue{Language: language, Code: code, LastModified: c.clock.Next()},
	})
	return c.StartUserTransaction(ops, cursor)
}

// DeleteCellsRect clears literals and removes code cells anchored in rect.
func (c *Controller) DeleteCellsRect(sr ir.SheetRect, cursor string) (TransactionSummary, error) {
	sheet, err := c.sheet(sr.Sheet)
	if err != nil {
		return TransactionSummary{}, err
	}
	clearOp, err := operation.NewSetCellValues(region(sheet, sr.Rect), ir.NewArray(sr.Width(), sr.Height()))
	if err != nil {
		return TransactionSummary{}, fmt.Errorf("delete cells: %w", err)
	}
	ops := []operation.Operation{clearOp}
	for _, entry := range sheet.CodeCells() {
		if sr.Contains(entry.Pos) {
			ops = append(ops, operation.SetCellCode{Cell: sheet.CellRef(entry.Pos)})
		}
	}
	return c.StartUserTransaction(ops, cursor)
}

// SetCellFormat sets (or with a nil value clears) one attribute over rect.
func (c *Controller) SetCellFormat(sr ir.SheetRect, attr ir.FormatAttr, value *string, cursor string) (TransactionSummary, error) {
	sheet, err := c.sheet(sr.Sheet)
	if err != nil {
		return TransactionSummary{}, err
	}
	r := region(sheet, sr.Rect)
	op, err := operation.NewSetCellFormats(r, attr, ir.Repeat(value, r.Len()))
	if err != nil {
		return TransactionSummary{}, fmt.Errorf("set cell format: %w", err)
	}
	return c.StartUserTransaction([]operation.Operation{op}, cursor)
}

// ClearFormatting clears every formatting attribute over rect.
func (c *Controller) ClearFormatting(sr ir.SheetRect, cursor string) (TransactionSummary, error) {
	sheet, err := c.sheet(sr.Sheet)
	if err != nil {
		return TransactionSummary{}, err
	}
	r := region(sheet, sr.Rect)
	ops := make([]operation.Operation, 0, len(ir.FormatAttrs))
	for _, attr := range ir.FormatAttrs {
		op, err := operation.NewSetCellFormats(r, attr, ir.Repeat(nil, r.Len()))
		if err != nil {
			return TransactionSummary{}, fmt.Errorf("clear formatting: %w", err)
		}
		ops = append(ops, op)
	}
	return c.StartUserTransaction(ops, cursor)
}

// SetBorders applies the same borders to every cell of rect. Empty borders
// clear them.
func (c *Controller) SetBorders(sr ir.SheetRect, borders ir.CellBorders, cursor string) (TransactionSummary, error) {
	sheet, err := c.sheet(sr.Sheet)
	if err != nil {
		return TransactionSummary{}, err
	}
	r := region(sheet, sr.Rect)
	all := make([]ir.CellBorders, r.Len())
	for i := range all {
		all[i] = borders
	}
	op, err := operation.NewSetBorders(r, all)
	if err != nil {
		return TransactionSummary{}, fmt.Errorf("set borders: %w", err)
	}
	return c.StartUserTransaction([]operation.Operation{op}, cursor)
}

// RerunCodeCells evaluates every code cell of one sheet, or of every sheet
// when sheet is nil, in registration order.
func (c *Controller) RerunCodeCells(sheet *ir.SheetID, cursor string) (TransactionSummary, error) {
	var sheets []*grid.Sheet
	if sheet != nil {
		s, err := c.sheet(*sheet)
		if err != nil {
			return TransactionSummary{}, err
		}
		sheets = []*grid.Sheet{s}
	} else {
		sheets = c.grid.Sheets()
	}

	pt := c.newPending("", operation.TypeUser, nil, cursor, true)
	// The frontier pops last-in first, so push in reverse to evaluate in
	// registration order.
	var refs []ir.CellRef
	for _, s := range sheets {
		for _, entry := range s.CodeCells() {
			refs = append(refs, s.CellRef(entry.Pos))
		}
	}
	for i := len(refs) - 1; i >= 0; i-- {
		pt.frontier.Push(refs[i])
	}
	return c.start(pt), nil
}

func (c *Controller) sheet(id ir.SheetID) (*grid.Sheet, error) {
	s := c.grid.Sheet(id)
	if s == nil {
		return nil, fmt.Errorf("sheet %s not found", id)
	}
	return s, nil
}

// region builds the operation region covering rect, allocating axis ids.
func region(sheet *grid.Sheet, rect ir.Rect) operation.Region {
	r := operation.Region{Sheet: sheet.ID}
	for x := rect.Min.X; x <= rect.Max.X; x++ {
		r.Columns = append(r.Columns, sheet.GetOrCreateColumn(x))
	}
	for y := rect.Min.Y; y <= rect.Max.Y; y++ {
		r.Rows = append(r.Rows, sheet.GetOrCreateRow(y))
	}
	return r
}
