// Package xlsx moves grid contents in and out of Excel workbooks.
//
// Export writes what the grid displays: literals and code outputs become
// plain values and code is not carried over. Import reads every worksheet
// and applies its values as one User transaction, so a single undo reverts
// the whole import.
package xlsx

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/PawelJastrzebski/quadratic-fork/internal/engine"
	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// Sheet is one worksheet read from a workbook.
type Sheet struct {
	Name string
	// Rows holds raw cell strings, row-major from A1. Rows may differ in
	// length; missing cells are blank.
	Rows [][]string
}

// ExportFile writes the displayed values of g to path.
func ExportFile(g *grid.Grid, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := Export(g, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Export writes the displayed values of every sheet of g to w, one
// worksheet per sheet in sheet order. Numbers keep their decimal text;
// errors are written as the text ERROR. Bold and italic formatting is
// carried as cell styles.
func Export(g *grid.Grid, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range g.Sheets() {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("export sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("export sheet %q: %w", sheet.Name, err)
		}
		if err := exportSheet(f, sheet); err != nil {
			return fmt.Errorf("export sheet %q: %w", sheet.Name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exportSheet(f *excelize.File, sheet *grid.Sheet) error {
	rect, ok := sheet.Bounds(false).Rect()
	if !ok {
		return nil
	}
	styles := make(map[[2]bool]int)
	for _, pos := range rect.Positions() {
		cell, err := excelize.CoordinatesToCellName(int(pos.X)+1, int(pos.Y)+1)
		if err != nil {
			return err
		}
		if err := writeValue(f, sheet.Name, cell, sheet.DisplayValue(pos)); err != nil {
			return fmt.Errorf("cell %s: %w", cell, err)
		}

		key := [2]bool{isSet(sheet.FormatAttr(pos, ir.AttrBold)), isSet(sheet.FormatAttr(pos, ir.AttrItalic))}
		if !key[0] && !key[1] {
			continue
		}
		id, ok := styles[key]
		if !ok {
			id, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: key[0], Italic: key[1]}})
			if err != nil {
				return fmt.Errorf("cell %s: %w", cell, err)
			}
			styles[key] = id
		}
		if err := f.SetCellStyle(sheet.Name, cell, cell, id); err != nil {
			return fmt.Errorf("cell %s: %w", cell, err)
		}
	}
	return nil
}

func writeValue(f *excelize.File, sheet, cell string, v ir.CellValue) error {
	switch val := v.(type) {
	case ir.Blank:
		return nil
	case ir.Number:
		return f.SetCellDefault(sheet, cell, val.Display())
	case ir.Bool:
		return f.SetCellBool(sheet, cell, bool(val))
	default:
		return f.SetCellStr(sheet, cell, v.Display())
	}
}

func isSet(v *string) bool {
	return v != nil && *v != "" && *v != "false"
}

// ReadFile reads the worksheets of the workbook at path.
func ReadFile(path string) ([]Sheet, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer in.Close()
	return Read(in)
}

// Read reads every worksheet of the workbook in r, in workbook order.
// Cell values are raw: numbers are not formatted.
func Read(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// Operations builds one SetCellValues operation per non-empty worksheet.
// Each worksheet is written to the grid sheet of the same name, starting
// at A1; values are parsed like typed input.
func Operations(g *grid.Grid, sheets []Sheet) ([]operation.Operation, error) {
	var ops []operation.Operation
	for _, ws := range sheets {
		target := g.SheetByName(ws.Name)
		if target == nil {
			return nil, fmt.Errorf("sheet %q not found", ws.Name)
		}
		width := 0
		for _, row := range ws.Rows {
			width = max(width, len(row))
		}
		if width == 0 {
			continue
		}

		values := ir.NewArray(int64(width), int64(len(ws.Rows)))
		region := operation.Region{Sheet: target.ID}
		for x := int64(0); x < values.Width; x++ {
			region.Columns = append(region.Columns, target.GetOrCreateColumn(x))
		}
		for y, row := range ws.Rows {
			region.Rows = append(region.Rows, target.GetOrCreateRow(int64(y)))
			for x, raw := range row {
				values.Set(int64(x), int64(y), ir.ParseCellValue(raw))
			}
		}

		op, err := operation.NewSetCellValues(region, values)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", ws.Name, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Import applies the worksheets read from r to c as one User transaction.
// Every worksheet must match a sheet of the grid by name.
func Import(c *engine.Controller, r io.Reader, cursor string) (engine.TransactionSummary, error) {
	sheets, err := Read(r)
	if err != nil {
		return engine.TransactionSummary{}, err
	}
	ops, err := Operations(c.Grid(), sheets)
	if err != nil {
		return engine.TransactionSummary{}, fmt.Errorf("import: %w", err)
	}
	if len(ops) == 0 {
		return engine.TransactionSummary{Complete: true, Cursor: cursor}, nil
	}
	return c.StartUserTransaction(ops, cursor)
}
