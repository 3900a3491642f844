package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

type sheetState struct {
	Data    grid.Bounds
	All     grid.Bounds
	Display map[string]string
	Bold    map[string]string
	Borders map[string]ir.CellBorders
}

// captureSheet records everything a user can observe on the test sheet
// within A1:F8.
func captureSheet(t *testing.T, c *Controller) sheetState {
	t.Helper()
	sheet := c.Grid().Sheet(testSheet)
	state := sheetState{
		Data:    sheet.Bounds(true),
		All:     sheet.Bounds(false),
		Display: map[string]string{},
		Bold:    map[string]string{},
		Borders: map[string]ir.CellBorders{},
	}
	for _, pos := range rect(t, "A1:F8").Rect.Positions() {
		if v := sheet.DisplayValue(pos).Display(); v != "" {
			state.Display[pos.A1()] = v
		}
		if v := sheet.FormatAttr(pos, ir.AttrBold); v != nil {
			state.Bold[pos.A1()] = *v
		}
		if b := sheet.Borders(pos); !b.IsEmpty() {
			state.Borders[pos.A1()] = b
		}
	}
	return state
}

func mixedOperations(t *testing.T, c *Controller) []operation.Operation {
	t.Helper()
	sheet := c.Grid().Sheet(testSheet)

	values := ir.NewArray(2, 1)
	values.Set(0, 0, ir.ParseCellValue("10"))
	values.Set(1, 0, ir.ParseCellValue("x"))
	setValues, err := operation.NewSetCellValues(region(sheet, rect(t, "A1:B1").Rect), values)
	require.NoError(t, err)

	bold := region(sheet, rect(t, "E6").Rect)
	setBold, err := operation.NewSetCellFormats(bold, ir.AttrBold, ir.Repeat(ptr("true"), bold.Len()))
	require.NoError(t, err)

	solid := &ir.BorderStyle{Color: "#000000", Line: ir.LineSolid}
	setBorders, err := operation.NewSetBorders(region(sheet, rect(t, "F8").Rect), []ir.CellBorders{{Top: solid}})
	require.NoError(t, err)

	return []operation.Operation{
		setValues,
		operation.SetCellCode{
			Cell: sheet.CellRef(at(t, "D1").Pos),
			Code: &ir.CodeCellValue{Language: ir.LanguageFormula, Code: "[1, 2, 3]"},
		},
		setBold,
		setBorders,
	}
}

func TestRoundTrip_UndoRestoresMixedTransaction(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(at(t, "A1"), "1", "")
	require.NoError(t, err)
	_, err = c.SetCodeCell(at(t, "C1"), ir.LanguageFormula, "=A1 + 1", "")
	require.NoError(t, err)
	_, err = c.SetCellFormat(rect(t, "C3"), ir.AttrBold, ptr("true"), "")
	require.NoError(t, err)
	before := captureSheet(t, c)
	require.Equal(t, "2", before.Display["C1"])

	summary, err := c.StartUserTransaction(mixedOperations(t, c), "")
	require.NoError(t, err)
	require.True(t, summary.Complete)
	after := captureSheet(t, c)
	assert.Equal(t, "11", after.Display["C1"])
	assert.Equal(t, "3", after.Display["D3"])
	assert.NotEqual(t, before.Data, after.Data)
	assert.NotEqual(t, before.All, after.All)

	c.Undo("")
	assert.Equal(t, before, captureSheet(t, c))

	c.Redo("")
	assert.Equal(t, after, captureSheet(t, c))
}

func TestRoundTrip_RepeatedUndoRedoCycles(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(at(t, "A1"), "1", "")
	require.NoError(t, err)
	_, err = c.SetCodeCell(at(t, "C1"), ir.LanguageFormula, "=A1 + 1", "")
	require.NoError(t, err)
	_, err = c.StartUserTransaction(mixedOperations(t, c), "")
	require.NoError(t, err)
	// Removing the array anchor exercises slot restoration on every undo.
	_, err = c.DeleteCellsRect(rect(t, "D1"), "")
	require.NoError(t, err)

	done := captureSheet(t, c)
	c.Undo("")
	undone := captureSheet(t, c)
	require.NotEqual(t, done, undone)
	c.Redo("")

	for i := 0; i < 5; i++ {
		c.Undo("")
		require.Equal(t, undone, captureSheet(t, c), "undo of cycle %d", i)
		c.Redo("")
		require.Equal(t, done, captureSheet(t, c), "redo of cycle %d", i)
	}
	assert.True(t, c.HasUndo())
	assert.False(t, c.HasRedo())
}
