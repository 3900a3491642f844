package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

func TestController_NewDefaults(t *testing.T) {
	c := New(nil)

	require.Len(t, c.Grid().Sheets(), 1)
	assert.Equal(t, grid.DefaultSheetName, c.Grid().FirstSheet().Name)
	assert.False(t, c.HasUndo())
	assert.False(t, c.HasRedo())
	assert.Empty(t, c.Suspended())
	assert.Equal(t, DefaultMaxSteps, c.maxSteps)
}

func TestController_SetCellValue(t *testing.T) {
	c := newTestController(t, WithIDGenerator(NewFixedGenerator("tx-1")))

	summary, err := c.SetCellValue(at(t, "B2"), "42", "B2")
	require.NoError(t, err)

	assert.True(t, summary.Complete)
	assert.True(t, summary.Save)
	assert.Empty(t, summary.TransactionID)
	assert.Equal(t, "B2", summary.Cursor)
	assert.True(t, summary.Changed(testSheet, at(t, "B2").Pos))
	assert.Equal(t, []ir.SheetID{testSheet}, summary.SheetBoundsChanged)
	assert.Equal(t, "42", display(t, c, "B2"))
	assert.True(t, c.HasUndo())

	entries := c.TakeUnsaved()
	require.Len(t, entries, 1)
	assert.Equal(t, "tx-1", entries[0].Forward.ID)
	assert.Equal(t, operation.TypeUser, entries[0].Forward.Type)
	require.Len(t, entries[0].Forward.Axes, 1)
	assert.False(t, c.HasUnsaved())
}

func TestController_SetCellValuesBlock(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValues(at(t, "A1"), [][]string{{"1", "two"}, {"true"}}, "")
	require.NoError(t, err)

	assert.Equal(t, "1", display(t, c, "A1"))
	assert.Equal(t, "two", display(t, c, "B1"))
	assert.Equal(t, "TRUE", display(t, c, "A2"))
	assert.Equal(t, "", display(t, c, "B2"))
}

func TestController_UnknownSheet(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(ir.SheetPos{Sheet: "nope"}, "1", "")
	assert.Error(t, err)
	assert.False(t, c.HasUndo())
}

func TestController_StartUserTransactionRejectsUnresolvedCells(t *testing.T) {
	c := newTestController(t)

	region := operation.Region{
		Sheet:   testSheet,
		Columns: []ir.ColumnID{"unknown"},
		Rows:    []ir.RowID{ir.RowIDFor(testSheet, 0)},
	}
	op, err := operation.NewSetCellValues(region, ir.ArrayFromValue(ir.Text("x")))
	require.NoError(t, err)

	_, err = c.StartUserTransaction([]operation.Operation{op}, "")
	assert.Error(t, err)
	assert.False(t, c.HasUndo())
	assert.False(t, c.HasUnsaved())
}

func TestController_UndoRedoValues(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(at(t, "A1"), "1", "")
	require.NoError(t, err)
	_, err = c.SetCellValue(at(t, "A1"), "2", "")
	require.NoError(t, err)

	summary := c.Undo("")
	assert.True(t, summary.Complete)
	assert.True(t, summary.Changed(testSheet, at(t, "A1").Pos))
	assert.Equal(t, "1", display(t, c, "A1"))
	assert.True(t, c.HasRedo())

	c.Undo("")
	assert.Equal(t, "", display(t, c, "A1"))
	assert.False(t, c.HasUndo())

	c.Redo("")
	assert.Equal(t, "1", display(t, c, "A1"))
	c.Redo("")
	assert.Equal(t, "2", display(t, c, "A1"))
	assert.False(t, c.HasRedo())
	assert.True(t, c.HasUndo())
}

func TestController_UserTransactionClearsRedo(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(at(t, "A1"), "1", "")
	require.NoError(t, err)
	c.Undo("")
	require.True(t, c.HasRedo())

	_, err = c.SetCellValue(at(t, "A2"), "x", "")
	require.NoError(t, err)
	assert.False(t, c.HasRedo())
}

func TestController_UndoEmptyStackIsNoop(t *testing.T) {
	c := newTestController(t)

	summary := c.Undo("A1")
	assert.True(t, summary.Complete)
	assert.False(t, summary.Save)
	assert.Equal(t, "A1", summary.Cursor)
	assert.False(t, c.HasUnsaved())

	summary = c.Redo("")
	assert.True(t, summary.Complete)
	assert.False(t, c.HasUnsaved())
}

func TestController_UndoKeepsRecordedCursor(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(at(t, "C3"), "1", "C3")
	require.NoError(t, err)

	summary := c.Undo("")
	assert.Equal(t, "C3", summary.Cursor)
}

func TestController_FormatsAndBorders(t *testing.T) {
	c := newTestController(t)

	summary, err := c.SetCellFormat(rect(t, "A1:B2"), ir.AttrBold, ptr("true"), "")
	require.NoError(t, err)
	assert.Equal(t, []ir.SheetID{testSheet}, summary.FormatSheetsModified)

	sheet := c.Grid().Sheet(testSheet)
	assert.Equal(t, "true", *sheet.FormatAttr(at(t, "B2").Pos, ir.AttrBold))

	solid := &ir.BorderStyle{Color: "#000000", Line: ir.LineSolid}
	summary, err = c.SetBorders(rect(t, "A1"), ir.CellBorders{Top: solid}, "")
	require.NoError(t, err)
	assert.Equal(t, []ir.SheetID{testSheet}, summary.BorderSheetsModified)
	assert.Equal(t, solid, sheet.Borders(at(t, "A1").Pos).Top)

	_, err = c.ClearFormatting(rect(t, "A1:B2"), "")
	require.NoError(t, err)
	assert.Nil(t, sheet.FormatAttr(at(t, "B2").Pos, ir.AttrBold))

	c.Undo("")
	assert.Equal(t, "true", *sheet.FormatAttr(at(t, "B2").Pos, ir.AttrBold))
	c.Undo("")
	assert.True(t, sheet.Borders(at(t, "A1").Pos).IsEmpty())
}

func TestController_DeleteCellsRect(t *testing.T) {
	c := newTestController(t)

	_, err := c.SetCellValue(at(t, "A1"), "1", "")
	require.NoError(t, err)
	_, err = c.SetCodeCell(at(t, "B1"), ir.LanguageFormula, "=A1 + 1", "")
	require.NoError(t, err)
	require.Equal(t, "2", display(t, c, "B1"))

	_, err = c.DeleteCellsRect(rect(t, "A1:B1"), "")
	require.NoError(t, err)
	assert.Equal(t, "", display(t, c, "A1"))
	assert.Equal(t, "", display(t, c, "B1"))
	assert.Nil(t, codeAt(t, c, "B1"))

	c.Undo("")
	assert.Equal(t, "1", display(t, c, "A1"))
	assert.Equal(t, "2", display(t, c, "B1"))
	require.NotNil(t, codeAt(t, c, "B1"))
}

func TestController_RunningTransactionPanicsOnReentry(t *testing.T) {
	c := newTestController(t)
	c.inFlight = &PendingTransaction{ID: "busy"}

	assert.Panics(t, func() {
		_, _ = c.SetCellValue(at(t, "A1"), "1", "")
	})
}
