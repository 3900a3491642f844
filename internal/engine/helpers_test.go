package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/store"
)

const testSheet ir.SheetID = "sheet-1"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestController returns a controller over one sheet with a fixed id.
func newTestController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	g := grid.New()
	_, err := g.AddSheetWithID(testSheet, "Sheet 1")
	require.NoError(t, err)
	return New(g, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func at(t *testing.T, a1 string) ir.SheetPos {
	t.Helper()
	p, err := ir.ParseA1(a1)
	require.NoError(t, err)
	return ir.SheetPos{Sheet: testSheet, Pos: p}
}

func rect(t *testing.T, a1 string) ir.SheetRect {
	t.Helper()
	r, err := ir.ParseRange(a1)
	require.NoError(t, err)
	return ir.SheetRect{Sheet: testSheet, Rect: r}
}

// display returns the text the grid shows at a1.
func display(t *testing.T, c *Controller, a1 string) string {
	t.Helper()
	return c.Grid().Sheet(testSheet).DisplayValue(at(t, a1).Pos).Display()
}

func codeAt(t *testing.T, c *Controller, a1 string) *ir.CodeCellValue {
	t.Helper()
	return c.Grid().Sheet(testSheet).CodeCell(at(t, a1).Pos)
}

func refAt(t *testing.T, c *Controller, a1 string) ir.CellRef {
	t.Helper()
	return c.Grid().Sheet(testSheet).CellRef(at(t, a1).Pos)
}

func ptr[T any](v T) *T { return &v }
