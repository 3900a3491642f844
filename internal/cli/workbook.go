package cli

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/engine"
	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/store"
)

// workbook is a controller backed by a transaction log.
type workbook struct {
	store *store.Store
	ctrl  *engine.Controller

	// fresh is set when the log held no sheets and the grid was created
	// from scratch.
	fresh bool
}

// openWorkbook opens the log at path and rebuilds its grid. An empty log
// starts a new grid with the given sheet names, or the configured ones
// when names is empty.
func openWorkbook(ctx context.Context, opts *RootOptions, cmd *cobra.Command, path string, names []string) (*workbook, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open transaction log", err)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(opts.Logger(cmd)),
		engine.WithMaxSteps(opts.Config().Engine.MaxSteps),
	}

	existing, err := st.ReadSheets(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read sheets", err)
	}
	if len(existing) > 0 {
		ctrl, err := engine.Replay(ctx, st, engineOpts...)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitFailure, "failed to replay transaction log", err)
		}
		return &workbook{store: st, ctrl: ctrl}, nil
	}

	if len(names) == 0 {
		names = opts.Config().Sheets
	}
	g := grid.New()
	for _, name := range names {
		g.AddSheet(name)
	}
	return &workbook{store: st, ctrl: engine.New(g, engineOpts...), fresh: true}, nil
}

// save flushes committed transactions to the log.
func (w *workbook) save(ctx context.Context) (int, error) {
	n, err := w.ctrl.Flush(ctx, w.store)
	if err != nil {
		return n, WrapExitError(ExitCommandError, "failed to write transaction log", err)
	}
	return n, nil
}

func (w *workbook) Close() error {
	return w.store.Close()
}

// parseCellRef resolves "Sheet 1!B2", "'Sheet 1'!B2" or "B2" (first sheet).
func parseCellRef(g *grid.Grid, ref string) (ir.SheetPos, error) {
	sheet := g.FirstSheet()
	cell := ref
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		name := strings.Trim(ref[:i], "'")
		sheet = g.SheetByName(name)
		if sheet == nil {
			return ir.SheetPos{}, fmt.Errorf("sheet %q not found", name)
		}
		cell = ref[i+1:]
	}
	if sheet == nil {
		return ir.SheetPos{}, fmt.Errorf("workbook has no sheets")
	}
	pos, err := ir.ParseA1(cell)
	if err != nil {
		return ir.SheetPos{}, err
	}
	return ir.SheetPos{Sheet: sheet.ID, Pos: pos}, nil
}

// describeCells renders positions as "Sheet!A1".
func describeCells(g *grid.Grid, cells []ir.SheetPos) []string {
	out := make([]string, 0, len(cells))
	for _, sp := range cells {
		name := string(sp.Sheet)
		if sheet := g.Sheet(sp.Sheet); sheet != nil {
			name = sheet.Name
		}
		out = append(out, name+"!"+sp.Pos.A1())
	}
	return out
}

// sortedCells orders A1 addresses row-major.
func sortedCells(cells map[string]string) []string {
	keys := slices.Collect(maps.Keys(cells))
	slices.SortFunc(keys, func(a, b string) int {
		pa, errA := ir.ParseA1(a)
		pb, errB := ir.ParseA1(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return cmp.Or(cmp.Compare(pa.Y, pb.Y), cmp.Compare(pa.X, pb.X))
	})
	return keys
}
