package harness

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/PawelJastrzebski/quadratic-fork/internal/engine"
	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/host"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/store"
)

// AssertionContext carries what assertions inspect.
type AssertionContext struct {
	Ctx        context.Context
	Controller *engine.Controller
	Recorder   *host.Recorder
	State      map[string]map[string]string
	Logger     *slog.Logger
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertDisplay:
		return assertDisplay(a, actx)
	case AssertRange:
		return assertRange(a, actx)
	case AssertCodeError:
		return assertCodeError(a, actx)
	case AssertHistory:
		return assertHistory(a, actx)
	case AssertSuspended:
		if got := len(actx.Controller.Suspended()); got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d parked", a.Count), Actual: fmt.Sprintf("%d parked", got)}
		}
	case AssertDispatched:
		if got := len(actx.Recorder.Requests); got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d host requests", a.Count), Actual: fmt.Sprintf("%d host requests", got)}
		}
	case AssertReplay:
		return assertReplay(actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertDisplay(a Assertion, actx *AssertionContext) error {
	sheet, pos, err := lookupCell(actx.Controller.Grid(), a.Sheet, a.Cell)
	if err != nil {
		return err
	}
	if got := sheet.DisplayValue(pos).Display(); got != a.Value {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %q", a.Cell, a.Value), Actual: fmt.Sprintf("%q", got)}
	}
	return nil
}

func assertRange(a Assertion, actx *AssertionContext) error {
	sheet, err := lookupSheet(actx.Controller.Grid(), a.Sheet)
	if err != nil {
		return err
	}
	rect, err := ir.ParseRange(a.Range)
	if err != nil {
		return err
	}
	arr := sheet.DisplayArray(rect)
	var mismatches []string
	for y := int64(0); y < arr.Height; y++ {
		for x := int64(0); x < arr.Width; x++ {
			want := ""
			if int(y) < len(a.Rows) && int(x) < len(a.Rows[y]) {
				want = a.Rows[y][x]
			}
			if got := arr.Get(x, y).Display(); got != want {
				pos := ir.Pos{X: rect.Min.X + x, Y: rect.Min.Y + y}
				mismatches = append(mismatches, fmt.Sprintf("%s=%q (want %q)", pos.A1(), got, want))
			}
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %v", a.Range, a.Rows), Actual: strings.Join(mismatches, ", ")}
	}
	return nil
}

func assertCodeError(a Assertion, actx *AssertionContext) error {
	sheet, pos, err := lookupCell(actx.Controller.Grid(), a.Sheet, a.Cell)
	if err != nil {
		return err
	}
	cell := sheet.CodeCell(pos)
	if cell == nil {
		return &AssertionError{Type: a.Type, Expected: "code cell at " + a.Cell, Actual: "no code cell"}
	}
	if cell.Output == nil || cell.Output.Err == nil {
		return &AssertionError{Type: a.Type, Expected: "error kind " + a.Kind, Actual: "no error"}
	}
	if got := string(cell.Output.Err.Kind); got != a.Kind {
		return &AssertionError{Type: a.Type, Expected: "error kind " + a.Kind, Actual: "error kind " + got}
	}
	return nil
}

func assertHistory(a Assertion, actx *AssertionContext) error {
	ctrl := actx.Controller
	if a.Undo != nil && *a.Undo != ctrl.HasUndo() {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("undo=%t", *a.Undo), Actual: fmt.Sprintf("undo=%t", ctrl.HasUndo())}
	}
	if a.Redo != nil && *a.Redo != ctrl.HasRedo() {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("redo=%t", *a.Redo), Actual: fmt.Sprintf("redo=%t", ctrl.HasRedo())}
	}
	return nil
}

// assertReplay flushes the controller into a fresh in-memory log, replays
// it, and compares the rebuilt grid with the captured state.
func assertReplay(actx *AssertionContext) error {
	if n := len(actx.Controller.Suspended()); n > 0 {
		return fmt.Errorf("replay: %d transactions still waiting on the host", n)
	}
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("replay: failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := actx.Controller.Flush(actx.Ctx, st); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	rebuilt, err := engine.Replay(actx.Ctx, st, engine.WithLogger(actx.Logger))
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	got := CaptureState(rebuilt.Grid())
	sameCells := func(a, b map[string]string) bool { return maps.Equal(a, b) }
	if !maps.EqualFunc(actx.State, got, sameCells) {
		return &AssertionError{Type: AssertReplay, Expected: describeState(actx.State), Actual: describeState(got)}
	}
	if rebuilt.HasUndo() != actx.Controller.HasUndo() || rebuilt.HasRedo() != actx.Controller.HasRedo() {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: fmt.Sprintf("undo=%t redo=%t", actx.Controller.HasUndo(), actx.Controller.HasRedo()),
			Actual:   fmt.Sprintf("undo=%t redo=%t", rebuilt.HasUndo(), rebuilt.HasRedo()),
		}
	}
	return nil
}

func describeState(state map[string]map[string]string) string {
	var parts []string
	for _, name := range slices.Sorted(maps.Keys(state)) {
		cells := state[name]
		for _, a1 := range slices.Sorted(maps.Keys(cells)) {
			parts = append(parts, fmt.Sprintf("%s!%s=%q", name, a1, cells[a1]))
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func lookupSheet(g *grid.Grid, name string) (*grid.Sheet, error) {
	if name == "" {
		return g.FirstSheet(), nil
	}
	sheet := g.SheetByName(name)
	if sheet == nil {
		return nil, fmt.Errorf("sheet %q not found", name)
	}
	return sheet, nil
}

func lookupCell(g *grid.Grid, sheetName, cell string) (*grid.Sheet, ir.Pos, error) {
	sheet, err := lookupSheet(g, sheetName)
	if err != nil {
		return nil, ir.Pos{}, err
	}
	pos, err := ir.ParseA1(cell)
	if err != nil {
		return nil, ir.Pos{}, err
	}
	return sheet, pos, nil
}
