package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/PawelJastrzebski/quadratic-fork/internal/engine"
	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/host"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/testutil"
)

// Harness runs one scenario against a Controller.
//
// Interpreter requests land in a host.Recorder; complete and get_cells
// steps answer them. Transaction ids come from testutil.SequentialIDs and
// trace events are numbered by testutil.DeterministicClock, so the same
// scenario always yields the same trace.
type Harness struct {
	ctrl     *engine.Controller
	recorder *host.Recorder
	clock    *testutil.DeterministicClock
	ids      *testutil.SequentialIDs
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger   *slog.Logger
	maxSteps int
}

// WithLogger sets the logger passed to the Controller. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithMaxSteps sets the per-transaction evaluation quota.
func WithMaxSteps(n int) Option {
	return func(c *runConfig) {
		c.maxSteps = n
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build a grid with the scenario's sheets under fixed ids
//  2. Run every step, recording a trace event and checking its expectation
//  3. Capture the displayed state of every sheet
//  4. Evaluate the assertions
//
// A returned error means the scenario could not be executed at all;
// failed expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	cfg := runConfig{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxSteps: engine.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	g, err := buildGrid(scenario.Sheets)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		recorder: &host.Recorder{},
		clock:    testutil.NewDeterministicClock(),
		ids:      testutil.NewSequentialIDs("tx"),
		logger:   cfg.logger,
	}
	h.ctrl = engine.New(g,
		engine.WithHost(h.recorder),
		engine.WithIDGenerator(h.ids),
		engine.WithMaxSteps(cfg.maxSteps),
		engine.WithLogger(cfg.logger),
	)

	result := NewResult()
	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		event, stepErr := h.execute(step)
		result.AddTrace(event)
		for _, msg := range checkStep(step, event, stepErr) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Action, msg))
		}
	}

	result.State = CaptureState(h.ctrl.Grid())

	actx := &AssertionContext{
		Ctx:        context.Background(),
		Controller: h.ctrl,
		Recorder:   h.recorder,
		State:      result.State,
		Logger:     cfg.logger,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"steps", len(scenario.Steps),
		"pass", result.Pass,
	)
	return result, nil
}

func buildGrid(names []string) (*grid.Grid, error) {
	if len(names) == 0 {
		names = []string{"Sheet 1"}
	}
	g := grid.New()
	for i, name := range names {
		if _, err := g.AddSheetWithID(testutil.SheetID(i+1), name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
	}
	return g, nil
}

// execute runs one step and returns its trace event together with the
// error the step produced, if any.
func (h *Harness) execute(step *Step) (TraceEvent, error) {
	event := TraceEvent{Seq: h.clock.Next(), Action: step.Action}
	before := len(h.recorder.Requests)

	summary, stepErr := h.dispatch(step, &event)
	if summary != nil {
		event.Complete = summary.Complete
		if summary.TransactionID != "" {
			event.Transaction = summary.TransactionID
		}
		event.Changed = h.describeCells(summary.CellsChanged)
	}
	for _, req := range h.recorder.Requests[before:] {
		event.Dispatched = append(event.Dispatched, fmt.Sprintf("%s %s: %s", req.TransactionID, req.Language, req.Code))
	}
	if stepErr != nil {
		event.Error = stepErr.Error()
	}

	h.logger.Debug("scenario step",
		"seq", event.Seq,
		"action", step.Action,
		"transaction", event.Transaction,
		"complete", event.Complete,
		"error", event.Error,
	)
	return event, stepErr
}

func (h *Harness) dispatch(step *Step, event *TraceEvent) (*engine.TransactionSummary, error) {
	switch step.Action {
	case ActionSetValue:
		sp, err := h.sheetPos(step.Sheet, step.Cell)
		if err != nil {
			return nil, err
		}
		return summarize(h.ctrl.SetCellValue(sp, step.Value, ""))

	case ActionSetValues:
		sp, err := h.sheetPos(step.Sheet, step.Cell)
		if err != nil {
			return nil, err
		}
		return summarize(h.ctrl.SetCellValues(sp, step.Rows, ""))

	case ActionSetCode:
		sp, err := h.sheetPos(step.Sheet, step.Cell)
		if err != nil {
			return nil, err
		}
		lang, err := ir.ParseLanguage(step.Language)
		if err != nil {
			return nil, err
		}
		return summarize(h.ctrl.SetCodeCell(sp, lang, step.Code, ""))

	case ActionDelete:
		sr, err := h.sheetRect(step.Sheet, step.Range)
		if err != nil {
			return nil, err
		}
		return summarize(h.ctrl.DeleteCellsRect(sr, ""))

	case ActionSetFormat:
		sr, err := h.sheetRect(step.Sheet, step.Range)
		if err != nil {
			return nil, err
		}
		return summarize(h.ctrl.SetCellFormat(sr, ir.FormatAttr(step.Attr), step.Format, ""))

	case ActionClearFormatting:
		sr, err := h.sheetRect(step.Sheet, step.Range)
		if err != nil {
			return nil, err
		}
		return summarize(h.ctrl.ClearFormatting(sr, ""))

	case ActionUndo:
		return summarize(h.ctrl.Undo(""), nil)

	case ActionRedo:
		return summarize(h.ctrl.Redo(""), nil)

	case ActionRerun:
		var target *ir.SheetID
		if step.Sheet != "" {
			sheet, err := h.sheet(step.Sheet)
			if err != nil {
				return nil, err
			}
			target = &sheet.ID
		}
		return summarize(h.ctrl.RerunCodeCells(target, ""))

	case ActionComplete:
		event.Transaction = h.target(step)
		return summarize(h.ctrl.CalculationComplete(codeResult(event.Transaction, step)))

	case ActionGetCells:
		event.Transaction = h.target(step)
		rect, err := ir.ParseRange(step.Range)
		if err != nil {
			return nil, err
		}
		req := host.GetCellsRequest{TransactionID: event.Transaction, Rect: rect, LineNumber: step.Line}
		if step.Sheet != "" {
			req.SheetName = &step.Sheet
		}
		resp, resumed, err := h.ctrl.CalculationGetCells(req)
		if err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return resumed, errors.New(resp.Error.Message)
		}
		for _, cell := range resp.Cells {
			event.Cells = append(event.Cells, cell.Value)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown action %q", step.Action)
}

func summarize(s engine.TransactionSummary, err error) (*engine.TransactionSummary, error) {
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// target resolves the transaction a host message is addressed to.
func (h *Harness) target(step *Step) string {
	if step.Transaction != "" {
		return step.Transaction
	}
	waiting := h.ctrl.Suspended()
	for i := len(h.recorder.Requests) - 1; i >= 0; i-- {
		id := h.recorder.Requests[i].TransactionID
		if slices.Contains(waiting, id) {
			return id
		}
	}
	return ""
}

func codeResult(id string, step *Step) host.CodeResult {
	res := host.CodeResult{TransactionID: id, LineNumber: step.Line}
	switch {
	case step.Cancel:
		res.CancelCompute = true
	case step.Error != nil:
		res.ErrorMsg = step.Error
	default:
		res.Success = true
		res.OutputValue = step.Output
		res.ArrayOutput = step.Array
	}
	return res
}

func (h *Harness) sheet(name string) (*grid.Sheet, error) {
	return lookupSheet(h.ctrl.Grid(), name)
}

func (h *Harness) sheetPos(name, cell string) (ir.SheetPos, error) {
	sheet, err := h.sheet(name)
	if err != nil {
		return ir.SheetPos{}, err
	}
	pos, err := ir.ParseA1(cell)
	if err != nil {
		return ir.SheetPos{}, err
	}
	return ir.SheetPos{Sheet: sheet.ID, Pos: pos}, nil
}

func (h *Harness) sheetRect(name, rng string) (ir.SheetRect, error) {
	sheet, err := h.sheet(name)
	if err != nil {
		return ir.SheetRect{}, err
	}
	rect, err := ir.ParseRange(rng)
	if err != nil {
		return ir.SheetRect{}, err
	}
	return ir.SheetRect{Sheet: sheet.ID, Rect: rect}, nil
}

// describeCells renders summary cells as "Sheet!A1".
func (h *Harness) describeCells(cells []ir.SheetPos) []string {
	if len(cells) == 0 {
		return nil
	}
	out := make([]string, 0, len(cells))
	for _, sp := range cells {
		name := string(sp.Sheet)
		if sheet := h.ctrl.Grid().Sheet(sp.Sheet); sheet != nil {
			name = sheet.Name
		}
		out = append(out, name+"!"+sp.Pos.A1())
	}
	return out
}

// checkStep compares a step's outcome with its expectation.
func checkStep(step *Step, event TraceEvent, stepErr error) []string {
	exp := step.Expect
	if exp == nil {
		if stepErr != nil {
			return []string{fmt.Sprintf("unexpected error: %v", stepErr)}
		}
		return nil
	}

	var errs []string
	switch {
	case exp.Error != "" && stepErr == nil:
		errs = append(errs, fmt.Sprintf("expected error %q, got none", exp.Error))
	case exp.Error != "" && !strings.Contains(stepErr.Error(), exp.Error):
		errs = append(errs, fmt.Sprintf("expected error %q, got %q", exp.Error, stepErr.Error()))
	case exp.Error == "" && stepErr != nil:
		errs = append(errs, fmt.Sprintf("unexpected error: %v", stepErr))
	}

	if exp.Pending != nil && *exp.Pending == event.Complete {
		errs = append(errs, fmt.Sprintf("expected pending=%t, got complete=%t", *exp.Pending, event.Complete))
	}
	for _, want := range exp.Changed {
		if !strings.Contains(want, "!") {
			want = "!" + want
		}
		found := slices.ContainsFunc(event.Changed, func(got string) bool {
			return strings.HasSuffix(got, want)
		})
		if !found {
			errs = append(errs, fmt.Sprintf("expected %s in changed cells %v", strings.TrimPrefix(want, "!"), event.Changed))
		}
	}
	if exp.Cells != nil && !slices.Equal(exp.Cells, event.Cells) {
		errs = append(errs, fmt.Sprintf("expected cells %q, got %q", exp.Cells, event.Cells))
	}
	if exp.Dispatched != nil && *exp.Dispatched != len(event.Dispatched) {
		errs = append(errs, fmt.Sprintf("expected %d host requests, got %d", *exp.Dispatched, len(event.Dispatched)))
	}
	return errs
}

// CaptureState returns the displayed non-blank cells of every sheet, keyed
// by sheet name and then A1 address.
func CaptureState(g *grid.Grid) map[string]map[string]string {
	state := make(map[string]map[string]string)
	for _, sheet := range g.Sheets() {
		cells := make(map[string]string)
		if rect, ok := sheet.Bounds(true).Rect(); ok {
			for _, pos := range rect.Positions() {
				if v := sheet.DisplayValue(pos); !ir.IsBlank(v) {
					cells[pos.A1()] = v.Display()
				}
			}
		}
		state[sheet.Name] = cells
	}
	return state
}
