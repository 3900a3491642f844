package engine

import (
	"slices"

	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/host"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// newPending allocates a transaction. An empty id gets a fresh one.
func (c *Controller) newPending(id string, typ operation.TransactionType, ops []operation.Operation, cursor string, compute bool) *PendingTransaction {
	if id == "" {
		id = c.ids.Generate()
	}
	pt := &PendingTransaction{
		ID:          id,
		Type:        typ,
		Cursor:      cursor,
		compute:     compute,
		queue:       slices.Clone(ops),
		frontier:    newFrontier(),
		summary:     newSummaryBuilder(),
		boundsDirty: make(sheetSet),
		cycles:      NewCycleDetector(c.deps),
		quota:       NewQuotaEnforcer(c.maxSteps),
	}
	pt.resetAccess()
	return pt
}

// start applies the queued operations and runs the compute loop. The
// returned summary has Complete set when the transaction committed; it
// otherwise carries the id of the parked transaction.
func (c *Controller) start(pt *PendingTransaction) TransactionSummary {
	c.logger.Info("transaction started",
		"transaction", pt.ID,
		"type", pt.Type,
		"operations", len(pt.queue),
		"compute", pt.compute,
	)

	c.enter(pt)
	defer c.leave()

	for len(pt.queue) > 0 {
		op := pt.queue[0]
		pt.queue = pt.queue[1:]
		c.execute(pt, op)
	}
	c.recalculateBounds(pt)

	return c.proceed(pt)
}

// proceed drains the frontier and then parks or finalizes pt.
func (c *Controller) proceed(pt *PendingTransaction) TransactionSummary {
	c.runLoop(pt)
	if pt.Waiting() {
		c.recalculateBounds(pt)
		c.park(pt)
		summary := pt.summary.take()
		summary.TransactionID = pt.ID
		summary.Cursor = pt.Cursor
		c.logger.Info("transaction suspended",
			"transaction", pt.ID,
			"language", pt.waiting,
			"cell", c.describe(*pt.current),
		)
		return summary
	}
	return c.finalize(pt)
}

// runLoop evaluates frontier cells until the frontier drains or a cell
// waits on the host.
func (c *Controller) runLoop(pt *PendingTransaction) {
	for !pt.Waiting() {
		ref, ok := pt.frontier.Pop()
		if !ok {
			return
		}
		if err := pt.quota.Check(pt.ID); err != nil {
			c.logger.Error("max steps quota exceeded",
				"transaction", pt.ID,
				"steps", pt.quota.Current(),
				"limit", pt.quota.MaxSteps(),
				"dropped", pt.frontier.Len()+1,
				"error", err,
			)
			pt.frontier.Clear()
			return
		}

		sheet, pos, ok := c.grid.Resolve(ref)
		if !ok {
			continue
		}
		cell := sheet.CodeCell(pos)
		if cell == nil {
			continue
		}

		if pt.cycles.WouldCycle(ref) {
			runErr := ir.RunError{Kind: ir.ErrorKindCircularReference, Msg: "circular reference"}
			c.logger.Warn("circular reference",
				"transaction", pt.ID,
				"cell", c.describe(ref),
				"error", NewCellError(pt.ID, pos.A1(), runErr),
			)
			c.storeRun(pt, ref, &ir.CodeRun{Err: &runErr}, false)
			continue
		}
		pt.cycles.Record(ref)
		pt.frontier.Push(c.deps.Dependents(ref)...)

		c.evaluate(pt, sheet, pos, ref, cell)
	}
}

// evaluate runs one code cell. Formulas complete synchronously; external
// languages are dispatched and suspend the transaction.
func (c *Controller) evaluate(pt *PendingTransaction, sheet *grid.Sheet, pos ir.Pos, ref ir.CellRef, cell *ir.CodeCellValue) {
	c.logger.Debug("evaluating code cell",
		"transaction", pt.ID,
		"sheet", sheet.Name,
		"cell", pos.A1(),
		"language", cell.Language,
	)

	switch {
	case cell.Language == ir.LanguageFormula:
		reader := &formulaReader{c: c, pt: pt, sheet: sheet, pos: pos}
		result := c.evaluator.Evaluate(cell.Code, reader)
		if result.Err != nil {
			c.storeRun(pt, ref, &ir.CodeRun{Err: result.Err}, true)
			return
		}
		c.storeRun(pt, ref, &ir.CodeRun{Output: result.Output, CellsAccessed: reader.accessed}, true)

	case cell.Language.External():
		req := host.CodeRequest{TransactionID: pt.ID, Language: cell.Language, Code: cell.Code}
		if err := c.host.Dispatch(req); err != nil {
			runErr := ir.RunError{Kind: ir.ErrorKindHostUnavailable, Msg: err.Error()}
			c.logger.Warn("interpreter host rejected code cell",
				"transaction", pt.ID,
				"cell", pos.A1(),
				"error", err,
			)
			c.storeRun(pt, ref, &ir.CodeRun{Err: &runErr}, true)
			return
		}
		pt.suspend(ref, cell.Clone())

	default:
		panic(NewInvariantError(pt.ID, "code cell with unknown language "+string(cell.Language)))
	}
}

// storeRun writes run as the output of the code cell at ref.
//
// A failed run keeps the previous access set, so dependency edges are
// untouched. A host failure of an external-language cell also keeps the
// previously displayed array; every other failure displays its error at the
// anchor. The write is recorded as a SetCellCode operation with its inverse.
func (c *Controller) storeRun(pt *PendingTransaction, ref ir.CellRef, run *ir.CodeRun, seed bool) {
	sheet, pos, ok := c.grid.Resolve(ref)
	if !ok {
		return
	}
	old := sheet.CodeCell(pos)
	if old == nil {
		c.logger.Warn("code cell removed before its result arrived",
			"transaction", pt.ID,
			"cell", pos.A1(),
		)
		return
	}

	if run.Err != nil {
		run.Output = nil
		run.Previous = nil
		if keepsPrevious(old.Language, run.Err.Kind) {
			run.Previous = old.Output.Displayed().Clone()
		}
		run.CellsAccessed = slices.Clone(old.CellsAccessed())
		if run.Err.Kind != ir.ErrorKindCircularReference {
			c.logger.Warn("code cell failed",
				"transaction", pt.ID,
				"cell", pos.A1(),
				"error", NewCellError(pt.ID, pos.A1(), *run.Err),
			)
		}
	}
	if run.CellsAccessed == nil {
		run.CellsAccessed = []ir.CellRef{}
	}

	updated := old.Clone()
	updated.Output = run
	updated.LastModified = c.clock.Next()

	op := operation.SetCellCode{Cell: ref, Code: updated}
	inverse, err := c.apply(pt, op, seed)
	if err != nil {
		panic(NewInvariantError(pt.ID, err.Error()))
	}
	pt.record(op, inverse)
}

// keepsPrevious reports whether a failed run of a cell in lang leaves the
// last output on screen.
func keepsPrevious(lang ir.CodeCellLanguage, kind ir.ErrorKind) bool {
	if !lang.External() {
		return false
	}
	switch kind {
	case ir.ErrorKindRuntime, ir.ErrorKindHostUnavailable:
		return true
	}
	return false
}

// describe formats ref for logs.
func (c *Controller) describe(ref ir.CellRef) string {
	sheet, pos, ok := c.grid.Resolve(ref)
	if !ok {
		return ref.String()
	}
	return sheet.Name + "!" + pos.A1()
}

// formulaReader serves formula reads from the grid and records them.
type formulaReader struct {
	c        *Controller
	pt       *PendingTransaction
	sheet    *grid.Sheet
	pos      ir.Pos
	accessed []ir.CellRef
	seen     map[ir.CellRef]struct{}
}

func (r *formulaReader) Read(sheetName string, rect ir.Rect) (*ir.Array, error) {
	sheet := r.sheet
	if sheetName != "" {
		sheet = r.c.grid.SheetByName(sheetName)
		if sheet == nil {
			return nil, ir.RunError{Kind: ir.ErrorKindSheetNotFound, Msg: "sheet " + sheetName + " not found"}
		}
	}
	if sheet == r.sheet && rect.Contains(r.pos) {
		return nil, ir.RunError{Kind: ir.ErrorKindSelfReference, Msg: "formula reads its own cell " + r.pos.A1()}
	}
	if r.seen == nil {
		r.seen = make(map[ir.CellRef]struct{})
	}
	for _, p := range rect.Positions() {
		ref := sheet.CellRef(p)
		if _, ok := r.seen[ref]; ok {
			continue
		}
		r.seen[ref] = struct{}{}
		r.accessed = append(r.accessed, ref)
	}
	return sheet.DisplayArray(rect), nil
}
