package engine

import (
	"github.com/PawelJastrzebski/quadratic-fork/internal/host"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// CalculationGetCells serves a read issued by code running on the host.
//
// An id that is not parked fails with UNKNOWN_TRANSACTION and changes
// nothing. A read of an unknown sheet, or of a rectangle containing the
// running cell, is refused: the failure is recorded on the cell, the
// transaction continues without it (it may park again or commit), and the
// typed failure is returned together with the resulting summary. A
// successful read returns every cell of the rectangle row-major and a nil
// summary.
func (c *Controller) CalculationGetCells(req host.GetCellsRequest) (host.GetCellsResponse, *TransactionSummary, error) {
	pt, ok := c.suspended[req.TransactionID]
	if !ok {
		return host.GetCellsResponse{}, nil, NewUnknownTransactionError(req.TransactionID)
	}
	ref, ok := pt.Current()
	if !ok {
		panic(NewInvariantError(pt.ID, "parked transaction has no running cell"))
	}
	current, pos, ok := c.grid.Resolve(ref)
	if !ok {
		panic(NewInvariantError(pt.ID, "running cell no longer resolves"))
	}

	sheet := current
	if req.SheetName != nil {
		sheet = c.grid.SheetByName(*req.SheetName)
		if sheet == nil {
			rtErr := NewSheetNotFoundError(pt.ID, pos.A1(), *req.SheetName)
			runErr := ir.RunError{Span: lineSpan(req.LineNumber), Kind: ir.ErrorKindSheetNotFound, Msg: rtErr.Message}
			return c.refuseRead(pt, ref, runErr, host.FailureSheetNotFound, rtErr)
		}
	}
	if sheet == current && req.Rect.Contains(pos) {
		rtErr := NewSelfReferenceError(pt.ID, pos.A1())
		runErr := ir.RunError{Span: lineSpan(req.LineNumber), Kind: ir.ErrorKindSelfReference, Msg: rtErr.Message}
		return c.refuseRead(pt, ref, runErr, host.FailureSelfReference, rtErr)
	}

	positions := req.Rect.Positions()
	cells := make([]host.CellForArray, 0, len(positions))
	for _, p := range positions {
		pt.access(sheet.CellRef(p))
		cells = append(cells, host.CellForArray{X: p.X, Y: p.Y, Value: sheet.DisplayValue(p).Display()})
	}

	c.logger.Debug("host read cells",
		"transaction", pt.ID,
		"sheet", sheet.Name,
		"rect", req.Rect.String(),
		"cells", len(cells),
	)
	return host.GetCellsResponse{Cells: cells}, nil, nil
}

// refuseRead records a refused read on the running cell and continues the
// transaction without the host result.
func (c *Controller) refuseRead(pt *PendingTransaction, ref ir.CellRef, runErr ir.RunError, kind host.GetCellsFailureKind, rtErr *RuntimeError) (host.GetCellsResponse, *TransactionSummary, error) {
	c.logger.Warn("host read refused",
		"transaction", pt.ID,
		"cell", c.describe(ref),
		"error", rtErr,
	)
	c.unpark(pt.ID)

	c.enter(pt)
	defer c.leave()

	pt.resume()
	c.storeRun(pt, ref, &ir.CodeRun{Err: &runErr}, true)
	summary := c.proceed(pt)

	failure := &host.GetCellsFailure{Kind: kind, Message: rtErr.Error()}
	return host.GetCellsResponse{Error: failure}, &summary, nil
}

func lineSpan(line *uint32) *ir.Span {
	if line == nil {
		return nil
	}
	return ir.LineSpan(*line)
}
