package engine

import (
	"github.com/PawelJastrzebski/quadratic-fork/internal/host"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// CalculationComplete resumes a parked transaction with the host's result.
//
// An id that is not parked fails with UNKNOWN_TRANSACTION and changes
// nothing. With CancelCompute the rest of the frontier is dropped and the
// transaction commits; the running cell keeps its previous output. Otherwise
// the result is written to the running cell and the compute loop resumes,
// possibly parking the transaction again.
func (c *Controller) CalculationComplete(result host.CodeResult) (TransactionSummary, error) {
	pt, ok := c.unpark(result.TransactionID)
	if !ok {
		return TransactionSummary{}, NewUnknownTransactionError(result.TransactionID)
	}
	ref, ok := pt.Current()
	if !ok || !pt.Waiting() {
		panic(NewInvariantError(pt.ID, "parked transaction is not waiting on the host"))
	}

	c.enter(pt)
	defer c.leave()

	if result.CancelCompute {
		c.logger.Info("compute cancelled",
			"transaction", pt.ID,
			"cell", c.describe(ref),
			"dropped", pt.frontier.Len(),
		)
		pt.frontier.Clear()
		pt.resume()
		return c.finalize(pt), nil
	}

	accessed := pt.cellsAccessed
	pt.resume()
	c.storeRun(pt, ref, codeRun(result, accessed), true)
	return c.proceed(pt), nil
}

// codeRun converts a host result to a CodeRun.
func codeRun(result host.CodeResult, accessed []ir.CellRef) *ir.CodeRun {
	run := &ir.CodeRun{}
	if result.StdOut != nil {
		run.StdOut = *result.StdOut
	}
	if result.StdErr != nil {
		run.StdErr = *result.StdErr
	}
	if !result.Success {
		msg := "code cell failed"
		if result.ErrorMsg != nil {
			msg = *result.ErrorMsg
		}
		run.Err = &ir.RunError{Span: lineSpan(result.LineNumber), Kind: ir.ErrorKindRuntime, Msg: msg}
		return run
	}
	run.Output = result.Output()
	run.CellsAccessed = accessed
	return run
}
