package engine

import (
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// PendingTransaction is a transaction that has started but not committed.
//
// It is owned by the Controller: either it runs synchronously inside a
// Controller call or it sits in the suspended registry waiting for the
// interpreter host.
type PendingTransaction struct {
	ID     string
	Type   operation.TransactionType
	Cursor string

	// compute enables the compute loop. Undo, redo and replays restore
	// recorded code-run writes and never evaluate.
	compute bool

	queue   []operation.Operation
	forward []operation.Operation
	reverse []operation.Operation

	frontier *frontier

	// current is the code cell the host is running, with the record it had
	// when dispatched.
	current         *ir.CellRef
	currentSnapshot *ir.CodeCellValue
	cellsAccessed   []ir.CellRef
	accessedSet     map[ir.CellRef]struct{}
	waiting         ir.CodeCellLanguage

	summary     *summaryBuilder
	boundsDirty sheetSet

	cycles   *CycleDetector
	quota    *QuotaEnforcer
	complete bool
}

// Waiting reports whether the transaction is suspended on the host.
func (p *PendingTransaction) Waiting() bool {
	return p.waiting != ""
}

// Current returns the cell the host is running.
func (p *PendingTransaction) Current() (ir.CellRef, bool) {
	if p.current == nil {
		return ir.CellRef{}, false
	}
	return *p.current, true
}

// Operations returns the forward operations applied so far, including
// code-run writes.
func (p *PendingTransaction) Operations() []operation.Operation {
	return p.forward
}

func (p *PendingTransaction) record(forward, reverse operation.Operation) {
	p.forward = append(p.forward, forward)
	p.reverse = append(p.reverse, reverse)
}

func (p *PendingTransaction) access(ref ir.CellRef) {
	if _, ok := p.accessedSet[ref]; ok {
		return
	}
	p.accessedSet[ref] = struct{}{}
	p.cellsAccessed = append(p.cellsAccessed, ref)
}

func (p *PendingTransaction) resetAccess() {
	p.cellsAccessed = nil
	p.accessedSet = make(map[ir.CellRef]struct{})
}

// suspend marks the transaction as waiting on the host for ref.
func (p *PendingTransaction) suspend(ref ir.CellRef, snapshot *ir.CodeCellValue) {
	p.current = &ref
	p.currentSnapshot = snapshot
	p.waiting = snapshot.Language
	p.resetAccess()
}

// resume clears the waiting state.
func (p *PendingTransaction) resume() {
	p.current = nil
	p.currentSnapshot = nil
	p.waiting = ""
	p.resetAccess()
}

// undoTransaction is the entry pushed to the undo or redo stack: inverse
// operations, last change first.
func (p *PendingTransaction) undoTransaction() operation.Transaction {
	return operation.Transaction{
		ID:         p.ID,
		Type:       p.Type,
		Cursor:     p.Cursor,
		Operations: operation.Reverse(p.reverse),
	}
}

func (p *PendingTransaction) forwardTransaction() operation.Transaction {
	return operation.Transaction{
		ID:         p.ID,
		Type:       p.Type,
		Cursor:     p.Cursor,
		Operations: p.forward,
	}
}
