// Package engine implements the spreadsheet transaction engine.
//
// A Controller owns a grid and applies batches of operations to it as
// transactions. Every operation yields an inverse, so each committed
// transaction can be undone exactly.
//
// ARCHITECTURE:
//
// Transaction lifecycle:
//  1. Operations are applied in order. Each write records its inverse and
//     seeds the frontier with the code cells that read the written cells.
//  2. The compute loop pops the frontier (stack order) and evaluates code
//     cells. Formulas run in-process; Python and JavaScript are dispatched
//     to the interpreter host and the transaction is parked.
//  3. The host reads cells through CalculationGetCells and reports its
//     result through CalculationComplete, which resumes the loop.
//  4. When the frontier drains the transaction is finalized: bounds are
//     recalculated, undo/redo stacks updated and the (forward, reverse)
//     pair recorded for synchronization.
//
// Code-run writes are recorded as SetCellCode operations, so undo and redo
// replay with compute disabled and restore state exactly.
//
// Concurrency:
// The Controller is single-threaded and holds no locks. Embedders that
// call it from several goroutines wrap it in a Session, a single-writer
// loop that runs submitted work in FIFO order.
//
// Termination:
// Per-transaction cycle history stops evaluation of a cell that reaches
// itself through the dependency graph, and a step quota bounds the number
// of evaluations in one transaction.
package engine
