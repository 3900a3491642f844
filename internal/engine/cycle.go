package engine

import (
	"github.com/PawelJastrzebski/quadratic-fork/internal/deps"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// CycleDetector tracks which code cells a transaction has already
// evaluated.
//
// A cell evaluated a second time in the same transaction is only a cycle
// if it reaches itself through the dependency graph; diamonds (A feeds B
// and C, both feed D) legitimately evaluate D twice.
type CycleDetector struct {
	graph     *deps.Graph
	evaluated map[ir.CellRef]bool
}

// NewCycleDetector creates an empty history over graph.
func NewCycleDetector(graph *deps.Graph) *CycleDetector {
	return &CycleDetector{graph: graph, evaluated: make(map[ir.CellRef]bool)}
}

// WouldCycle reports whether evaluating ref again would loop.
func (c *CycleDetector) WouldCycle(ref ir.CellRef) bool {
	return c.evaluated[ref] && c.graph.Reaches(ref, ref)
}

// Record marks ref as evaluated.
func (c *CycleDetector) Record(ref ir.CellRef) {
	c.evaluated[ref] = true
}

// Len returns the number of cells evaluated so far.
func (c *CycleDetector) Len() int {
	return len(c.evaluated)
}
