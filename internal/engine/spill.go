package engine

import (
	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// recomputeSpills re-derives the spill flag of every code cell on sheet
// and returns the anchors whose flag changed.
//
// Cells are checked in registration order. A cell spills when its output
// rectangle intersects the output rectangle of any earlier cell; earlier
// cells claim their whole rectangle whether or not they spill themselves.
func recomputeSpills(sheet *grid.Sheet) []ir.Pos {
	var (
		claimed []ir.Rect
		changed []ir.Pos
	)
	for _, entry := range sheet.CodeCells() {
		rect := entry.Cell.OutputRect(entry.Pos)
		spilled := false
		for _, r := range claimed {
			if r.Intersects(rect) {
				spilled = true
				break
			}
		}
		claimed = append(claimed, rect)

		if entry.Cell.Output == nil || entry.Cell.Output.SpillError == spilled {
			continue
		}
		sheet.SetSpill(entry.Pos, spilled)
		changed = append(changed, entry.Pos)
	}
	return changed
}

// affectedPositions returns the positions whose display may change when a
// code cell's output moves from oldRect to newRect: both rectangles plus the
// output of every code cell overlapping either.
func affectedPositions(sheet *grid.Sheet, oldRect, newRect ir.Rect) []ir.Pos {
	rects := []ir.Rect{oldRect, newRect}
	for _, entry := range sheet.CodeCells() {
		rect := entry.Cell.OutputRect(entry.Pos)
		if rect.Intersects(oldRect) || rect.Intersects(newRect) {
			rects = append(rects, rect)
		}
	}

	seen := make(map[ir.Pos]struct{})
	var out []ir.Pos
	for _, r := range rects {
		for _, p := range r.Positions() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
