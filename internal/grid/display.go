package grid

import "github.com/PawelJastrzebski/quadratic-fork/internal/ir"

// DisplayValue returns what the grid shows at pos.
//
// A literal always wins. Otherwise code outputs are scanned in registration
// order and the first whose rectangle contains pos decides: a spilled output
// shows Blank, a failed first run shows its error at the anchor, and any
// other output shows the array value at the offset.
func (s *Sheet) DisplayValue(pos ir.Pos) ir.CellValue {
	if v, ok := s.values[pos]; ok {
		return v
	}
	for _, anchor := range s.order {
		cell := s.code[anchor]
		if !cell.OutputRect(anchor).Contains(pos) {
			continue
		}
		return codeDisplay(CodeEntry{Pos: anchor, Cell: cell}, pos)
	}
	return ir.Blank{}
}

func codeDisplay(entry CodeEntry, pos ir.Pos) ir.CellValue {
	run := entry.Cell.Output
	switch {
	case run == nil:
		return ir.Blank{}
	case run.SpillError:
		return ir.Blank{}
	}
	if arr := run.Displayed(); arr != nil {
		return arr.Get(pos.X-entry.Pos.X, pos.Y-entry.Pos.Y)
	}
	if run.Err != nil && pos == entry.Pos {
		return ir.Error{Err: *run.Err}
	}
	return ir.Blank{}
}

// DisplayArray returns the displayed values of rect in row-major order.
func (s *Sheet) DisplayArray(rect ir.Rect) *ir.Array {
	arr := ir.NewArray(rect.Width(), rect.Height())
	for _, pos := range rect.Positions() {
		arr.Set(pos.X-rect.Min.X, pos.Y-rect.Min.Y, s.DisplayValue(pos))
	}
	return arr
}

// DisplaySnapshot captures the displayed values of the given positions.
func (s *Sheet) DisplaySnapshot(positions []ir.Pos) map[ir.Pos]ir.CellValue {
	out := make(map[ir.Pos]ir.CellValue, len(positions))
	for _, p := range positions {
		out[p] = s.DisplayValue(p)
	}
	return out
}
