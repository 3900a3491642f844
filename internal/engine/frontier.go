package engine

import "github.com/PawelJastrzebski/quadratic-fork/internal/ir"

// frontier is the set of code cells waiting to be evaluated. Pushing a cell
// already present keeps its original position; Pop takes the most recently
// inserted cell.
type frontier struct {
	order []ir.CellRef
	set   map[ir.CellRef]struct{}
}

func newFrontier() *frontier {
	return &frontier{set: make(map[ir.CellRef]struct{})}
}

func (f *frontier) Push(refs ...ir.CellRef) {
	for _, ref := range refs {
		if _, ok := f.set[ref]; ok {
			continue
		}
		f.set[ref] = struct{}{}
		f.order = append(f.order, ref)
	}
}

func (f *frontier) Pop() (ir.CellRef, bool) {
	if len(f.order) == 0 {
		return ir.CellRef{}, false
	}
	ref := f.order[len(f.order)-1]
	f.order = f.order[:len(f.order)-1]
	delete(f.set, ref)
	return ref, true
}

func (f *frontier) Len() int { return len(f.order) }

func (f *frontier) Clear() {
	f.order = nil
	clear(f.set)
}
