// Package deps tracks which code cells read which cells.
//
// The graph stores reverse edges (cell -> code cells that read it) for
// dependent lookup and forward edges (code cell -> cells it read) for
// reachability. Edges always reflect the most recent successful run of each
// code cell; callers update them with the old and new access sets and only
// the difference is touched.
package deps

import (
	"slices"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

type refSet map[ir.CellRef]struct{}

// Graph is the dependency index. The zero value is not usable; call New.
type Graph struct {
	dependents edges
	precedents edges
}

type edges map[ir.CellRef]refSet

// New returns an empty graph.
func New() *Graph {
	return &Graph{dependents: make(edges), precedents: make(edges)}
}

// Update replaces the edges of codeCell. Edges only in old are removed and
// edges only in updated are added; shared edges are left alone.
func (g *Graph) Update(codeCell ir.CellRef, old, updated []ir.CellRef) {
	oldSet := toSet(old)
	newSet := toSet(updated)
	for ref := range oldSet {
		if _, keep := newSet[ref]; !keep {
			g.unlink(ref, codeCell)
		}
	}
	for ref := range newSet {
		if _, had := oldSet[ref]; !had {
			g.link(ref, codeCell)
		}
	}
}

// Remove drops every edge of codeCell given its last access set.
func (g *Graph) Remove(codeCell ir.CellRef, old []ir.CellRef) {
	g.Update(codeCell, old, nil)
}

// Dependents returns the code cells that read ref, sorted.
func (g *Graph) Dependents(ref ir.CellRef) []ir.CellRef {
	return sorted(g.dependents[ref])
}

// Precedents returns the cells codeCell read, sorted.
func (g *Graph) Precedents(codeCell ir.CellRef) []ir.CellRef {
	return sorted(g.precedents[codeCell])
}

// Reaches reports whether a path of dependent edges leads from "from" to
// "to". A cell reaches itself only through a cycle.
func (g *Graph) Reaches(from, to ir.CellRef) bool {
	seen := make(refSet)
	stack := []ir.CellRef{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dep := range g.dependents[cur] {
			if dep == to {
				return true
			}
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			stack = append(stack, dep)
		}
	}
	return false
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	n := 0
	for _, set := range g.dependents {
		n += len(set)
	}
	return n
}

func (g *Graph) link(ref, codeCell ir.CellRef) {
	if g.dependents[ref] == nil {
		g.dependents[ref] = make(refSet)
	}
	g.dependents[ref][codeCell] = struct{}{}
	if g.precedents[codeCell] == nil {
		g.precedents[codeCell] = make(refSet)
	}
	g.precedents[codeCell][ref] = struct{}{}
}

func (g *Graph) unlink(ref, codeCell ir.CellRef) {
	if set := g.dependents[ref]; set != nil {
		delete(set, codeCell)
		if len(set) == 0 {
			delete(g.dependents, ref)
		}
	}
	if set := g.precedents[codeCell]; set != nil {
		delete(set, ref)
		if len(set) == 0 {
			delete(g.precedents, codeCell)
		}
	}
}

func toSet(refs []ir.CellRef) refSet {
	set := make(refSet, len(refs))
	for _, r := range refs {
		set[r] = struct{}{}
	}
	return set
}

func sorted(set refSet) []ir.CellRef {
	out := make([]ir.CellRef, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	slices.SortFunc(out, ir.CellRef.Compare)
	return out
}
