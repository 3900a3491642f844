package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

func ref(name string) ir.CellRef {
	return ir.CellRef{Sheet: "s", Column: ir.ColumnID(name), Row: "r"}
}

func TestUpdateAddsAndRemovesDiff(t *testing.T) {
	g := New()
	a1, a2, b1, code := ref("a1"), ref("a2"), ref("b1"), ref("code")

	g.Update(code, nil, []ir.CellRef{a1, a2})
	assert.Equal(t, []ir.CellRef{code}, g.Dependents(a1))
	assert.Equal(t, []ir.CellRef{code}, g.Dependents(a2))
	assert.Equal(t, 2, g.Len())

	g.Update(code, []ir.CellRef{a1, a2}, []ir.CellRef{a2, b1})
	assert.Empty(t, g.Dependents(a1))
	assert.Equal(t, []ir.CellRef{code}, g.Dependents(a2))
	assert.Equal(t, []ir.CellRef{code}, g.Dependents(b1))
	assert.Equal(t, []ir.CellRef{a2, b1}, g.Precedents(code))
}

func TestUpdateIgnoresDuplicates(t *testing.T) {
	g := New()
	a1, code := ref("a1"), ref("code")

	g.Update(code, nil, []ir.CellRef{a1, a1, a1})
	assert.Equal(t, 1, g.Len())
}

func TestRemove(t *testing.T) {
	g := New()
	a1, code1, code2 := ref("a1"), ref("c1"), ref("c2")
	g.Update(code1, nil, []ir.CellRef{a1})
	g.Update(code2, nil, []ir.CellRef{a1})

	g.Remove(code1, []ir.CellRef{a1})
	assert.Equal(t, []ir.CellRef{code2}, g.Dependents(a1))
	assert.Empty(t, g.Precedents(code1))
}

func TestDependentsSorted(t *testing.T) {
	g := New()
	a1 := ref("a1")
	g.Update(ref("z"), nil, []ir.CellRef{a1})
	g.Update(ref("m"), nil, []ir.CellRef{a1})
	g.Update(ref("b"), nil, []ir.CellRef{a1})

	assert.Equal(t, []ir.CellRef{ref("b"), ref("m"), ref("z")}, g.Dependents(a1))
}

func TestReaches(t *testing.T) {
	g := New()
	a, b, c := ref("a"), ref("b"), ref("c")
	// b reads a, c reads b.
	g.Update(b, nil, []ir.CellRef{a})
	g.Update(c, nil, []ir.CellRef{b})

	assert.True(t, g.Reaches(a, c))
	assert.False(t, g.Reaches(c, a))
	assert.False(t, g.Reaches(a, a), "no cycle")

	// a reads c closes the loop.
	g.Update(a, nil, []ir.CellRef{c})
	assert.True(t, g.Reaches(a, a))
}
