package grid

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// DefaultSheetName is used for the first sheet of a new grid.
const DefaultSheetName = "Sheet 1"

// Grid is an ordered collection of sheets.
type Grid struct {
	sheets []*Sheet
}

// New returns a grid with no sheets.
func New() *Grid {
	return &Grid{}
}

// NewWithSheet returns a grid holding one empty sheet named DefaultSheetName.
func NewWithSheet() *Grid {
	g := New()
	g.AddSheet(DefaultSheetName)
	return g
}

// AddSheet appends a sheet with a fresh id.
func (g *Grid) AddSheet(name string) *Sheet {
	s, err := g.AddSheetWithID(ir.NewSheetID(), name)
	if err != nil {
		panic(err)
	}
	return s
}

// AddSheetWithID appends a sheet with a known id, e.g. when restoring from a
// log. Ids and names (case-insensitive) must be unique.
func (g *Grid) AddSheetWithID(id ir.SheetID, name string) (*Sheet, error) {
	if g.Sheet(id) != nil {
		return nil, fmt.Errorf("sheet id %s already exists", id)
	}
	if g.SheetByName(name) != nil {
		return nil, fmt.Errorf("sheet name %q already exists", name)
	}
	s := NewSheet(id, name, len(g.sheets))
	g.sheets = append(g.sheets, s)
	return s, nil
}

// Sheet returns the sheet with id, or nil.
func (g *Grid) Sheet(id ir.SheetID) *Sheet {
	for _, s := range g.sheets {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SheetByName returns the sheet with name (case-insensitive), or nil.
func (g *Grid) SheetByName(name string) *Sheet {
	for _, s := range g.sheets {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}

// Sheets returns sheets in display order.
func (g *Grid) Sheets() []*Sheet {
	out := slices.Clone(g.sheets)
	slices.SortStableFunc(out, func(a, b *Sheet) int { return a.Order - b.Order })
	return out
}

// FirstSheet returns the first sheet in display order, or nil.
func (g *Grid) FirstSheet() *Sheet {
	sheets := g.Sheets()
	if len(sheets) == 0 {
		return nil
	}
	return sheets[0]
}

// Resolve maps a cell reference to its sheet and position.
func (g *Grid) Resolve(ref ir.CellRef) (*Sheet, ir.Pos, bool) {
	s := g.Sheet(ref.Sheet)
	if s == nil {
		return nil, ir.Pos{}, false
	}
	pos, ok := s.Pos(ref)
	if !ok {
		return nil, ir.Pos{}, false
	}
	return s, pos, true
}

// CellRef returns a stable reference to a sheet position, allocating ids.
func (g *Grid) CellRef(sp ir.SheetPos) (ir.CellRef, error) {
	s := g.Sheet(sp.Sheet)
	if s == nil {
		return ir.CellRef{}, fmt.Errorf("sheet %s not found", sp.Sheet)
	}
	return s.CellRef(sp.Pos), nil
}
