package engine

import (
	"cmp"
	"slices"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// TransactionSummary tells the caller what a transaction step changed.
//
// Summaries are deltas: a transaction that suspends returns the changes made
// so far, and the call that resumes it returns only what changed after.
type TransactionSummary struct {
	// TransactionID is set while the transaction waits for the host.
	TransactionID string `json:"transaction_id,omitempty"`

	SheetBoundsChanged   []ir.SheetID  `json:"sheet_bounds_changed,omitempty"`
	CellsChanged         []ir.SheetPos `json:"cells_changed,omitempty"`
	FormatSheetsModified []ir.SheetID  `json:"format_sheets_modified,omitempty"`
	BorderSheetsModified []ir.SheetID  `json:"border_sheets_modified,omitempty"`
	CodeSheetsModified   []ir.SheetID  `json:"code_sheets_modified,omitempty"`
	Complete             bool          `json:"complete"`
	Cursor               string        `json:"cursor,omitempty"`

	// Save is set once the transaction committed and should be persisted.
	Save bool `json:"save"`
}

// Changed reports whether pos on sheet is listed in CellsChanged.
func (s TransactionSummary) Changed(sheet ir.SheetID, pos ir.Pos) bool {
	return slices.Contains(s.CellsChanged, ir.SheetPos{Sheet: sheet, Pos: pos})
}

type sheetSet map[ir.SheetID]struct{}

func (s sheetSet) add(id ir.SheetID) { s[id] = struct{}{} }

func (s sheetSet) sorted() []ir.SheetID {
	if len(s) == 0 {
		return nil
	}
	out := make([]ir.SheetID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// summaryBuilder accumulates changes between two returned summaries.
type summaryBuilder struct {
	bounds  sheetSet
	cells   map[ir.SheetPos]struct{}
	formats sheetSet
	borders sheetSet
	code    sheetSet
}

func newSummaryBuilder() *summaryBuilder {
	return &summaryBuilder{
		bounds:  make(sheetSet),
		cells:   make(map[ir.SheetPos]struct{}),
		formats: make(sheetSet),
		borders: make(sheetSet),
		code:    make(sheetSet),
	}
}

func (b *summaryBuilder) cellChanged(sheet ir.SheetID, pos ir.Pos) {
	b.cells[ir.SheetPos{Sheet: sheet, Pos: pos}] = struct{}{}
}

// take returns the accumulated changes and resets the builder.
func (b *summaryBuilder) take() TransactionSummary {
	cells := make([]ir.SheetPos, 0, len(b.cells))
	for sp := range b.cells {
		cells = append(cells, sp)
	}
	slices.SortFunc(cells, func(a, c ir.SheetPos) int {
		return cmp.Or(
			cmp.Compare(a.Sheet, c.Sheet),
			cmp.Compare(a.Y, c.Y),
			cmp.Compare(a.X, c.X),
		)
	})
	if len(cells) == 0 {
		cells = nil
	}
	s := TransactionSummary{
		SheetBoundsChanged:   b.bounds.sorted(),
		CellsChanged:         cells,
		FormatSheetsModified: b.formats.sorted(),
		BorderSheetsModified: b.borders.sorted(),
		CodeSheetsModified:   b.code.sorted(),
	}
	*b = *newSummaryBuilder()
	return s
}
