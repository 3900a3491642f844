package grid

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// Sheet is one tab of the grid.
type Sheet struct {
	ID    ir.SheetID
	Name  string
	Order int

	columns axis[ir.ColumnID]
	rows    axis[ir.RowID]

	values   map[ir.Pos]ir.CellValue
	code     map[ir.Pos]*ir.CodeCellValue
	slots    map[ir.Pos]int64 // live anchors only
	order    []ir.Pos         // live anchors sorted by slot
	nextSlot int64

	formats map[ir.Pos]map[ir.FormatAttr]string
	borders map[ir.Pos]ir.CellBorders

	dataBounds   Bounds
	formatBounds Bounds
}

// NewSheet creates an empty sheet.
func NewSheet(id ir.SheetID, name string, order int) *Sheet {
	return &Sheet{
		ID:      id,
		Name:    name,
		Order:   order,
		columns: newAxis[ir.ColumnID](),
		rows:    newAxis[ir.RowID](),
		values:  make(map[ir.Pos]ir.CellValue),
		code:    make(map[ir.Pos]*ir.CodeCellValue),
		slots:   make(map[ir.Pos]int64),
		formats: make(map[ir.Pos]map[ir.FormatAttr]string),
		borders: make(map[ir.Pos]ir.CellBorders),
	}
}

// ColumnID returns the id of column x if one was allocated.
func (s *Sheet) ColumnID(x int64) (ir.ColumnID, bool) { return s.columns.id(x) }

// RowID returns the id of row y if one was allocated.
func (s *Sheet) RowID(y int64) (ir.RowID, bool) { return s.rows.id(y) }

// ColumnIndex resolves a column id.
func (s *Sheet) ColumnIndex(id ir.ColumnID) (int64, bool) { return s.columns.index(id) }

// RowIndex resolves a row id.
func (s *Sheet) RowIndex(id ir.RowID) (int64, bool) { return s.rows.index(id) }

// GetOrCreateColumn returns the id of column x, allocating it on first use.
func (s *Sheet) GetOrCreateColumn(x int64) ir.ColumnID {
	if id, ok := s.columns.id(x); ok {
		return id
	}
	id := ir.ColumnIDFor(s.ID, x)
	if err := s.columns.register(id, x); err != nil {
		panic(fmt.Sprintf("sheet %s: %v", s.ID, err))
	}
	return id
}

// GetOrCreateRow returns the id of row y, allocating it on first use.
func (s *Sheet) GetOrCreateRow(y int64) ir.RowID {
	if id, ok := s.rows.id(y); ok {
		return id
	}
	id := ir.RowIDFor(s.ID, y)
	if err := s.rows.register(id, y); err != nil {
		panic(fmt.Sprintf("sheet %s: %v", s.ID, err))
	}
	return id
}

// RegisterColumn binds an id received from a peer or a log to index x.
func (s *Sheet) RegisterColumn(id ir.ColumnID, x int64) error {
	if err := s.columns.register(id, x); err != nil {
		return fmt.Errorf("sheet %s column: %w", s.ID, err)
	}
	return nil
}

// RegisterRow binds an id received from a peer or a log to index y.
func (s *Sheet) RegisterRow(id ir.RowID, y int64) error {
	if err := s.rows.register(id, y); err != nil {
		return fmt.Errorf("sheet %s row: %w", s.ID, err)
	}
	return nil
}

// ColumnIDs returns every allocated column as index -> id.
func (s *Sheet) ColumnIDs() map[int64]ir.ColumnID { return s.columns.entries() }

// RowIDs returns every allocated row as index -> id.
func (s *Sheet) RowIDs() map[int64]ir.RowID { return s.rows.entries() }

// CellRef returns a stable reference to pos, allocating ids as needed.
func (s *Sheet) CellRef(pos ir.Pos) ir.CellRef {
	return ir.CellRef{Sheet: s.ID, Column: s.GetOrCreateColumn(pos.X), Row: s.GetOrCreateRow(pos.Y)}
}

// Pos resolves a reference on this sheet.
func (s *Sheet) Pos(ref ir.CellRef) (ir.Pos, bool) {
	if ref.Sheet != s.ID {
		return ir.Pos{}, false
	}
	x, ok := s.columns.index(ref.Column)
	if !ok {
		return ir.Pos{}, false
	}
	y, ok := s.rows.index(ref.Row)
	if !ok {
		return ir.Pos{}, false
	}
	return ir.Pos{X: x, Y: y}, true
}

// Value returns the literal at pos. A code anchor without a literal reports
// the Code marker; everything else is Blank.
func (s *Sheet) Value(pos ir.Pos) ir.CellValue {
	if v, ok := s.values[pos]; ok {
		return v
	}
	if c, ok := s.code[pos]; ok {
		return ir.Code{Language: c.Language}
	}
	return ir.Blank{}
}

// Literal returns the stored literal at pos, ignoring code cells.
func (s *Sheet) Literal(pos ir.Pos) ir.CellValue {
	return ir.OrBlank(s.values[pos])
}

// SetValue stores v at pos and returns the previous literal. Blank clears.
func (s *Sheet) SetValue(pos ir.Pos, v ir.CellValue) ir.CellValue {
	old := s.Literal(pos)
	if ir.IsBlank(v) {
		delete(s.values, pos)
	} else {
		s.values[pos] = v
	}
	return old
}

// CodeCell returns the code cell anchored at pos, or nil. The returned value
// is owned by the sheet and must not be mutated.
func (s *Sheet) CodeCell(pos ir.Pos) *ir.CodeCellValue {
	return s.code[pos]
}

// SetCodeCell stores cell at pos and returns the previous one. A nil cell
// removes the anchor and frees its slot. Replacing a cell keeps its slot; a
// new anchor is registered after every existing one.
func (s *Sheet) SetCodeCell(pos ir.Pos, cell *ir.CodeCellValue) *ir.CodeCellValue {
	old := s.code[pos]
	if cell == nil {
		s.unregister(pos)
		delete(s.code, pos)
		return old
	}
	if _, ok := s.slots[pos]; !ok {
		s.register(pos, s.nextSlot)
	}
	s.code[pos] = cell
	return old
}

// RestoreCodeCell re-adds a removed anchor at the slot it held before. An
// anchor that is still registered keeps its current slot.
func (s *Sheet) RestoreCodeCell(pos ir.Pos, cell *ir.CodeCellValue, slot int64) *ir.CodeCellValue {
	if cell == nil {
		return s.SetCodeCell(pos, nil)
	}
	old := s.code[pos]
	if _, ok := s.slots[pos]; !ok {
		s.register(pos, slot)
	}
	s.code[pos] = cell
	return old
}

// Slot returns the registration slot of the anchor at pos.
func (s *Sheet) Slot(pos ir.Pos) (int64, bool) {
	slot, ok := s.slots[pos]
	return slot, ok
}

func (s *Sheet) register(pos ir.Pos, slot int64) {
	s.slots[pos] = slot
	i, _ := slices.BinarySearchFunc(s.order, slot, func(p ir.Pos, slot int64) int {
		return cmp.Compare(s.slots[p], slot)
	})
	s.order = slices.Insert(s.order, i, pos)
	if slot >= s.nextSlot {
		s.nextSlot = slot + 1
	}
}

func (s *Sheet) unregister(pos ir.Pos) {
	if _, ok := s.slots[pos]; !ok {
		return
	}
	delete(s.slots, pos)
	if i := slices.Index(s.order, pos); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// SetSpill updates the derived spill flag of the cell at pos in place.
func (s *Sheet) SetSpill(pos ir.Pos, spilled bool) {
	c := s.code[pos]
	if c == nil || c.Output == nil || c.Output.SpillError == spilled {
		return
	}
	updated := c.Clone()
	updated.Output.SpillError = spilled
	s.code[pos] = updated
}

// CodeEntry is a code cell with its anchor.
type CodeEntry struct {
	Pos  ir.Pos
	Cell *ir.CodeCellValue
}

// CodeCells returns every code cell in registration order.
func (s *Sheet) CodeCells() []CodeEntry {
	out := make([]CodeEntry, len(s.order))
	for i, pos := range s.order {
		out[i] = CodeEntry{Pos: pos, Cell: s.code[pos]}
	}
	return out
}

// HasContent reports whether the sheet holds any value or code cell.
func (s *Sheet) HasContent() bool {
	return len(s.values) > 0 || len(s.code) > 0
}

// Format returns the formatting attributes at pos.
func (s *Sheet) Format(pos ir.Pos) map[ir.FormatAttr]string {
	out := make(map[ir.FormatAttr]string, len(s.formats[pos]))
	for k, v := range s.formats[pos] {
		out[k] = v
	}
	return out
}

// FormatAttr returns one attribute at pos, nil when unset.
func (s *Sheet) FormatAttr(pos ir.Pos, attr ir.FormatAttr) *string {
	if v, ok := s.formats[pos][attr]; ok {
		return &v
	}
	return nil
}

// SetFormatAttr sets or clears (nil) one attribute and returns the previous value.
func (s *Sheet) SetFormatAttr(pos ir.Pos, attr ir.FormatAttr, value *string) *string {
	old := s.FormatAttr(pos, attr)
	if value == nil {
		if f, ok := s.formats[pos]; ok {
			delete(f, attr)
			if len(f) == 0 {
				delete(s.formats, pos)
			}
		}
		return old
	}
	f, ok := s.formats[pos]
	if !ok {
		f = make(map[ir.FormatAttr]string)
		s.formats[pos] = f
	}
	f[attr] = *value
	return old
}

// Borders returns the borders at pos.
func (s *Sheet) Borders(pos ir.Pos) ir.CellBorders {
	return s.borders[pos]
}

// SetBorders replaces the borders at pos and returns the previous ones.
func (s *Sheet) SetBorders(pos ir.Pos, b ir.CellBorders) ir.CellBorders {
	old := s.borders[pos]
	if b.IsEmpty() {
		delete(s.borders, pos)
	} else {
		s.borders[pos] = b
	}
	return old
}

// RecalculateBounds recomputes cached bounds and reports whether they changed.
func (s *Sheet) RecalculateBounds() bool {
	data := EmptyBounds
	for pos := range s.values {
		data = data.Add(ir.SinglePos(pos))
	}
	for pos, cell := range s.code {
		if cell.Spilled() {
			data = data.Add(ir.SinglePos(pos))
			continue
		}
		data = data.Add(cell.OutputRect(pos))
	}
	format := EmptyBounds
	for pos := range s.formats {
		format = format.Add(ir.SinglePos(pos))
	}
	for pos := range s.borders {
		format = format.Add(ir.SinglePos(pos))
	}
	changed := data != s.dataBounds || format != s.formatBounds
	s.dataBounds, s.formatBounds = data, format
	return changed
}

// Bounds returns the cached bounds of the sheet. With ignoreFormatting only
// data is considered.
func (s *Sheet) Bounds(ignoreFormatting bool) Bounds {
	if ignoreFormatting {
		return s.dataBounds
	}
	return s.dataBounds.Merge(s.formatBounds)
}
