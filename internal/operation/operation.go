package operation

import (
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// Kind tags the operation variants on the wire.
type Kind string

const (
	KindSetCellValues  Kind = "set_cell_values"
	KindSetCellCode    Kind = "set_cell_code"
	KindSetCellFormats Kind = "set_cell_formats"
	KindSetBorders     Kind = "set_borders"
)

// Region is a block of cells on one sheet: every combination of the listed
// columns and rows, in row-major order.
type Region struct {
	Sheet   ir.SheetID    `json:"sheet"`
	Columns []ir.ColumnID `json:"columns"`
	Rows    []ir.RowID    `json:"rows"`
}

// Len returns the number of cells in the region.
func (r Region) Len() int {
	return len(r.Columns) * len(r.Rows)
}

// Refs returns a reference to every cell in row-major order.
func (r Region) Refs() []ir.CellRef {
	out := make([]ir.CellRef, 0, r.Len())
	for _, row := range r.Rows {
		for _, col := range r.Columns {
			out = append(out, ir.CellRef{Sheet: r.Sheet, Column: col, Row: row})
		}
	}
	return out
}

// Operation is one invertible grid edit.
//
// Implementations: SetCellValues, SetCellCode, SetCellFormats, SetBorders.
type Operation interface {
	operation() // sealed marker
	Kind() Kind
	// SheetID is the sheet the operation touches.
	SheetID() ir.SheetID
	// Validate checks payload shape against the addressed cells.
	Validate() error
}

// SetCellValues writes one literal per region cell.
type SetCellValues struct {
	Region Region    `json:"region"`
	Values *ir.Array `json:"values"`
}

func (SetCellValues) operation()            {}
func (SetCellValues) Kind() Kind            { return KindSetCellValues }
func (o SetCellValues) SheetID() ir.SheetID { return o.Region.Sheet }

func (o SetCellValues) Validate() error {
	if o.Values == nil {
		return fmt.Errorf("%s: missing values", o.Kind())
	}
	if o.Values.Width != int64(len(o.Region.Columns)) || o.Values.Height != int64(len(o.Region.Rows)) {
		return fmt.Errorf("%s: %dx%d values for %dx%d region", o.Kind(),
			o.Values.Width, o.Values.Height, len(o.Region.Columns), len(o.Region.Rows))
	}
	if len(o.Values.Values) != o.Region.Len() {
		return fmt.Errorf("%s: %d values for %d cells", o.Kind(), len(o.Values.Values), o.Region.Len())
	}
	for i, v := range o.Values.Values {
		if v != nil && v.Kind() == ir.KindCode {
			return fmt.Errorf("%s[%d]: code markers are written with %s", o.Kind(), i, KindSetCellCode)
		}
	}
	return nil
}

// NewSetCellValues validates and builds a SetCellValues.
func NewSetCellValues(region Region, values *ir.Array) (SetCellValues, error) {
	op := SetCellValues{Region: region, Values: values}
	if err := op.Validate(); err != nil {
		return SetCellValues{}, err
	}
	return op, nil
}

// SetCellCode replaces the code cell anchored at Cell. A nil Code removes it.
//
// Slot is set on the inverse of a removal: re-adding the anchor puts it back
// at the registration slot it held. A new anchor without Slot is registered
// after every existing one.
type SetCellCode struct {
	Cell ir.CellRef        `json:"cell"`
	Code *ir.CodeCellValue `json:"code"`
	Slot *int64            `json:"slot,omitempty"`
}

func (SetCellCode) operation()            {}
func (SetCellCode) Kind() Kind            { return KindSetCellCode }
func (o SetCellCode) SheetID() ir.SheetID { return o.Cell.Sheet }

func (o SetCellCode) Validate() error {
	if o.Code != nil && !o.Code.Language.Valid() {
		return fmt.Errorf("%s: unknown language %q", o.Kind(), o.Code.Language)
	}
	return nil
}

// SetCellFormats sets one formatting attribute across the region.
type SetCellFormats struct {
	Region Region        `json:"region"`
	Attr   ir.FormatAttr `json:"attr"`
	Values ir.RunLength  `json:"values"`
}

func (SetCellFormats) operation()            {}
func (SetCellFormats) Kind() Kind            { return KindSetCellFormats }
func (o SetCellFormats) SheetID() ir.SheetID { return o.Region.Sheet }

func (o SetCellFormats) Validate() error {
	if !o.Attr.Valid() {
		return fmt.Errorf("%s: unknown attribute %q", o.Kind(), o.Attr)
	}
	if o.Values.Len() != o.Region.Len() {
		return fmt.Errorf("%s: %d values for %d cells", o.Kind(), o.Values.Len(), o.Region.Len())
	}
	return nil
}

// NewSetCellFormats validates and builds a SetCellFormats.
func NewSetCellFormats(region Region, attr ir.FormatAttr, values ir.RunLength) (SetCellFormats, error) {
	op := SetCellFormats{Region: region, Attr: attr, Values: values}
	if err := op.Validate(); err != nil {
		return SetCellFormats{}, err
	}
	return op, nil
}

// SetBorders replaces the borders of every region cell.
type SetBorders struct {
	Region  Region           `json:"region"`
	Borders []ir.CellBorders `json:"borders"`
}

func (SetBorders) operation()            {}
func (SetBorders) Kind() Kind            { return KindSetBorders }
func (o SetBorders) SheetID() ir.SheetID { return o.Region.Sheet }

func (o SetBorders) Validate() error {
	if len(o.Borders) != o.Region.Len() {
		return fmt.Errorf("%s: %d borders for %d cells", o.Kind(), len(o.Borders), o.Region.Len())
	}
	for i, b := range o.Borders {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", o.Kind(), i, err)
		}
	}
	return nil
}

// NewSetBorders validates and builds a SetBorders.
func NewSetBorders(region Region, borders []ir.CellBorders) (SetBorders, error) {
	op := SetBorders{Region: region, Borders: borders}
	if err := op.Validate(); err != nil {
		return SetBorders{}, err
	}
	return op, nil
}

// Cells returns every cell op addresses, in payload order.
func Cells(op Operation) []ir.CellRef {
	switch o := op.(type) {
	case SetCellValues:
		return o.Region.Refs()
	case SetCellCode:
		return []ir.CellRef{o.Cell}
	case SetCellFormats:
		return o.Region.Refs()
	case SetBorders:
		return o.Region.Refs()
	}
	return nil
}

// Reverse returns ops in reverse order. Undo entries store inverses this way
// so that replaying them restores state last-change-first.
func Reverse(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[len(ops)-1-i] = op
	}
	return out
}
