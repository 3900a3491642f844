package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// SheetID identifies a sheet for its whole lifetime.
type SheetID string

// ColumnID is a stable column identity within a sheet.
type ColumnID string

// RowID is a stable row identity within a sheet.
type RowID string

// NewSheetID allocates a random sheet id.
func NewSheetID() SheetID {
	return SheetID(uuid.NewString())
}

// ColumnIDFor derives the id a sheet assigns to the column first seen at x.
//
// Derivation is deterministic (UUIDv5 over the sheet id and index) so that
// replicas and replays allocate the same id for the same column without
// exchanging an allocation table.
func ColumnIDFor(sheet SheetID, x int64) ColumnID {
	return ColumnID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/column/%d", sheet, x))).String())
}

// RowIDFor derives the id a sheet assigns to the row first seen at y.
func RowIDFor(sheet SheetID, y int64) RowID {
	return RowID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/row/%d", sheet, y))).String())
}

// CellRef references a cell independently of its current coordinates.
type CellRef struct {
	Sheet  SheetID  `json:"sheet"`
	Column ColumnID `json:"column"`
	Row    RowID    `json:"row"`
}

// String returns a compact human-readable form for logs.
func (r CellRef) String() string {
	return fmt.Sprintf("%s!%s:%s", short(string(r.Sheet)), short(string(r.Column)), short(string(r.Row)))
}

// Compare orders refs by sheet, column, then row.
func (r CellRef) Compare(o CellRef) int {
	switch {
	case r.Sheet != o.Sheet:
		return cmpString(string(r.Sheet), string(o.Sheet))
	case r.Column != o.Column:
		return cmpString(string(r.Column), string(o.Column))
	default:
		return cmpString(string(r.Row), string(o.Row))
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
