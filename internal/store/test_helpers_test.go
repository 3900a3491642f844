package store

import (
	"path/filepath"
	"testing"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTransaction creates a committed pair writing value to the first
// cell of sheet "sheet-1".
func createTestTransaction(t *testing.T, id, value string) (operation.Transaction, operation.Transaction) {
	t.Helper()
	region := operation.Region{
		Sheet:   "sheet-1",
		Columns: []ir.ColumnID{ir.ColumnIDFor("sheet-1", 0)},
		Rows:    []ir.RowID{ir.RowIDFor("sheet-1", 0)},
	}
	set, err := operation.NewSetCellValues(region, ir.ArrayFromValue(ir.ParseCellValue(value)))
	if err != nil {
		t.Fatalf("NewSetCellValues() failed: %v", err)
	}
	clear, err := operation.NewSetCellValues(region, ir.NewArray(1, 1))
	if err != nil {
		t.Fatalf("NewSetCellValues() failed: %v", err)
	}
	forward := operation.Transaction{ID: id, Type: operation.TypeUser, Operations: []operation.Operation{set}}
	reverse := operation.Transaction{ID: id, Type: operation.TypeUser, Operations: []operation.Operation{clear}}
	return forward, reverse
}
