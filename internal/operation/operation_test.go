package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

func testRegion(cols, rows int) Region {
	r := Region{Sheet: "sheet"}
	for x := 0; x < cols; x++ {
		r.Columns = append(r.Columns, ir.ColumnIDFor("sheet", int64(x)))
	}
	for y := 0; y < rows; y++ {
		r.Rows = append(r.Rows, ir.RowIDFor("sheet", int64(y)))
	}
	return r
}

func TestRegionRefsRowMajor(t *testing.T) {
	r := testRegion(2, 2)
	refs := r.Refs()

	require.Len(t, refs, 4)
	assert.Equal(t, r.Columns[0], refs[0].Column)
	assert.Equal(t, r.Columns[1], refs[1].Column)
	assert.Equal(t, r.Rows[0], refs[1].Row)
	assert.Equal(t, r.Rows[1], refs[2].Row)
}

func TestNewSetCellValuesRejectsShapeMismatch(t *testing.T) {
	_, err := NewSetCellValues(testRegion(2, 1), ir.NewArray(1, 1))
	require.Error(t, err)

	_, err = NewSetCellValues(testRegion(1, 1), nil)
	require.Error(t, err)

	op, err := NewSetCellValues(testRegion(2, 1), ir.NewArray(2, 1))
	require.NoError(t, err)
	assert.Equal(t, ir.SheetID("sheet"), op.SheetID())
}

func TestSetCellValuesRejectsCodeMarker(t *testing.T) {
	values := ir.ArrayFromValue(ir.Code{Language: ir.LanguagePython})
	_, err := NewSetCellValues(testRegion(1, 1), values)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set_cell_code")
}

func TestCells(t *testing.T) {
	r := testRegion(2, 1)
	values, err := NewSetCellValues(r, ir.NewArray(2, 1))
	require.NoError(t, err)
	assert.Equal(t, r.Refs(), Cells(values))

	ref := ir.CellRef{Sheet: "sheet", Column: "c", Row: "r"}
	assert.Equal(t, []ir.CellRef{ref}, Cells(SetCellCode{Cell: ref}))
}

func TestNewSetCellFormatsValidation(t *testing.T) {
	bold := "true"
	_, err := NewSetCellFormats(testRegion(2, 2), ir.AttrBold, ir.Repeat(&bold, 3))
	require.Error(t, err)

	_, err = NewSetCellFormats(testRegion(2, 2), "sparkle", ir.Repeat(&bold, 4))
	require.Error(t, err)

	_, err = NewSetCellFormats(testRegion(2, 2), ir.AttrBold, ir.Repeat(&bold, 4))
	require.NoError(t, err)
}

func TestNewSetBordersValidation(t *testing.T) {
	_, err := NewSetBorders(testRegion(1, 1), nil)
	require.Error(t, err)

	bad := ir.CellBorders{Top: &ir.BorderStyle{Line: "wavy"}}
	_, err = NewSetBorders(testRegion(1, 1), []ir.CellBorders{bad})
	require.Error(t, err)
}

func TestReverse(t *testing.T) {
	a := SetCellCode{Cell: ir.CellRef{Sheet: "a"}}
	b := SetCellCode{Cell: ir.CellRef{Sheet: "b"}}
	c := SetCellCode{Cell: ir.CellRef{Sheet: "c"}}

	assert.Equal(t, []Operation{c, b, a}, Reverse([]Operation{a, b, c}))
	assert.Empty(t, Reverse(nil))
}

func TestTransactionEncodeDecode(t *testing.T) {
	values := ir.NewArray(2, 1)
	values.Set(0, 0, ir.NumberFromInt(9))
	values.Set(1, 0, ir.Text("hi"))
	setValues, err := NewSetCellValues(testRegion(2, 1), values)
	require.NoError(t, err)

	bold := "true"
	slot := int64(4)
	tx := Transaction{
		ID:     "tx-1",
		Type:   TypeUser,
		Cursor: "A1",
		Operations: []Operation{
			setValues,
			SetCellCode{
				Cell: ir.CellRef{Sheet: "sheet", Column: "c", Row: "r"},
				Code: &ir.CodeCellValue{Language: ir.LanguagePython, Code: "1 + 1", Output: &ir.CodeRun{
					Output:        ir.ArrayFromValue(ir.NumberFromInt(2)),
					CellsAccessed: []ir.CellRef{{Sheet: "sheet", Column: "c0", Row: "r0"}},
				}},
				Slot: &slot,
			},
			SetCellCode{Cell: ir.CellRef{Sheet: "sheet", Column: "c", Row: "r"}},
			SetCellFormats{Region: testRegion(1, 1), Attr: ir.AttrBold, Values: ir.Repeat(&bold, 1)},
		},
		Axes: []AxisBinding{{Sheet: "sheet", Columns: []ColumnBinding{{ID: "c", Index: 3}}}},
	}

	data, err := Encode(tx)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, tx.Type, got.Type)
	assert.Equal(t, tx.Cursor, got.Cursor)
	assert.Equal(t, tx.Axes, got.Axes)
	require.Len(t, got.Operations, 4)

	gotValues := got.Operations[0].(SetCellValues)
	assert.True(t, values.Equal(gotValues.Values))

	gotCode := got.Operations[1].(SetCellCode)
	require.NotNil(t, gotCode.Code)
	assert.Equal(t, "1 + 1", gotCode.Code.Code)
	assert.Equal(t, "2", gotCode.Code.Output.Output.Get(0, 0).Display())
	assert.Len(t, gotCode.Code.Output.CellsAccessed, 1)
	require.NotNil(t, gotCode.Slot)
	assert.Equal(t, int64(4), *gotCode.Slot)

	assert.Nil(t, got.Operations[2].(SetCellCode).Code)
	assert.Nil(t, got.Operations[2].(SetCellCode).Slot)
	assert.Equal(t, ir.AttrBold, got.Operations[3].(SetCellFormats).Attr)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"bad version":    `{"version":"0","id":"x","type":"user","operations":[]}`,
		"bad type":       `{"version":"1","id":"x","type":"robot","operations":[]}`,
		"unknown op":     `{"version":"1","id":"x","type":"user","operations":[{"type":"explode","op":{}}]}`,
		"shape mismatch": `{"version":"1","id":"x","type":"user","operations":[{"type":"set_cell_values","op":{"region":{"sheet":"s","columns":["a"],"rows":["b"]},"values":{"w":1,"h":1,"values":[]}}}]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestDigestStable(t *testing.T) {
	ops := []Operation{SetCellCode{Cell: ir.CellRef{Sheet: "s", Column: "c", Row: "r"}}}

	d1, err := Digest(ops)
	require.NoError(t, err)
	d2, err := Digest(ops)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	other, err := Digest([]Operation{SetCellCode{Cell: ir.CellRef{Sheet: "s", Column: "c", Row: "x"}}})
	require.NoError(t, err)
	assert.NotEqual(t, d1, other)
}

func TestEncodeOperationsRoundTrip(t *testing.T) {
	ops := []Operation{SetBorders{Region: testRegion(1, 1), Borders: []ir.CellBorders{{}}}}
	data, err := EncodeOperations(ops)
	require.NoError(t, err)

	got, err := DecodeOperations(data)
	require.NoError(t, err)
	assert.Equal(t, ops, got)
}
