package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnName(t *testing.T) {
	cases := map[int64]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for x, name := range cases {
		assert.Equal(t, name, ColumnName(x))
		idx, err := ColumnIndex(name)
		require.NoError(t, err)
		assert.Equal(t, x, idx)
	}
}

func TestParseA1(t *testing.T) {
	p, err := ParseA1("B3")
	require.NoError(t, err)
	assert.Equal(t, Pos{X: 1, Y: 2}, p)
	assert.Equal(t, "B3", p.A1())

	for _, bad := range []string{"", "3", "B", "B0", "1B", "B-1"} {
		_, err := ParseA1(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRangeNormalizes(t *testing.T) {
	r, err := ParseRange("C4:A1")
	require.NoError(t, err)
	assert.Equal(t, Rect{Min: Pos{0, 0}, Max: Pos{2, 3}}, r)
	assert.Equal(t, int64(3), r.Width())
	assert.Equal(t, int64(4), r.Height())

	single, err := ParseRange("A1")
	require.NoError(t, err)
	assert.Equal(t, SinglePos(Pos{}), single)
}

func TestRectGeometry(t *testing.T) {
	r := RectFromSize(Pos{X: 1, Y: 1}, 2, 3)
	assert.Equal(t, Pos{X: 2, Y: 3}, r.Max)
	assert.True(t, r.Contains(Pos{X: 2, Y: 2}))
	assert.False(t, r.Contains(Pos{X: 3, Y: 2}))

	assert.True(t, r.Intersects(SinglePos(Pos{X: 2, Y: 3})))
	assert.False(t, r.Intersects(SinglePos(Pos{X: 0, Y: 0})))

	assert.Equal(t, []Pos{{1, 1}, {2, 1}, {1, 2}, {2, 2}, {1, 3}, {2, 3}}, r.Positions())
	assert.Equal(t, Rect{Min: Pos{0, 0}, Max: Pos{2, 3}}, r.Union(SinglePos(Pos{})))
}

func TestDeterministicAxisIDs(t *testing.T) {
	sheet := SheetID("sheet-1")

	assert.Equal(t, ColumnIDFor(sheet, 3), ColumnIDFor(sheet, 3))
	assert.NotEqual(t, ColumnIDFor(sheet, 3), ColumnIDFor(sheet, 4))
	assert.NotEqual(t, ColumnIDFor(sheet, 3), ColumnIDFor("sheet-2", 3))
	assert.NotEqual(t, string(ColumnIDFor(sheet, 3)), string(RowIDFor(sheet, 3)))
}

func TestCodeRunDisplayed(t *testing.T) {
	out := ArrayFromValue(NumberFromInt(1))
	ok := &CodeRun{Output: out}
	assert.Same(t, out, ok.Displayed())

	failed := &CodeRun{Err: &RunError{Kind: ErrorKindRuntime}, Previous: out}
	assert.Same(t, out, failed.Displayed())
	assert.False(t, failed.Succeeded())

	var none *CodeRun
	assert.Nil(t, none.Displayed())
}

func TestCodeCellOutputRect(t *testing.T) {
	cell := &CodeCellValue{Language: LanguagePython, Output: &CodeRun{Output: NewArray(2, 3)}}
	assert.Equal(t, RectFromSize(Pos{X: 5, Y: 5}, 2, 3), cell.OutputRect(Pos{X: 5, Y: 5}))

	fresh := &CodeCellValue{Language: LanguagePython}
	assert.Equal(t, SinglePos(Pos{X: 5, Y: 5}), fresh.OutputRect(Pos{X: 5, Y: 5}))
}

func TestCodeCellCloneIsDeep(t *testing.T) {
	cell := &CodeCellValue{
		Language: LanguageFormula,
		Code:     "A1+1",
		Output:   &CodeRun{Output: ArrayFromValue(NumberFromInt(1)), CellsAccessed: []CellRef{{Sheet: "s"}}},
	}
	clone := cell.Clone()
	clone.Output.Output.Set(0, 0, Text("changed"))
	clone.Output.CellsAccessed[0].Sheet = "other"

	assert.Equal(t, "1", cell.Output.Output.Get(0, 0).Display())
	assert.Equal(t, SheetID("s"), cell.Output.CellsAccessed[0].Sheet)
}

func TestArrayJSONShapeCheck(t *testing.T) {
	var arr Array
	err := json.Unmarshal([]byte(`{"w":2,"h":2,"values":[{"type":"blank"}]}`), &arr)
	require.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"w":1,"h":2,"values":[{"type":"text","value":"a"},{"type":"blank"}]}`), &arr))
	assert.Equal(t, "a", arr.Get(0, 0).Display())
	assert.Equal(t, KindBlank, arr.Get(0, 1).Kind())
}
