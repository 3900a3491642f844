package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// mapReader serves reads from a fixed map and records every request.
type mapReader struct {
	sheets map[string]map[ir.Pos]ir.CellValue
	reads  []string
	fail   error
}

func newMapReader(cells map[string]ir.CellValue) *mapReader {
	r := &mapReader{sheets: map[string]map[ir.Pos]ir.CellValue{"": {}}}
	for a1, v := range cells {
		p, err := ir.ParseA1(a1)
		if err != nil {
			panic(err)
		}
		r.sheets[""][p] = v
	}
	return r
}

func (r *mapReader) Read(sheet string, rect ir.Rect) (*ir.Array, error) {
	r.reads = append(r.reads, sheet+"!"+rect.String())
	if r.fail != nil {
		return nil, r.fail
	}
	arr := ir.NewArray(rect.Width(), rect.Height())
	for _, p := range rect.Positions() {
		arr.Set(p.X-rect.Min.X, p.Y-rect.Min.Y, r.sheets[sheet][p])
	}
	return arr, nil
}

func evalOK(t *testing.T, code string, reader CellReader) *ir.Array {
	t.Helper()
	res := NewEvaluator().Evaluate(code, reader)
	require.Nil(t, res.Err, "unexpected error: %v", res.Err)
	require.NotNil(t, res.Output)
	return res.Output
}

func TestEvaluateScalar(t *testing.T) {
	reader := newMapReader(map[string]ir.CellValue{"A1": ir.NumberFromInt(9)})

	out := evalOK(t, "=A1 + 1", reader)
	assert.Equal(t, "10", out.Get(0, 0).Display())
	assert.Equal(t, []string{"!A1:A1"}, reader.reads)
}

func TestEvaluateWithoutEquals(t *testing.T) {
	out := evalOK(t, "1 + 2 * 3", newMapReader(nil))
	assert.Equal(t, "7", out.Get(0, 0).Display())
}

func TestEvaluateRangeFunctions(t *testing.T) {
	reader := newMapReader(map[string]ir.CellValue{
		"A1": ir.NumberFromInt(1),
		"A2": ir.NumberFromInt(2),
		"A3": ir.Text("skip"),
		"B1": ir.NumberFromInt(4),
	})

	tests := map[string]string{
		"SUM(A1:B3)":         "7",
		"AVERAGE(A1:A2)":     "1.5",
		"MIN(A1:B3)":         "1",
		"MAX(A1:B3)":         "4",
		"COUNT(A1:B3)":       "3",
		`CONCAT("x", A3)`:    "xskip",
		"IF(A1 > 0, 10, 20)": "10",
		"SUM(A1, B1, 10)":    "15",
	}
	for code, want := range tests {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, want, evalOK(t, code, reader).Get(0, 0).Display())
		})
	}
}

func TestEvaluateReferencesInsideStringsAreIgnored(t *testing.T) {
	reader := newMapReader(nil)
	out := evalOK(t, `"A1"`, reader)

	assert.Equal(t, "A1", out.Get(0, 0).Display())
	assert.Empty(t, reader.reads)
}

func TestEvaluateSheetQualified(t *testing.T) {
	reader := newMapReader(nil)
	reader.sheets["Data"] = map[ir.Pos]ir.CellValue{{X: 0, Y: 0}: ir.NumberFromInt(5)}

	out := evalOK(t, "Data!A1 * 2", reader)
	assert.Equal(t, "10", out.Get(0, 0).Display())
	assert.Equal(t, []string{"Data!A1:A1"}, reader.reads)
}

func TestEvaluateListResultIsColumn(t *testing.T) {
	out := evalOK(t, "[1, 2, 3]", newMapReader(nil))
	assert.Equal(t, int64(1), out.Width)
	assert.Equal(t, int64(3), out.Height)
	assert.Equal(t, "3", out.Get(0, 2).Display())

	grid := evalOK(t, `[[1, "a"], [true]]`, newMapReader(nil))
	assert.Equal(t, int64(2), grid.Width)
	assert.Equal(t, "a", grid.Get(1, 0).Display())
	assert.Equal(t, "TRUE", grid.Get(0, 1).Display())
	assert.Equal(t, ir.KindBlank, grid.Get(1, 1).Kind())
}

func TestEvaluateBlankReadsAsZero(t *testing.T) {
	out := evalOK(t, "A1 + 1", newMapReader(nil))
	assert.Equal(t, "1", out.Get(0, 0).Display())
}

func TestEvaluateErrors(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		res := NewEvaluator().Evaluate("1 +", newMapReader(nil))
		require.NotNil(t, res.Err)
		assert.Equal(t, ir.ErrorKindFormula, res.Err.Kind)
	})

	t.Run("empty", func(t *testing.T) {
		res := NewEvaluator().Evaluate("=", newMapReader(nil))
		require.NotNil(t, res.Err)
	})

	t.Run("referenced error", func(t *testing.T) {
		reader := newMapReader(map[string]ir.CellValue{
			"A1": ir.Error{Err: ir.RunError{Kind: ir.ErrorKindRuntime, Msg: "bad"}},
		})
		res := NewEvaluator().Evaluate("A1 + 1", reader)
		require.NotNil(t, res.Err)
		assert.Contains(t, res.Err.Msg, "bad")
	})

	t.Run("reader refusal keeps kind", func(t *testing.T) {
		reader := newMapReader(nil)
		reader.fail = ir.RunError{Kind: ir.ErrorKindSelfReference, Msg: "self"}
		res := NewEvaluator().Evaluate("A1", reader)
		require.NotNil(t, res.Err)
		assert.Equal(t, ir.ErrorKindSelfReference, res.Err.Kind)
	})
}

func TestCompileCacheReuse(t *testing.T) {
	e := NewEvaluator().(*exprEvaluator)
	first, err := e.compile("A1 + A1 + B2")
	require.NoError(t, err)
	second, err := e.compile("A1 + A1 + B2")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, first.refs, 2, "duplicate references share one variable")
}

func TestFunctionNamesAreNotReferences(t *testing.T) {
	_, refs, _, err := rewrite("LOG10(A1)")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ir.SinglePos(ir.Pos{}), refs[0].rect)
}
