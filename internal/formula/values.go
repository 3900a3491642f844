package formula

import (
	"fmt"
	"strconv"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// toEnv converts cell values read by a reference to expr values. A single
// cell becomes a scalar and reads Blank as zero; a range becomes a row-major
// []any that keeps blanks as nil so aggregate functions can skip them.
func toEnv(arr *ir.Array, rng bool) (any, error) {
	if !rng {
		return scalar(arr.Get(0, 0))
	}
	out := make([]any, 0, len(arr.Values))
	for _, v := range arr.Values {
		if ir.IsBlank(v) {
			out = append(out, nil)
			continue
		}
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func scalar(v ir.CellValue) (any, error) {
	switch val := ir.OrBlank(v).(type) {
	case ir.Number:
		return val.Float64(), nil
	case ir.Text:
		return string(val), nil
	case ir.Bool:
		return bool(val), nil
	case ir.Error:
		return nil, fmt.Errorf("referenced cell has an error: %s", val.Err.Msg)
	default:
		// Blank and code markers read as zero.
		return 0.0, nil
	}
}

// fromResult converts an expr result to an output array. Lists become a
// column; lists of lists become rows.
func fromResult(out any) (*ir.Array, error) {
	list, ok := out.([]any)
	if !ok {
		v, err := cellValue(out)
		if err != nil {
			return nil, err
		}
		return ir.ArrayFromValue(v), nil
	}
	if len(list) == 0 {
		return ir.ArrayFromValue(ir.Blank{}), nil
	}

	width := int64(1)
	for _, row := range list {
		if r, ok := row.([]any); ok && int64(len(r)) > width {
			width = int64(len(r))
		}
	}
	arr := ir.NewArray(width, int64(len(list)))
	for y, row := range list {
		r, ok := row.([]any)
		if !ok {
			r = []any{row}
		}
		for x, item := range r {
			v, err := cellValue(item)
			if err != nil {
				return nil, err
			}
			arr.Set(int64(x), int64(y), v)
		}
	}
	return arr, nil
}

func cellValue(v any) (ir.CellValue, error) {
	switch x := v.(type) {
	case nil:
		return ir.Blank{}, nil
	case bool:
		return ir.Bool(x), nil
	case string:
		return ir.Text(x), nil
	case int:
		return ir.NumberFromInt(int64(x)), nil
	case int64:
		return ir.NumberFromInt(x), nil
	case float64:
		n, err := ir.NumberFromFloat(x)
		if err != nil {
			return nil, err
		}
		return n, nil
	case []any:
		return nil, fmt.Errorf("nested list is not a cell value")
	}
	return nil, fmt.Errorf("unsupported result type %T", v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
