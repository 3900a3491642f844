package formula

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// functions returns the spreadsheet functions available to formulas. Every
// function flattens range arguments.
func functions() []expr.Option {
	return []expr.Option{
		expr.Function("SUM", func(params ...any) (any, error) {
			nums, err := numbers("SUM", params)
			if err != nil {
				return nil, err
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			return total, nil
		}),
		expr.Function("AVERAGE", func(params ...any) (any, error) {
			nums, err := numbers("AVERAGE", params)
			if err != nil {
				return nil, err
			}
			if len(nums) == 0 {
				return nil, fmt.Errorf("AVERAGE: division by zero")
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			return total / float64(len(nums)), nil
		}),
		expr.Function("MIN", func(params ...any) (any, error) {
			return extreme("MIN", params, func(a, b float64) bool { return a < b })
		}),
		expr.Function("MAX", func(params ...any) (any, error) {
			return extreme("MAX", params, func(a, b float64) bool { return a > b })
		}),
		expr.Function("COUNT", func(params ...any) (any, error) {
			count := 0
			for _, v := range flatten(params) {
				if _, ok := toFloat(v); ok {
					count++
				}
			}
			return count, nil
		}),
		expr.Function("CONCAT", func(params ...any) (any, error) {
			var b strings.Builder
			for _, v := range flatten(params) {
				b.WriteString(display(v))
			}
			return b.String(), nil
		}),
		expr.Function("IF", func(params ...any) (any, error) {
			if len(params) < 2 || len(params) > 3 {
				return nil, fmt.Errorf("IF: expected 2 or 3 arguments, got %d", len(params))
			}
			cond, ok := params[0].(bool)
			if !ok {
				return nil, fmt.Errorf("IF: condition must be a boolean, got %T", params[0])
			}
			if cond {
				return params[1], nil
			}
			if len(params) == 3 {
				return params[2], nil
			}
			return false, nil
		}),
	}
}

func extreme(name string, params []any, better func(a, b float64) bool) (any, error) {
	nums, err := numbers(name, params)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return 0.0, nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if better(n, best) {
			best = n
		}
	}
	return best, nil
}

// numbers collects numeric arguments. Text and blanks inside ranges are
// skipped; a non-numeric scalar argument is an error.
func numbers(name string, params []any) ([]float64, error) {
	var out []float64
	for _, p := range params {
		if list, ok := p.([]any); ok {
			for _, v := range flatten(list) {
				if f, ok := toFloat(v); ok {
					out = append(out, f)
				}
			}
			continue
		}
		f, ok := toFloat(p)
		if !ok {
			return nil, fmt.Errorf("%s: expected a number, got %q", name, display(p))
		}
		out = append(out, f)
	}
	return out, nil
}

func flatten(params []any) []any {
	var out []any
	for _, p := range params {
		if list, ok := p.([]any); ok {
			out = append(out, flatten(list)...)
			continue
		}
		out = append(out, p)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return formatFloat(x)
	}
	return fmt.Sprint(v)
}
