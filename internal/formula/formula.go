// Package formula evaluates Formula code cells in-process.
//
// Formulas are expr-lang expressions with spreadsheet references. A1-style
// references ("B3"), ranges ("A1:B4"), and sheet-qualified references
// ("Data!A1") are rewritten to variables and resolved through a CellReader
// before the compiled program runs. A leading "=" is optional.
package formula

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// CellReader resolves the cells a formula reads. An empty sheet name means
// the sheet of the cell being evaluated. Implementations record accesses and
// may refuse a read by returning an ir.RunError.
type CellReader interface {
	Read(sheetName string, rect ir.Rect) (*ir.Array, error)
}

// Result is the outcome of one evaluation. Exactly one field is set.
type Result struct {
	Output *ir.Array
	Err    *ir.RunError
}

// Evaluator evaluates formula source.
type Evaluator interface {
	Evaluate(code string, reader CellReader) Result
}

// reference is one distinct reference found in a formula.
type reference struct {
	sheet string
	rect  ir.Rect
	rng   bool
}

// compiled is a cached program plus the references it reads.
type compiled struct {
	program *vm.Program
	refs    []reference
	vars    []string
}

type exprEvaluator struct {
	cache sync.Map // source string -> *compiled
}

// NewEvaluator returns an Evaluator backed by expr-lang/expr. Compiled
// programs are cached by source text.
func NewEvaluator() Evaluator {
	return &exprEvaluator{}
}

func (e *exprEvaluator) Evaluate(code string, reader CellReader) Result {
	c, err := e.compile(code)
	if err != nil {
		return failure(ir.ErrorKindFormula, err.Error())
	}

	env := make(map[string]any, len(c.refs))
	for i, ref := range c.refs {
		arr, err := reader.Read(ref.sheet, ref.rect)
		if err != nil {
			var runErr ir.RunError
			if errors.As(err, &runErr) {
				return Result{Err: &runErr}
			}
			return failure(ir.ErrorKindFormula, err.Error())
		}
		v, err := toEnv(arr, ref.rng)
		if err != nil {
			return failure(ir.ErrorKindFormula, err.Error())
		}
		env[c.vars[i]] = v
	}

	out, err := expr.Run(c.program, env)
	if err != nil {
		return failure(ir.ErrorKindFormula, err.Error())
	}
	arr, err := fromResult(out)
	if err != nil {
		return failure(ir.ErrorKindFormula, err.Error())
	}
	return Result{Output: arr}
}

func (e *exprEvaluator) compile(code string) (*compiled, error) {
	if cached, ok := e.cache.Load(code); ok {
		return cached.(*compiled), nil
	}
	source, refs, vars, err := rewrite(code)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("empty formula")
	}
	options := append([]expr.Option{
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	}, functions()...)
	program, err := expr.Compile(source, options...)
	if err != nil {
		return nil, fmt.Errorf("compile formula: %w", err)
	}
	c := &compiled{program: program, refs: refs, vars: vars}
	e.cache.Store(code, c)
	return c, nil
}

// refPattern matches an optionally sheet-qualified cell or range reference.
var refPattern = regexp.MustCompile(`\b(?:([A-Za-z_][A-Za-z0-9_]*)!)?([A-Z]{1,3}[0-9]+)(?::([A-Z]{1,3}[0-9]+))?\b`)

// rewrite replaces references outside string literals with variables.
func rewrite(code string) (string, []reference, []string, error) {
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(code, "=")

	var (
		out   strings.Builder
		refs  []reference
		vars  []string
		index = make(map[string]string)
	)
	for _, seg := range splitLiterals(code) {
		if seg.literal {
			out.WriteString(seg.text)
			continue
		}
		text := seg.text
		last := 0
		for _, m := range refPattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			// A name followed by "(" is a function call, not a reference.
			if end < len(text) && text[end] == '(' {
				continue
			}
			sheet := ""
			if m[2] >= 0 {
				sheet = text[m[2]:m[3]]
			}
			from, err := ir.ParseA1(text[m[4]:m[5]])
			if err != nil {
				return "", nil, nil, err
			}
			rect := ir.SinglePos(from)
			rng := m[6] >= 0
			if rng {
				if rect, err = ir.ParseRange(text[m[4]:m[7]]); err != nil {
					return "", nil, nil, err
				}
			}
			key := sheet + "!" + rect.String()
			if rng {
				key += ":range"
			}
			name, ok := index[key]
			if !ok {
				name = fmt.Sprintf("__ref%d", len(refs))
				index[key] = name
				refs = append(refs, reference{sheet: sheet, rect: rect, rng: rng})
				vars = append(vars, name)
			}
			out.WriteString(text[last:start])
			out.WriteString(name)
			last = end
		}
		out.WriteString(text[last:])
	}
	return out.String(), refs, vars, nil
}

type segment struct {
	text    string
	literal bool
}

// splitLiterals separates quoted string literals from code.
func splitLiterals(code string) []segment {
	var segs []segment
	start := 0
	for i := 0; i < len(code); i++ {
		q := code[i]
		if q != '"' && q != '\'' && q != '`' {
			continue
		}
		if i > start {
			segs = append(segs, segment{text: code[start:i]})
		}
		j := i + 1
		for j < len(code) && code[j] != q {
			if code[j] == '\\' && q != '`' {
				j++
			}
			j++
		}
		if j >= len(code) {
			j = len(code) - 1
		}
		segs = append(segs, segment{text: code[i : j+1], literal: true})
		start = j + 1
		i = j
	}
	if start < len(code) {
		segs = append(segs, segment{text: code[start:]})
	}
	return segs
}

func failure(kind ir.ErrorKind, msg string) Result {
	return Result{Err: &ir.RunError{Kind: kind, Msg: msg}}
}
