package ir

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// ValueKind discriminates the CellValue variants.
type ValueKind string

const (
	KindBlank  ValueKind = "blank"
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindBool   ValueKind = "bool"
	KindCode   ValueKind = "code"
	KindError  ValueKind = "error"
)

// CellValue is the sealed set of values that can occupy a grid slot.
//
// Implementations: Blank, Number, Text, Bool, Code, Error.
type CellValue interface {
	cellValue() // sealed marker
	Kind() ValueKind
	// Display renders the value the way a grid cell shows it.
	Display() string
}

// Blank is the empty value.
type Blank struct{}

func (Blank) cellValue() {}
func (Blank) Kind() ValueKind { return KindBlank }
func (Blank) Display() string { return "" }

// Number is an arbitrary-precision decimal. The zero value is 0.
type Number struct {
	d *apd.Decimal
}

func (Number) cellValue() {}
func (Number) Kind() ValueKind { return KindNumber }

// Display renders the reduced decimal in plain notation ("1.5", "10").
func (n Number) Display() string {
	if n.d == nil {
		return "0"
	}
	reduced, _ := new(apd.Decimal).Reduce(n.d)
	return reduced.Text('f')
}

func (n Number) String() string { return n.Display() }

// Decimal returns a copy of the underlying decimal.
func (n Number) Decimal() *apd.Decimal {
	if n.d == nil {
		return apd.New(0, 0)
	}
	return new(apd.Decimal).Set(n.d)
}

// Float64 converts the number for interop with evaluators that need floats.
func (n Number) Float64() float64 {
	if n.d == nil {
		return 0
	}
	f, err := n.d.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Cmp compares two numbers numerically.
func (n Number) Cmp(o Number) int {
	return n.Decimal().Cmp(o.Decimal())
}

// NewNumber wraps a copy of d.
func NewNumber(d *apd.Decimal) Number {
	return Number{d: new(apd.Decimal).Set(d)}
}

// NumberFromInt builds a Number from an integer.
func NumberFromInt(i int64) Number {
	return Number{d: apd.New(i, 0)}
}

// NumberFromFloat builds a Number from a float, rejecting NaN and infinities.
func NumberFromFloat(f float64) (Number, error) {
	d, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return Number{}, fmt.Errorf("number from float %v: %w", f, err)
	}
	if d.Form != apd.Finite {
		return Number{}, fmt.Errorf("number from float: %v is not finite", f)
	}
	return Number{d: d}, nil
}

// ParseNumber parses a decimal string. Only finite values are accepted.
func ParseNumber(s string) (Number, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Number{}, fmt.Errorf("parse number %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return Number{}, fmt.Errorf("parse number %q: not finite", s)
	}
	return Number{d: d}, nil
}

// Text is a string value.
type Text string

func (Text) cellValue() {}
func (Text) Kind() ValueKind { return KindText }
func (t Text) Display() string { return string(t) }

// Bool is a logical value.
type Bool bool

func (Bool) cellValue() {}
func (Bool) Kind() ValueKind { return KindBool }
func (b Bool) Display() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Code marks a code cell anchor. It never lives in a sheet's value map; it is
// reported by lookups of an anchor that holds no literal.
type Code struct {
	Language CodeCellLanguage
}

func (Code) cellValue() {}
func (Code) Kind() ValueKind { return KindCode }
func (Code) Display() string { return "" }

// Error is a run error surfaced as a cell value.
type Error struct {
	Err RunError
}

func (Error) cellValue() {}
func (Error) Kind() ValueKind { return KindError }
func (e Error) Display() string { return "ERROR" }

// IsBlank reports whether v is nil or Blank.
func IsBlank(v CellValue) bool {
	return v == nil || v.Kind() == KindBlank
}

// OrBlank substitutes Blank for a nil value.
func OrBlank(v CellValue) CellValue {
	if v == nil {
		return Blank{}
	}
	return v
}

// ValuesEqual reports whether two values render and compare identically.
func ValuesEqual(a, b CellValue) bool {
	a, b = OrBlank(a), OrBlank(b)
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Number:
		return av.Cmp(b.(Number)) == 0
	case Error:
		return av.Err.Equal(b.(Error).Err)
	case Code:
		return av.Language == b.(Code).Language
	default:
		return a.Display() == b.Display()
	}
}

// ParseCellValue interprets user input: empty is Blank, decimals are Number,
// TRUE/FALSE (any case) are Bool, everything else is Text.
func ParseCellValue(input string) CellValue {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Blank{}
	}
	if n, err := ParseNumber(trimmed); err == nil {
		return n
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Text(input)
}

// TaggedValue is the JSON wire form of a CellValue.
type TaggedValue struct {
	Type     ValueKind        `json:"type"`
	Value    string           `json:"value,omitempty"`
	Language CodeCellLanguage `json:"language,omitempty"`
	Error    *RunError        `json:"error,omitempty"`
}

// Tag converts a value to its wire form.
func Tag(v CellValue) TaggedValue {
	switch val := OrBlank(v).(type) {
	case Number:
		return TaggedValue{Type: KindNumber, Value: val.Display()}
	case Text:
		return TaggedValue{Type: KindText, Value: string(val)}
	case Bool:
		return TaggedValue{Type: KindBool, Value: val.Display()}
	case Code:
		return TaggedValue{Type: KindCode, Language: val.Language}
	case Error:
		e := val.Err
		return TaggedValue{Type: KindError, Error: &e}
	default:
		return TaggedValue{Type: KindBlank}
	}
}

// Untag converts a wire value back to a CellValue.
func (t TaggedValue) Untag() (CellValue, error) {
	switch t.Type {
	case KindBlank, "":
		return Blank{}, nil
	case KindNumber:
		return ParseNumber(t.Value)
	case KindText:
		return Text(t.Value), nil
	case KindBool:
		return Bool(t.Value == "TRUE"), nil
	case KindCode:
		if !t.Language.Valid() {
			return nil, fmt.Errorf("code value: unknown language %q", t.Language)
		}
		return Code{Language: t.Language}, nil
	case KindError:
		if t.Error == nil {
			return nil, fmt.Errorf("error value: missing error payload")
		}
		return Error{Err: *t.Error}, nil
	default:
		return nil, fmt.Errorf("unknown value type %q", t.Type)
	}
}
