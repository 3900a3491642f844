package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// CodeCellLanguage is the closed set of languages a code cell can hold.
type CodeCellLanguage string

const (
	// LanguageFormula is evaluated in-process and never suspends.
	LanguageFormula CodeCellLanguage = "Formula"
	// LanguagePython is dispatched to the external interpreter host.
	LanguagePython CodeCellLanguage = "Python"
	// LanguageJavaScript is dispatched to the external interpreter host.
	LanguageJavaScript CodeCellLanguage = "JavaScript"
)

// Valid reports whether l is a known language.
func (l CodeCellLanguage) Valid() bool {
	switch l {
	case LanguageFormula, LanguagePython, LanguageJavaScript:
		return true
	}
	return false
}

// External reports whether cells in this language run on the interpreter host.
func (l CodeCellLanguage) External() bool {
	return l == LanguagePython || l == LanguageJavaScript
}

// ParseLanguage accepts a language name in any case.
func ParseLanguage(s string) (CodeCellLanguage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "formula":
		return LanguageFormula, nil
	case "python":
		return LanguagePython, nil
	case "javascript", "js":
		return LanguageJavaScript, nil
	}
	return "", fmt.Errorf("unknown code cell language %q", s)
}

// Array is a rectangular block of values in row-major order.
type Array struct {
	Width  int64
	Height int64
	Values []CellValue
}

// NewArray returns a w by h array of Blank values.
func NewArray(w, h int64) *Array {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	values := make([]CellValue, w*h)
	for i := range values {
		values[i] = Blank{}
	}
	return &Array{Width: w, Height: h, Values: values}
}

// ArrayFromValue wraps a single value as a 1x1 array.
func ArrayFromValue(v CellValue) *Array {
	return &Array{Width: 1, Height: 1, Values: []CellValue{OrBlank(v)}}
}

// Get returns the value at (x, y) or Blank when out of range.
func (a *Array) Get(x, y int64) CellValue {
	if a == nil || x < 0 || y < 0 || x >= a.Width || y >= a.Height {
		return Blank{}
	}
	return OrBlank(a.Values[y*a.Width+x])
}

// Set stores v at (x, y). Out of range writes are ignored.
func (a *Array) Set(x, y int64, v CellValue) {
	if x < 0 || y < 0 || x >= a.Width || y >= a.Height {
		return
	}
	a.Values[y*a.Width+x] = OrBlank(v)
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	if a == nil {
		return nil
	}
	return &Array{Width: a.Width, Height: a.Height, Values: slices.Clone(a.Values)}
}

// Equal reports whether two arrays have the same shape and values.
func (a *Array) Equal(o *Array) bool {
	if a == nil || o == nil {
		return a == o
	}
	if a.Width != o.Width || a.Height != o.Height {
		return false
	}
	for i := range a.Values {
		if !ValuesEqual(a.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

type arrayJSON struct {
	Width  int64         `json:"w"`
	Height int64         `json:"h"`
	Values []TaggedValue `json:"values"`
}

// MarshalJSON encodes the array with tagged values.
func (a Array) MarshalJSON() ([]byte, error) {
	out := arrayJSON{Width: a.Width, Height: a.Height, Values: make([]TaggedValue, len(a.Values))}
	for i, v := range a.Values {
		out.Values[i] = Tag(v)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an array and checks its shape.
func (a *Array) UnmarshalJSON(data []byte) error {
	var in arrayJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if int64(len(in.Values)) != in.Width*in.Height {
		return fmt.Errorf("array: %d values for %dx%d", len(in.Values), in.Width, in.Height)
	}
	a.Width, a.Height = in.Width, in.Height
	a.Values = make([]CellValue, len(in.Values))
	for i, tv := range in.Values {
		v, err := tv.Untag()
		if err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
		a.Values[i] = v
	}
	return nil
}

// Span locates an error within the source code of a cell.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// LineSpan builds a span covering a single source line.
func LineSpan(line uint32) *Span {
	return &Span{Start: line, End: line}
}

// ErrorKind classifies a RunError.
type ErrorKind string

const (
	ErrorKindRuntime           ErrorKind = "runtime"
	ErrorKindFormula           ErrorKind = "formula"
	ErrorKindSelfReference     ErrorKind = "self_reference"
	ErrorKindSheetNotFound     ErrorKind = "sheet_not_found"
	ErrorKindCircularReference ErrorKind = "circular_reference"
	ErrorKindHostUnavailable   ErrorKind = "host_unavailable"
	ErrorKindSpill             ErrorKind = "spill"
	ErrorKindStepsExceeded     ErrorKind = "steps_exceeded"
)

// RunError is the failure recorded on a code cell.
type RunError struct {
	Span *Span     `json:"span,omitempty"`
	Kind ErrorKind `json:"kind"`
	Msg  string    `json:"msg"`
}

func (e RunError) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s at line %d: %s", e.Kind, e.Span.Start, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Equal compares kind, message, and span.
func (e RunError) Equal(o RunError) bool {
	if e.Kind != o.Kind || e.Msg != o.Msg {
		return false
	}
	if e.Span == nil || o.Span == nil {
		return e.Span == o.Span
	}
	return *e.Span == *o.Span
}

// CodeRun is the result of the most recent evaluation of a code cell.
//
// Exactly one of Output and Err is set. A failed host run keeps the last
// successful array in Previous so the displayed output does not change.
// CellsAccessed holds the dependency set of the last successful run.
type CodeRun struct {
	StdOut        string    `json:"std_out,omitempty"`
	StdErr        string    `json:"std_err,omitempty"`
	Output        *Array    `json:"output,omitempty"`
	Err           *RunError `json:"error,omitempty"`
	Previous      *Array    `json:"previous,omitempty"`
	CellsAccessed []CellRef `json:"cells_accessed"`
	SpillError    bool      `json:"spill_error,omitempty"`
}

// Succeeded reports whether the run produced output.
func (r *CodeRun) Succeeded() bool {
	return r != nil && r.Err == nil
}

// Displayed returns the array shown in the grid: the output on success, the
// retained previous output on failure, nil when there is none.
func (r *CodeRun) Displayed() *Array {
	if r == nil {
		return nil
	}
	if r.Err == nil {
		return r.Output
	}
	return r.Previous
}

// Clone returns a deep copy.
func (r *CodeRun) Clone() *CodeRun {
	if r == nil {
		return nil
	}
	c := *r
	c.Output = r.Output.Clone()
	c.Previous = r.Previous.Clone()
	c.CellsAccessed = slices.Clone(r.CellsAccessed)
	if r.Err != nil {
		e := *r.Err
		if r.Err.Span != nil {
			s := *r.Err.Span
			e.Span = &s
		}
		c.Err = &e
	}
	return &c
}

// CodeCellValue is a code cell: its source plus its last run.
type CodeCellValue struct {
	Language      CodeCellLanguage `json:"language"`
	Code          string           `json:"code"`
	FormattedCode *string          `json:"formatted_code,omitempty"`
	Output        *CodeRun         `json:"output,omitempty"`
	LastModified  int64            `json:"last_modified"`
}

// Clone returns a deep copy. A nil receiver yields nil.
func (c *CodeCellValue) Clone() *CodeCellValue {
	if c == nil {
		return nil
	}
	out := *c
	if c.FormattedCode != nil {
		s := *c.FormattedCode
		out.FormattedCode = &s
	}
	out.Output = c.Output.Clone()
	return &out
}

// CellsAccessed returns the dependency set of the cell, nil without a run.
func (c *CodeCellValue) CellsAccessed() []CellRef {
	if c == nil || c.Output == nil {
		return nil
	}
	return c.Output.CellsAccessed
}

// OutputRect returns the rectangle the cell's output covers when anchored at
// pos. Cells without displayable output cover only their anchor.
func (c *CodeCellValue) OutputRect(anchor Pos) Rect {
	if c == nil {
		return SinglePos(anchor)
	}
	if arr := c.Output.Displayed(); arr != nil {
		return RectFromSize(anchor, arr.Width, arr.Height)
	}
	return SinglePos(anchor)
}

// Spilled reports whether the cell's output is currently blocked.
func (c *CodeCellValue) Spilled() bool {
	return c != nil && c.Output != nil && c.Output.SpillError
}
