package ir

import "fmt"

// FormatAttr names a single cell formatting attribute.
type FormatAttr string

const (
	AttrAlign         FormatAttr = "align"
	AttrWrap          FormatAttr = "wrap"
	AttrNumericFormat FormatAttr = "numeric_format"
	AttrBold          FormatAttr = "bold"
	AttrItalic        FormatAttr = "italic"
	AttrTextColor     FormatAttr = "text_color"
	AttrFillColor     FormatAttr = "fill_color"
)

// FormatAttrs lists every attribute in a stable order.
var FormatAttrs = []FormatAttr{
	AttrAlign, AttrWrap, AttrNumericFormat, AttrBold, AttrItalic, AttrTextColor, AttrFillColor,
}

// Valid reports whether a is a known attribute.
func (a FormatAttr) Valid() bool {
	for _, known := range FormatAttrs {
		if a == known {
			return true
		}
	}
	return false
}

// Run is a sequence of Len cells sharing one attribute value. A nil Value
// clears the attribute.
type Run struct {
	Value *string `json:"value"`
	Len   int     `json:"len"`
}

// RunLength is a run-length encoded column of attribute values.
type RunLength []Run

// Len returns the number of cells covered.
func (rl RunLength) Len() int {
	n := 0
	for _, r := range rl {
		n += r.Len
	}
	return n
}

// Expand returns one entry per cell.
func (rl RunLength) Expand() []*string {
	out := make([]*string, 0, rl.Len())
	for _, r := range rl {
		for i := 0; i < r.Len; i++ {
			out = append(out, r.Value)
		}
	}
	return out
}

// Compress run-length encodes per-cell values.
func Compress(values []*string) RunLength {
	var rl RunLength
	for _, v := range values {
		if n := len(rl); n > 0 && sameOptional(rl[n-1].Value, v) {
			rl[n-1].Len++
			continue
		}
		rl = append(rl, Run{Value: v, Len: 1})
	}
	return rl
}

// Repeat returns a single run of n copies of v.
func Repeat(v *string, n int) RunLength {
	return RunLength{{Value: v, Len: n}}
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// BorderLine is the stroke of one border side.
type BorderLine string

const (
	LineSolid  BorderLine = "solid"
	LineDashed BorderLine = "dashed"
	LineDotted BorderLine = "dotted"
	LineDouble BorderLine = "double"
)

// BorderStyle is the appearance of one side of a cell border.
type BorderStyle struct {
	Color string     `json:"color"`
	Line  BorderLine `json:"line"`
}

// CellBorders holds the four optional sides of a cell's border.
type CellBorders struct {
	Top    *BorderStyle `json:"top,omitempty"`
	Bottom *BorderStyle `json:"bottom,omitempty"`
	Left   *BorderStyle `json:"left,omitempty"`
	Right  *BorderStyle `json:"right,omitempty"`
}

// IsEmpty reports whether no side is set.
func (b CellBorders) IsEmpty() bool {
	return b.Top == nil && b.Bottom == nil && b.Left == nil && b.Right == nil
}

// Validate checks that every set side uses a known line.
func (b CellBorders) Validate() error {
	for _, side := range []*BorderStyle{b.Top, b.Bottom, b.Left, b.Right} {
		if side == nil {
			continue
		}
		switch side.Line {
		case LineSolid, LineDashed, LineDotted, LineDouble:
		default:
			return fmt.Errorf("unknown border line %q", side.Line)
		}
	}
	return nil
}
