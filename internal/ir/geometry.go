package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a cell coordinate within a sheet.
type Pos struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// A1 returns the position in A1 notation, e.g. "B3" for {1, 2}.
func (p Pos) A1() string {
	return ColumnName(p.X) + strconv.FormatInt(p.Y+1, 10)
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Rect is an inclusive rectangle of positions.
type Rect struct {
	Min Pos `json:"min"`
	Max Pos `json:"max"`
}

// SinglePos returns the 1x1 rectangle at p.
func SinglePos(p Pos) Rect {
	return Rect{Min: p, Max: p}
}

// RectFromSize returns the rectangle anchored at p spanning w by h cells.
func RectFromSize(p Pos, w, h int64) Rect {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Rect{Min: p, Max: Pos{X: p.X + w - 1, Y: p.Y + h - 1}}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and o share at least one position.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Width returns the number of columns in r.
func (r Rect) Width() int64 { return r.Max.X - r.Min.X + 1 }

// Height returns the number of rows in r.
func (r Rect) Height() int64 { return r.Max.Y - r.Min.Y + 1 }

// Positions returns every position in r in row-major order.
func (r Rect) Positions() []Pos {
	out := make([]Pos, 0, r.Width()*r.Height())
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			out = append(out, Pos{X: x, Y: y})
		}
	}
	return out
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Pos{X: min(r.Min.X, o.Min.X), Y: min(r.Min.Y, o.Min.Y)},
		Max: Pos{X: max(r.Max.X, o.Max.X), Y: max(r.Max.Y, o.Max.Y)},
	}
}

func (r Rect) String() string {
	return r.Min.A1() + ":" + r.Max.A1()
}

// SheetPos is a position qualified by its sheet.
type SheetPos struct {
	Sheet SheetID `json:"sheet"`
	Pos
}

// SheetRect is a rectangle qualified by its sheet.
type SheetRect struct {
	Sheet SheetID `json:"sheet"`
	Rect
}

// ColumnName converts a zero-based column index to letters (0 -> A, 26 -> AA).
// Negative indexes are prefixed with 'n' and are display-only.
func ColumnName(x int64) string {
	if x < 0 {
		return "n" + ColumnName(-x-1)
	}
	var b []byte
	for n := x + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex converts column letters back to a zero-based index. It is the
// inverse of ColumnName for non-negative indexes.
func ColumnIndex(name string) (int64, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	var n int64
	for _, c := range name {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column name %q", name)
		}
		n = n*26 + int64(c-'A'+1)
	}
	return n - 1, nil
}

// ParseA1 parses a reference such as "B3" into a position.
func ParseA1(ref string) (Pos, error) {
	i := 0
	for i < len(ref) && (ref[i] >= 'A' && ref[i] <= 'Z' || ref[i] >= 'a' && ref[i] <= 'z') {
		i++
	}
	if i == 0 || i == len(ref) {
		return Pos{}, fmt.Errorf("invalid cell reference %q", ref)
	}
	x, err := ColumnIndex(ref[:i])
	if err != nil {
		return Pos{}, err
	}
	row, err := strconv.ParseInt(ref[i:], 10, 64)
	if err != nil || row < 1 {
		return Pos{}, fmt.Errorf("invalid row in cell reference %q", ref)
	}
	return Pos{X: x, Y: row - 1}, nil
}

// ParseRange parses "A1:B3" (or a single "A1") into a normalized rectangle.
func ParseRange(ref string) (Rect, error) {
	from, to, found := strings.Cut(ref, ":")
	a, err := ParseA1(from)
	if err != nil {
		return Rect{}, err
	}
	if !found {
		return SinglePos(a), nil
	}
	b, err := ParseA1(to)
	if err != nil {
		return Rect{}, err
	}
	return Rect{
		Min: Pos{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: Pos{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}, nil
}
