package grid

import "github.com/PawelJastrzebski/quadratic-fork/internal/ir"

// Bounds is the occupied rectangle of a sheet, or empty.
type Bounds struct {
	rect  ir.Rect
	valid bool
}

// EmptyBounds covers nothing.
var EmptyBounds = Bounds{}

// BoundsOf returns bounds covering exactly r.
func BoundsOf(r ir.Rect) Bounds {
	return Bounds{rect: r, valid: true}
}

// IsEmpty reports whether nothing is covered.
func (b Bounds) IsEmpty() bool { return !b.valid }

// Rect returns the covered rectangle and whether there is one.
func (b Bounds) Rect() (ir.Rect, bool) { return b.rect, b.valid }

// Add extends b to cover r.
func (b Bounds) Add(r ir.Rect) Bounds {
	if !b.valid {
		return BoundsOf(r)
	}
	return BoundsOf(b.rect.Union(r))
}

// Merge combines two bounds.
func (b Bounds) Merge(o Bounds) Bounds {
	if !o.valid {
		return b
	}
	return b.Add(o.rect)
}

func (b Bounds) String() string {
	if !b.valid {
		return "empty"
	}
	return b.rect.String()
}
