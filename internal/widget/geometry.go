// Package widget implements the cooperative widget framework the runtime
// loop lays out, updates, and renders every frame: a five-method contract
// (Measure, Place, Update, Event, Render) ported from original_source's
// ui/widget_system package, wrapped in a generic WidgetPod for rect
// memoization and hit-testing.
package widget

// Size is a terminal-cell extent.
type Size struct{ Width, Height int }

// Rect is a terminal-cell rectangle, top-left origin.
type Rect struct {
	Col, Row, Width, Height int
}

// Contains reports whether (col,row) falls inside the rect.
func (r Rect) Contains(col, row int) bool {
	return col >= r.Col && col < r.Col+r.Width && row >= r.Row && row < r.Row+r.Height
}

// Constraints bounds a widget's measured size, ported verbatim from
// original_source's ui/widget_system/box_constraints.rs.
type Constraints struct {
	Min, Max Size
}

// Tight returns constraints that force exactly s.
func Tight(s Size) Constraints { return Constraints{Min: s, Max: s} }

// Loose returns constraints with a zero minimum and max s.
func Loose(s Size) Constraints { return Constraints{Min: Size{}, Max: s} }

// Constrain clamps s into [Min,Max] independently per dimension.
func (c Constraints) Constrain(s Size) Size {
	return Size{
		Width:  clamp(s.Width, c.Min.Width, c.Max.Width),
		Height: clamp(s.Height, c.Min.Height, c.Max.Height),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
