// Package view implements the overlay/selection state machine: at most
// one active overlay (C4), plus the SelectionState cursor shared by
// every list-like overlay and the chat viewport itself. Ported from
// original_source's ui/overlay.rs and ui/interaction/selection_state.rs.
package view

// SelectionState tracks a selected row and a scroll offset for a
// scrollable list. Every operation is a direct port of
// original_source's SelectionState, including its saturating-arithmetic
// edge behavior at zero.
type SelectionState struct {
	Selected int
	Scroll   int
}

// Position implements chatmodel.SelectionLike.
func (s SelectionState) Position() (selected, scroll int) {
	return s.Selected, s.Scroll
}

// Select sets the selected row directly.
func (s *SelectionState) Select(i int) { s.Selected = i }

// ClampWithViewport clamps Selected into [0,len) and Scroll into
// [0,maxScroll], then re-ensures visibility. If len==0 both fields are
// reset to 0, matching the original's explicit degenerate case.
func (s *SelectionState) ClampWithViewport(length, viewportRows int) {
	if length == 0 {
		s.Selected = 0
		s.Scroll = 0
		return
	}
	if s.Selected >= length {
		s.Selected = length - 1
	}
	if viewportRows == 0 {
		s.Scroll = 0
		return
	}
	max := maxScroll(length, viewportRows)
	if s.Scroll > max {
		s.Scroll = max
	}
	s.EnsureVisible(viewportRows)
}

// maxScroll is the largest valid scroll offset for length rows in a
// viewport of viewportRows, matching original_source's
// crate::ui::scroll::max_scroll.
func maxScroll(length, viewportRows int) int {
	if viewportRows <= 0 {
		return 0
	}
	m := length - viewportRows
	if m < 0 {
		return 0
	}
	return m
}

// MoveUp moves the selection up by one, saturating at 0, and pulls the
// scroll window down with it if the selection scrolled above it.
func (s *SelectionState) MoveUp() {
	if s.Selected > 0 {
		s.Selected--
	}
	if s.Selected < s.Scroll {
		s.Scroll = s.Selected
	}
}

// MoveDown moves the selection down by one. Unlike MoveUp this does not
// clamp to a known length by itself (the original leaves that to a
// follow-up clamp_with_viewport call) — callers that know the list
// length should clamp afterward.
func (s *SelectionState) MoveDown() {
	s.Selected++
}

// PageUp scrolls the window up by step rows, pulling the selection down
// to the new scroll bound if it scrolled past it.
func (s *SelectionState) PageUp(step int) {
	s.Scroll = offsetScroll(s.Scroll, -step)
	if s.Selected < s.Scroll {
		s.Selected = s.Scroll
	}
}

// PageDown scrolls the window down by step rows, pulling the selection
// down to the new scroll bound if it lagged behind.
func (s *SelectionState) PageDown(step int) {
	s.Scroll = offsetScroll(s.Scroll, step)
	if s.Selected < s.Scroll {
		s.Selected = s.Scroll
	}
}

// EnsureVisible adjusts Scroll so Selected is within [Scroll,
// Scroll+viewportRows).
func (s *SelectionState) EnsureVisible(viewportRows int) {
	if s.Selected < s.Scroll {
		s.Scroll = s.Selected
		return
	}
	if viewportRows > 0 && s.Selected >= s.Scroll+viewportRows {
		s.Scroll = s.Selected - (viewportRows - 1)
	}
}

// ScrollOffsetBy moves Scroll by delta, clamped to [0,maxScrollVal],
// without touching Selected — used for mouse-wheel scrolling that
// should not move the cursor.
func (s *SelectionState) ScrollOffsetBy(delta, maxScrollVal int) {
	s.Scroll = offsetScroll(s.Scroll, delta)
	if s.Scroll > maxScrollVal {
		s.Scroll = maxScrollVal
	}
	if s.Scroll < 0 {
		s.Scroll = 0
	}
}

// ScrollBy moves Scroll by delta (clamped) and then re-ensures Selected
// stays within the viewport.
func (s *SelectionState) ScrollBy(delta, maxScrollVal, viewportRows int) {
	s.ScrollOffsetBy(delta, maxScrollVal)
	s.EnsureVisible(viewportRows)
}

func offsetScroll(scroll, delta int) int {
	v := scroll + delta
	if v < 0 {
		return 0
	}
	return v
}
