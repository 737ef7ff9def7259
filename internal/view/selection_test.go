package view

import "testing"

func TestClampWithViewportBounds(t *testing.T) {
	s := SelectionState{Selected: 10, Scroll: 5}
	s.ClampWithViewport(3, 2)
	if s.Selected != 2 {
		t.Fatalf("selected = %d, want 2", s.Selected)
	}
	if s.Scroll > 1 {
		t.Fatalf("scroll = %d, want <= 1", s.Scroll)
	}
}

func TestMoveAndPage(t *testing.T) {
	var s SelectionState
	s.MoveDown()
	if s.Selected != 1 {
		t.Fatalf("selected = %d, want 1", s.Selected)
	}
	s.PageDown(5)
	if s.Scroll < 5 {
		t.Fatalf("scroll = %d, want >= 5", s.Scroll)
	}
}

func TestScrollOffsetByDoesNotChangeSelected(t *testing.T) {
	s := SelectionState{Selected: 0, Scroll: 0}
	s.ScrollOffsetBy(5, 10)
	if s.Selected != 0 {
		t.Fatalf("selected changed: %d", s.Selected)
	}
	if s.Scroll != 5 {
		t.Fatalf("scroll = %d, want 5", s.Scroll)
	}
}

func TestScrollOffsetByClampsAndSaturates(t *testing.T) {
	s := SelectionState{Selected: 0, Scroll: 2}
	s.ScrollOffsetBy(-5, 10)
	if s.Scroll != 0 {
		t.Fatalf("scroll = %d, want 0", s.Scroll)
	}
	s.ScrollOffsetBy(50, 10)
	if s.Scroll != 10 {
		t.Fatalf("scroll = %d, want 10", s.Scroll)
	}
}
