package widget

// EventKind distinguishes the input sources the runtime loop multiplexes
// (spec.md §4.8 step 1 "Collect").
type EventKind int

const (
	EventKey EventKind = iota
	EventMouse
	EventResize
	EventPaste
)

// MouseKind distinguishes mouse actions.
type MouseKind int

const (
	MouseDown MouseKind = iota
	MouseUp
	MouseDrag
	MouseScrollUp
	MouseScrollDown
)

// Event is a single dispatched input event. Only the fields relevant to
// Kind are populated.
type Event struct {
	Kind EventKind

	Key   string // e.g. "enter", "ctrl+c", "f6", or a literal rune
	Mod   KeyMod
	Mouse MouseKind
	Col   int
	Row   int
	W, H  int
	Paste string
}

// KeyMod bitmask for modifier keys.
type KeyMod uint8

const (
	ModNone KeyMod = 0
	ModCtrl KeyMod = 1 << iota
	ModAlt
	ModShift
)

// IsGlobal reports whether this key should be checked before overlay/tab
// routing regardless of focus (spec.md §4.3 rule a): quit, prompt-lock
// toggle, stop, and the F-key overlay shortcuts.
func (e Event) IsGlobal() bool {
	if e.Kind != EventKey {
		return false
	}
	switch e.Key {
	case "ctrl+q", "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "ctrl+l":
		return true
	}
	return false
}
