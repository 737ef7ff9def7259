package widget

// FrameLayout is the per-frame measurement output a widget returns from
// Measure/Place and hands back into Update/Event/Render. Widgets that
// need cross-phase scratch state (e.g. computed message layouts for hit
// testing) stash it here rather than in widget fields, so a widget value
// stays reusable across frames without aliasing bugs.
type FrameLayout struct {
	Size     Size
	JumpRows []JumpRow
	Extra    map[string]any
}

// JumpRow is one selectable row slot carried on FrameLayout.JumpRows. No
// widget fills that field; JumpOverlay builds its own view.JumpRow list
// in Place.
type JumpRow struct {
	Index   int
	Label   string
	Preview string
}

// FrameUpdate is the mutable per-frame output of Update, consumed by
// Render and by Event for hit-testing decisions (e.g. which button a
// click landed on).
type FrameUpdate struct {
	Dirty bool
	Extra map[string]any
}

// LayoutCtx carries read-only ambient data into Measure: theme, available
// width policy, and anything else layout needs without threading it
// through every call site individually.
type LayoutCtx struct {
	Width int
}

// UpdateCtx carries read-only ambient data into Update.
type UpdateCtx struct {
	Now int64 // unix nanos, passed in rather than read from time.Now so tests are deterministic
}

// EventCtx carries read-only ambient data into Event.
type EventCtx struct{}

// EventResult reports what an Event call did, so the dispatcher (§4.3)
// knows whether to keep routing or stop.
type EventResult struct {
	Handled bool
	Dirty   bool
}

// Frame is the render target: a widget writes styled lines into it. It
// is intentionally minimal — the concrete terminal writer lives in
// internal/render, this package only needs an abstraction Render can
// target so widget code has no bubbletea/lipgloss import requirement of
// its own beyond composing strings.
type Frame struct {
	Lines []string
}

// WriteLine appends one rendered line, clipped to the frame's rect width
// by the caller (widgets are expected to pre-wrap/pad).
func (f *Frame) WriteLine(s string) {
	f.Lines = append(f.Lines, s)
}

// Widget is the five-method contract every UI element implements,
// ported 1:1 from original_source's ui/widget_system/lifecycle.rs
// (WidgetRender + WidgetLifecycle traits) and widget_pod.rs.
type Widget interface {
	// Measure returns the widget's desired size within bc.
	Measure(ctx *LayoutCtx, bc Constraints) Size
	// Place finalizes the widget's layout within rect, populating layout.
	Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect)
	// Update advances internal state for this frame (no I/O).
	Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate)
	// Event handles one input event, given this frame's layout/update
	// and the widget's rect.
	Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult
	// Render paints the widget's current state into frame.
	Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect)
}

// WidgetPod wraps a Widget with its memoized rect, providing hit-testing
// and forwarding every lifecycle call. Ported from original_source's
// WidgetPod<W: Widget> (both the framework/ and ui/ variants collapse to
// one shape in Go since Place already carries the rect Measure needs).
type WidgetPod[W Widget] struct {
	Widget W
	Rect   Rect
}

// NewWidgetPod wraps w with a zero rect; Place must be called before
// Render.
func NewWidgetPod[W Widget](w W) *WidgetPod[W] {
	return &WidgetPod[W]{Widget: w}
}

func (p *WidgetPod[W]) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return p.Widget.Measure(ctx, bc)
}

func (p *WidgetPod[W]) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {
	p.Rect = rect
	p.Widget.Place(ctx, layout, rect)
}

func (p *WidgetPod[W]) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {
	p.Widget.Update(ctx, layout, upd)
}

func (p *WidgetPod[W]) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate) EventResult {
	return p.Widget.Event(ctx, ev, layout, upd, p.Rect)
}

func (p *WidgetPod[W]) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate) {
	p.Widget.Render(frame, layout, upd, p.Rect)
}

// Contains reports whether (col,row) hits this pod's last-placed rect.
func (p *WidgetPod[W]) Contains(col, row int) bool {
	return p.Rect.Contains(col, row)
}

// HitTester is the minimal surface DispatchMouse needs; WidgetPod
// satisfies it automatically.
type HitTester interface {
	Contains(col, row int) bool
}

// DispatchMouse descends pods top-most-first (later entries are drawn on
// top, mirroring original_source's mouse_overlay.rs dispatch order) and
// returns the index of the first pod containing (col,row).
func DispatchMouse(pods []HitTester, col, row int) (int, bool) {
	for i := len(pods) - 1; i >= 0; i-- {
		if pods[i].Contains(col, row) {
			return i, true
		}
	}
	return -1, false
}
