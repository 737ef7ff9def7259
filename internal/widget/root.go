package widget

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

// Root composes the base frame (tab bar, chat viewport, input box) and
// the single active overlay into one Widget, grounded on
// original_source's widgets/root.rs + widgets/frame.rs fused with
// spec.md §4.8's per-frame Measure/Place/Update/Event/Render sequence.
//
// Jump, CodeExec, FilePatch, and QuestionReview have concrete content
// widgets; Summary/Model/Prompt/Help/Terminal still render a placeholder
// naming the active kind — wiring each to its real content (model picker
// list, PTY output, ...) is left as a follow-up increment (see
// DESIGN.md).
type Root struct {
	Model   *tabs.Model
	Theme   render.Theme
	Overlay view.State

	tabBar         TabBar
	chat           ChatViewport
	input          InputBox
	jump           JumpOverlay
	codeExec       CodeExecOverlay
	filePatch      FilePatchOverlay
	questionReview QuestionReviewOverlay

	rows rootRows
}

type rootRows struct {
	tabBar, main, input, overlayMain Rect
}

// NewRoot wires the child widgets to the shared model/theme. Overlay
// starts closed (view.State's zero value is already IsChat()).
func NewRoot(model *tabs.Model, theme render.Theme) *Root {
	r := &Root{Model: model, Theme: theme}
	r.tabBar = TabBar{Model: model, Theme: theme}
	r.chat = ChatViewport{Model: model, Theme: theme}
	r.input = InputBox{Model: model, Theme: theme, Height: 3}
	r.jump = JumpOverlay{Model: model, Theme: theme, Overlay: &r.Overlay}
	r.codeExec = CodeExecOverlay{Model: model, Theme: theme, Overlay: &r.Overlay}
	r.filePatch = FilePatchOverlay{Model: model, Theme: theme, Overlay: &r.Overlay}
	r.questionReview = QuestionReviewOverlay{Model: model, Theme: theme, Overlay: &r.Overlay}
	return r
}

func (r *Root) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: bc.Max.Height})
}

func (r *Root) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {
	r.rows = r.split(rect)
	r.tabBar.Place(ctx, layout, r.rows.tabBar)
	switch {
	case r.Overlay.IsChat():
		r.chat.Place(ctx, layout, r.rows.main)
		r.input.Place(ctx, layout, r.rows.input)
	case r.Overlay.Is(view.Jump):
		r.jump.Place(ctx, layout, r.rows.overlayMain)
	case r.Overlay.Is(view.CodeExec):
		r.codeExec.Place(ctx, layout, r.rows.overlayMain)
	case r.Overlay.Is(view.FilePatch):
		r.filePatch.Place(ctx, layout, r.rows.overlayMain)
	case r.Overlay.Is(view.QuestionReview):
		r.questionReview.Place(ctx, layout, r.rows.overlayMain)
	}
}

// split divides rect into the tab bar row plus either the chat+input
// split or the overlay's own area, honoring UsesSimpleLayout (Summary
// and Jump drop the input row entirely, spec.md §4.4).
func (r *Root) split(rect Rect) rootRows {
	if r.Overlay.UsesSimpleLayout() {
		parts := SplitRects(rect, Vertical, []SplitSize{Fixed(1), Flex()})
		return rootRows{tabBar: parts[0], overlayMain: parts[1]}
	}
	parts := SplitRects(rect, Vertical, []SplitSize{Fixed(1), Flex(), Fixed(r.input.Height)})
	if r.Overlay.IsChat() {
		return rootRows{tabBar: parts[0], main: parts[1], input: parts[2]}
	}
	return rootRows{tabBar: parts[0], overlayMain: parts[1], input: parts[2]}
}

func (r *Root) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {
	r.tabBar.Update(ctx, layout, upd)
	switch {
	case r.Overlay.IsChat():
		r.chat.Update(ctx, layout, upd)
		r.input.Update(ctx, layout, upd)
	case r.Overlay.Is(view.Jump):
		r.jump.Update(ctx, layout, upd)
	case r.Overlay.Is(view.CodeExec):
		r.codeExec.Update(ctx, layout, upd)
	case r.Overlay.Is(view.FilePatch):
		r.filePatch.Update(ctx, layout, upd)
	case r.Overlay.Is(view.QuestionReview):
		r.questionReview.Update(ctx, layout, upd)
	}
}

// Event implements spec.md §4.3's dispatch rules a-c (rule d, Ctrl+C
// selection-copy, belongs to ChatViewport once chat text selection is
// wired — tracked as a follow-up, not yet implemented here): global keys
// first, then the open overlay exclusively, then the active tab's base
// frame routed by focus/mouse position.
func (r *Root) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	if res, handled := r.handleGlobal(ev); handled {
		return res
	}

	if !r.Overlay.IsChat() {
		switch {
		case r.Overlay.Is(view.Jump):
			return r.jump.Event(ctx, ev, layout, upd, r.rows.overlayMain)
		case r.Overlay.Is(view.CodeExec):
			return r.codeExec.Event(ctx, ev, layout, upd, r.rows.overlayMain)
		case r.Overlay.Is(view.FilePatch):
			return r.filePatch.Event(ctx, ev, layout, upd, r.rows.overlayMain)
		case r.Overlay.Is(view.QuestionReview):
			return r.questionReview.Event(ctx, ev, layout, upd, r.rows.overlayMain)
		}
		if ev.Kind == EventKey && ev.Key == "esc" {
			r.Overlay.Close()
			return EventResult{Handled: true, Dirty: true}
		}
		return EventResult{}
	}

	tab := r.Model.Active()
	if tab == nil {
		return EventResult{}
	}

	if ev.Kind == EventMouse {
		switch {
		case r.rows.tabBar.Contains(ev.Col, ev.Row):
			return r.tabBar.Event(ctx, ev, layout, upd, r.rows.tabBar)
		case r.rows.input.Contains(ev.Col, ev.Row):
			tab.App.Focus = chatmodel.FocusInput
			return r.input.Event(ctx, ev, layout, upd, r.rows.input)
		case r.rows.main.Contains(ev.Col, ev.Row):
			tab.App.Focus = chatmodel.FocusChat
			return r.chat.Event(ctx, ev, layout, upd, r.rows.main)
		}
		return EventResult{}
	}

	if ev.Kind == EventKey {
		switch ev.Key {
		case "tab":
			if tab.App.Focus == chatmodel.FocusInput {
				tab.App.Focus = chatmodel.FocusChat
			} else {
				tab.App.Focus = chatmodel.FocusInput
			}
			return EventResult{Handled: true, Dirty: true}
		case "ctrl+right":
			r.Model.NextTab()
			return EventResult{Handled: true, Dirty: true}
		case "ctrl+left":
			r.Model.PrevTab()
			return EventResult{Handled: true, Dirty: true}
		}
	}

	if tab.App.Focus == chatmodel.FocusInput {
		return r.input.Event(ctx, ev, layout, upd, r.rows.input)
	}
	return r.chat.Event(ctx, ev, layout, upd, r.rows.main)
}

// handleGlobal implements spec.md §4.3 rule a: these keys are checked
// before overlay/tab routing regardless of focus. F1–F5 toggle the Help,
// Jump, Summary, Model and Prompt overlays and F6 stops the active tab's
// request; the remaining global keys (f7–f9, ctrl+l) are consumed with
// no effect.
func (r *Root) handleGlobal(ev Event) (EventResult, bool) {
	if !ev.IsGlobal() {
		return EventResult{}, false
	}
	switch ev.Key {
	case "f1":
		r.Overlay.Toggle(view.Help)
		return EventResult{Handled: true, Dirty: true}, true
	case "f2":
		r.Overlay.Toggle(view.Jump)
		return EventResult{Handled: true, Dirty: true}, true
	case "f3":
		r.Overlay.Toggle(view.Summary)
		return EventResult{Handled: true, Dirty: true}, true
	case "f4":
		r.Overlay.Toggle(view.Model)
		return EventResult{Handled: true, Dirty: true}, true
	case "f5":
		r.Overlay.Toggle(view.Prompt)
		return EventResult{Handled: true, Dirty: true}, true
	case "f6":
		if tab := r.Model.Active(); tab != nil {
			tab.Machine.Stop()
		}
		return EventResult{Handled: true, Dirty: true}, true
	case "ctrl+q":
		// loop.go's RunFrame sets quit itself on this key; Root has
		// nothing further to do.
		return EventResult{Handled: true}, true
	default:
		return EventResult{Handled: true}, true
	}
}

func (r *Root) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	r.tabBar.Render(frame, layout, upd, r.rows.tabBar)
	switch {
	case r.Overlay.IsChat():
		r.chat.Render(frame, layout, upd, r.rows.main)
		r.input.Render(frame, layout, upd, r.rows.input)
	case r.Overlay.Is(view.Jump):
		r.jump.Render(frame, layout, upd, r.rows.overlayMain)
	case r.Overlay.Is(view.CodeExec):
		r.codeExec.Render(frame, layout, upd, r.rows.overlayMain)
	case r.Overlay.Is(view.FilePatch):
		r.filePatch.Render(frame, layout, upd, r.rows.overlayMain)
	case r.Overlay.Is(view.QuestionReview):
		r.questionReview.Render(frame, layout, upd, r.rows.overlayMain)
	default:
		kind, _ := r.Overlay.Active()
		frame.WriteLine(lipgloss.NewStyle().Foreground(r.Theme.ToolFg).Bold(true).
			Render(fmt.Sprintf("[%s] — esc to close", kind)))
		if !r.Overlay.UsesSimpleLayout() {
			r.input.Render(frame, layout, upd, r.rows.input)
		}
	}
}
