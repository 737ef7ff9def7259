package widget

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

// JumpOverlay lists every labeled message as a jump target, grounded on
// original_source's widgets/jump.rs: rows come from
// internal/view.BuildJumpRows, and selecting one scrolls the chat
// viewport there and closes the overlay. Typing narrows the list with a
// fuzzy match over each row's role and preview text, same keystroke
// handling as InputBox's literal-rune/backspace case.
type JumpOverlay struct {
	Model   *tabs.Model
	Theme   render.Theme
	Overlay *view.State

	sel    view.SelectionState
	all    []view.JumpRow
	rows   []view.JumpRow
	filter string
}

func (j *JumpOverlay) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: bc.Max.Height})
}

func (j *JumpOverlay) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {
	tab := j.Model.Active()
	if tab == nil {
		j.all = nil
		j.rows = nil
		return
	}
	labelFor := func(role string) string { return render.LabelForRole(role, "") }
	lineCounter := func(idx, width int, streaming bool) int {
		return render.CountLines(tab.Cache, idx, tab.App.Messages[idx], width, j.Theme.Key(), streaming, renderMessageContent)
	}
	maxPreview := view.MaxPreviewWidth(rect.Width)
	j.all = view.BuildJumpRows(tab.App.Messages, rect.Width, maxPreview, tab.App.PendingAssistant, labelFor, lineCounter)
	j.applyFilter()
	j.sel.ClampWithViewport(len(j.rows), view.JumpVisibleRows(rect.Height))
}

// applyFilter narrows j.all down to j.rows by fuzzy-matching j.filter
// against each row's "role preview" text, sorted by fuzzy.Find's match
// score (best match first). An empty filter keeps original row order.
func (j *JumpOverlay) applyFilter() {
	if j.filter == "" {
		j.rows = j.all
		return
	}
	source := make([]string, len(j.all))
	for i, row := range j.all {
		source[i] = row.Role + " " + row.Preview
	}
	matches := fuzzy.Find(j.filter, source)
	rows := make([]view.JumpRow, len(matches))
	for i, m := range matches {
		rows[i] = j.all[m.Index]
	}
	j.rows = rows
}

func (j *JumpOverlay) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {}

func (j *JumpOverlay) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	if ev.Kind != EventKey {
		return EventResult{}
	}
	visible := view.JumpVisibleRows(rect.Height)
	switch ev.Key {
	case "up":
		j.sel.MoveUp()
		j.sel.ClampWithViewport(len(j.rows), visible)
		return EventResult{Handled: true, Dirty: true}
	case "down":
		j.sel.MoveDown()
		j.sel.ClampWithViewport(len(j.rows), visible)
		return EventResult{Handled: true, Dirty: true}
	case "enter":
		j.jumpToSelection()
		j.filter = ""
		j.Overlay.Close()
		return EventResult{Handled: true, Dirty: true}
	case "esc":
		j.filter = ""
		j.Overlay.Close()
		return EventResult{Handled: true, Dirty: true}
	case "backspace":
		if n := len(j.filter); n > 0 {
			j.filter = j.filter[:n-1]
			j.applyFilter()
			j.sel.ClampWithViewport(len(j.rows), visible)
		}
		return EventResult{Handled: true, Dirty: true}
	default:
		if len([]rune(ev.Key)) == 1 {
			j.filter += ev.Key
			j.applyFilter()
			j.sel.ClampWithViewport(len(j.rows), visible)
			return EventResult{Handled: true, Dirty: true}
		}
	}
	return EventResult{}
}

func (j *JumpOverlay) jumpToSelection() {
	if j.sel.Selected < 0 || j.sel.Selected >= len(j.rows) {
		return
	}
	tab := j.Model.Active()
	if tab == nil {
		return
	}
	if tab.App.Scroll == nil {
		tab.App.Scroll = &view.SelectionState{}
	}
	if s, ok := tab.App.Scroll.(*view.SelectionState); ok {
		s.Scroll = j.rows[j.sel.Selected].Scroll
	}
	tab.App.Follow = false
}

func (j *JumpOverlay) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	header := "jump — enter to go, esc to cancel"
	if j.filter != "" {
		header = fmt.Sprintf("jump — filter: %s", j.filter)
	}
	frame.WriteLine(lipgloss.NewStyle().Foreground(j.Theme.AssistantFg).Bold(true).Render(header))
	visible := view.JumpVisibleRows(rect.Height)
	for i := j.sel.Scroll; i < len(j.rows) && i < j.sel.Scroll+visible; i++ {
		row := j.rows[i]
		line := fmt.Sprintf("%4d  %-10s %s", row.Index, row.Role, row.Preview)
		style := lipgloss.NewStyle().Foreground(j.Theme.SystemFg)
		if i == j.sel.Selected {
			style = lipgloss.NewStyle().Foreground(j.Theme.UserFg).Bold(true)
		}
		frame.WriteLine(style.Render(line))
	}
}
