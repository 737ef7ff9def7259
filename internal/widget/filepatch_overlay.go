package widget

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

// FilePatchOverlay shows a suspended modify_file tool call's unified diff
// preview awaiting Apply/Cancel, grounded on original_source's
// ui/file_patch_popup_layout.rs.
type FilePatchOverlay struct {
	Model   *tabs.Model
	Theme   render.Theme
	Overlay *view.State
}

func (f *FilePatchOverlay) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: bc.Max.Height})
}

func (f *FilePatchOverlay) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {}

func (f *FilePatchOverlay) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {}

func (f *FilePatchOverlay) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	if ev.Kind != EventKey {
		return EventResult{}
	}
	tab := f.Model.Active()
	if tab == nil || tab.FilePatch == nil {
		return EventResult{}
	}
	switch ev.Key {
	case "y":
		tab.App.PendingCmd = broker.FilePatchCommand{Target: tab.FilePatch, Action: broker.FilePatchApply}
		return EventResult{Handled: true, Dirty: true}
	case "n":
		tab.App.PendingCmd = broker.FilePatchCommand{Target: tab.FilePatch, Action: broker.FilePatchCancel}
		return EventResult{Handled: true, Dirty: true}
	}
	return EventResult{}
}

func (f *FilePatchOverlay) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	tab := f.Model.Active()
	if tab == nil || tab.FilePatch == nil {
		return
	}
	pending := tab.FilePatch
	title := lipgloss.NewStyle().Foreground(f.Theme.ToolFg).Bold(true)
	frame.WriteLine(title.Render("modify_file: " + pending.Path))
	for _, line := range splitLines(pending.Preview) {
		style := lipgloss.NewStyle().Foreground(f.Theme.SystemFg)
		switch {
		case len(line) > 0 && line[0] == '+':
			style = lipgloss.NewStyle().Foreground(f.Theme.UserFg)
		case len(line) > 0 && line[0] == '-':
			style = lipgloss.NewStyle().Foreground(f.Theme.ErrorFg)
		}
		frame.WriteLine(style.Render(line))
	}
	frame.WriteLine(title.Render("[y] apply  [n] cancel"))
}
