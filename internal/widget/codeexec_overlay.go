package widget

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

// CodeExecOverlay shows a suspended code_exec tool call awaiting approval,
// its live stdout/stderr while running, and the final result once done,
// grounded on original_source's widgets/code_exec/widget.rs. Approve/Deny/
// Stop/Exit keypresses set tab.App.PendingCmd to a broker.CodeExecCommand
// for HandlePendingCommand to carry out; Update polls the running exec's
// LiveExec and self-submits Exit once AutoExit is set (YOLO mode).
type CodeExecOverlay struct {
	Model   *tabs.Model
	Theme   render.Theme
	Overlay *view.State
}

func (c *CodeExecOverlay) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: bc.Max.Height})
}

func (c *CodeExecOverlay) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {}

// Update auto-submits Exit once a YOLO-approved exec finishes, so the
// turn continues without a manual keypress.
func (c *CodeExecOverlay) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {
	tab := c.Model.Active()
	if tab == nil || tab.CodeExec == nil || tab.App.PendingCmd != nil {
		return
	}
	pending := tab.CodeExec
	if !pending.AutoExit || pending.Live == nil {
		return
	}
	if _, _, _, done := pending.Live.Snapshot(); done {
		tab.App.PendingCmd = broker.CodeExecCommand{Target: pending, Action: broker.CodeExecExit}
		upd.Dirty = true
	}
}

func (c *CodeExecOverlay) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	if ev.Kind != EventKey {
		return EventResult{}
	}
	tab := c.Model.Active()
	if tab == nil || tab.CodeExec == nil {
		return EventResult{}
	}
	pending := tab.CodeExec
	running := pending.Live != nil
	var isDone bool
	if running {
		_, _, _, isDone = pending.Live.Snapshot()
	}

	switch {
	case !running && ev.Key == "y":
		tab.App.PendingCmd = broker.CodeExecCommand{Target: pending, Action: broker.CodeExecApprove}
		return EventResult{Handled: true, Dirty: true}
	case !running && ev.Key == "n":
		tab.App.PendingCmd = broker.CodeExecCommand{Target: pending, Action: broker.CodeExecDeny}
		return EventResult{Handled: true, Dirty: true}
	case running && !isDone && ev.Key == "x":
		tab.App.PendingCmd = broker.CodeExecCommand{Target: pending, Action: broker.CodeExecStop}
		return EventResult{Handled: true, Dirty: true}
	case running && isDone && ev.Key == "enter":
		tab.App.PendingCmd = broker.CodeExecCommand{Target: pending, Action: broker.CodeExecExit}
		return EventResult{Handled: true, Dirty: true}
	}
	return EventResult{}
}

func (c *CodeExecOverlay) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	tab := c.Model.Active()
	if tab == nil || tab.CodeExec == nil {
		return
	}
	pending := tab.CodeExec
	title := lipgloss.NewStyle().Foreground(c.Theme.ToolFg).Bold(true)
	frame.WriteLine(title.Render(fmt.Sprintf("code_exec (%s)", pending.Language)))
	for _, line := range splitLines(pending.EffectiveCode()) {
		frame.WriteLine(lipgloss.NewStyle().Foreground(c.Theme.SystemFg).Render(line))
	}

	if pending.Live == nil {
		frame.WriteLine(title.Render("[y] approve  [n] deny"))
		return
	}

	stdout, stderr, exitCode, done := pending.Live.Snapshot()
	for _, line := range splitLines(stdout) {
		frame.WriteLine(lipgloss.NewStyle().Foreground(c.Theme.AssistantFg).Render(line))
	}
	for _, line := range splitLines(stderr) {
		frame.WriteLine(lipgloss.NewStyle().Foreground(c.Theme.ErrorFg).Render(line))
	}
	if done {
		frame.WriteLine(title.Render(fmt.Sprintf("exit code %d — [enter] close", exitCode)))
		return
	}
	frame.WriteLine(title.Render("running — [x] stop"))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
