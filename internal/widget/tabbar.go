package widget

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
)

// busyLabel prefixes a busy tab's label with its spinner's current
// frame (internal/runtime.Loop.RunFrame advances it on the 100ms busy
// tick), grounded on the teacher's own spinner.New/spinner.Dot/View
// usage in internal/tui/chat/chat.go.
func busyLabel(i int, t *tabs.Tab) string {
	if !t.App.Busy {
		return tabLabel(i, t)
	}
	return fmt.Sprintf(" %d:%s %s ", i+1, tabTitle(t), t.App.BusySpinner.View())
}

// TabBar renders the single-row strip of open tabs, highlighting the
// active one, grounded on original_source's widgets/tabs.rs header strip.
// Clicking a tab's label switches to it directly (no category grouping
// in the strip itself — NextCategory/PrevCategory stay keyboard-only,
// matching original_source).
type TabBar struct {
	Model *tabs.Model
	Theme render.Theme
}

func (b *TabBar) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: 1})
}

func (b *TabBar) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {}

func (b *TabBar) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {}

func (b *TabBar) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	if ev.Kind != EventMouse || ev.Mouse != MouseDown || !rect.Contains(ev.Col, ev.Row) {
		return EventResult{}
	}
	if idx, ok := b.tabAt(ev.Col - rect.Col); ok {
		b.Model.ActiveIdx = idx
		return EventResult{Handled: true, Dirty: true}
	}
	return EventResult{}
}

func (b *TabBar) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	var line string
	for i, t := range b.Model.Tabs {
		label := busyLabel(i, t)
		style := lipgloss.NewStyle().Foreground(b.Theme.SystemFg)
		if i == b.Model.ActiveIdx {
			style = lipgloss.NewStyle().Foreground(b.Theme.UserFg).Bold(true).Underline(true)
		}
		line += style.Render(label)
	}
	frame.WriteLine(line)
}

// tabAt reports which tab's label contains column col (relative to the
// bar's own rect), recomputing the same offsets Render used rather than
// caching them, since the tab list can change between frames.
func (b *TabBar) tabAt(col int) (int, bool) {
	cursor := 0
	for i, t := range b.Model.Tabs {
		w := lipgloss.Width(busyLabel(i, t))
		if col >= cursor && col < cursor+w {
			return i, true
		}
		cursor += w
	}
	return 0, false
}

func tabLabel(i int, t *tabs.Tab) string {
	return fmt.Sprintf(" %d:%s ", i+1, tabTitle(t))
}

// tabTitle derives a short tab title from its first user message,
// matching the teacher's session-title derivation (first line, truncated).
func tabTitle(t *tabs.Tab) string {
	for _, m := range t.App.Messages {
		if m.Role != "user" {
			continue
		}
		text := m.TextContent()
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		if text == "" {
			continue
		}
		const max = 16
		if len(text) > max {
			return text[:max] + "…"
		}
		return text
	}
	return "new"
}
