package widget

import (
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/render/preheat"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

// ChatViewport renders the active tab's scrollable message history via
// the line-cursor viewport algorithm (internal/render.RenderViewport),
// and owns the scroll/follow behavior original_source's
// widgets/chat/viewport.rs implements: PageUp/PageDown/arrow keys move
// the cursor, any manual scroll turns off Follow, and Follow re-pins the
// view to the bottom once a new chunk arrives.
type ChatViewport struct {
	Model *tabs.Model
	Theme render.Theme
}

func (c *ChatViewport) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: bc.Max.Height})
}

func (c *ChatViewport) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {}

func (c *ChatViewport) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {}

func (c *ChatViewport) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	tab := c.Model.Active()
	if tab == nil {
		return EventResult{}
	}
	sel := c.selection(tab)
	total := c.totalLines(tab, rect.Width)
	maxScroll := total - rect.Height
	if maxScroll < 0 {
		maxScroll = 0
	}

	switch {
	case ev.Kind == EventMouse && ev.Mouse == MouseScrollUp && rect.Contains(ev.Col, ev.Row):
		sel.ScrollOffsetBy(-3, maxScroll)
		tab.App.Follow = false
		return EventResult{Handled: true, Dirty: true}
	case ev.Kind == EventMouse && ev.Mouse == MouseScrollDown && rect.Contains(ev.Col, ev.Row):
		sel.ScrollOffsetBy(3, maxScroll)
		tab.App.Follow = sel.Scroll >= maxScroll
		return EventResult{Handled: true, Dirty: true}
	case ev.Kind == EventKey:
		switch ev.Key {
		case "pgup":
			sel.PageUp(rect.Height)
			tab.App.Follow = false
			return EventResult{Handled: true, Dirty: true}
		case "pgdown":
			sel.PageDown(rect.Height)
			tab.App.Follow = sel.Scroll >= maxScroll
			return EventResult{Handled: true, Dirty: true}
		case "up":
			sel.MoveUp()
			tab.App.Follow = false
			return EventResult{Handled: true, Dirty: true}
		case "down":
			sel.MoveDown()
			sel.ClampWithViewport(total, rect.Height)
			tab.App.Follow = sel.Scroll >= maxScroll
			return EventResult{Handled: true, Dirty: true}
		}
	}
	return EventResult{}
}

func (c *ChatViewport) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	tab := c.Model.Active()
	if tab == nil {
		return
	}
	sel := c.selection(tab)
	total := c.totalLines(tab, rect.Width)
	sel.ClampWithViewport(total, rect.Height)
	if tab.App.Follow {
		bottom := total - rect.Height
		if bottom < 0 {
			bottom = 0
		}
		sel.Scroll = bottom
	}
	start := sel.Scroll
	end := start + rect.Height

	result := render.RenderViewport(tab.Cache, tab.App.Messages, render.ViewportOptions{
		Width:        rect.Width,
		Theme:        c.Theme,
		ThemeKey:     c.Theme.Key(),
		StreamingIdx: tab.App.PendingAssistant,
		Start:        start,
		End:          end,
	}, render.LabelForRole, render.RenderLabel, renderMessageContent, func(idx int) string {
		return tab.App.AssistantStats[idx]
	})
	for _, line := range result.Lines {
		frame.WriteLine(line)
	}
}

// renderMessageContent is the RenderMessageContentLines callback shared
// by the chat viewport and the Jump overlay's line counter: plain
// word-wrap for user messages (matching the teacher's renderUserMessage),
// Markdown for everything else, plus one inline-image line per
// llm.PartImage part (e.g. a code_exec result that wrote a plot to the
// workspace).
func renderMessageContent(msg chatmodel.Message, width int, theme render.Theme, streaming bool) []string {
	var lines []string
	if msg.Role == llm.RoleUser {
		lines = render.Lines(render.RenderPlainWrapped(msg.TextContent(), width))
	} else {
		lines = render.Lines(render.RenderMarkdown(msg.TextContent(), width, theme))
	}
	for _, p := range msg.Parts {
		if p.Type == llm.PartImage && p.ImagePath != "" {
			lines = append(lines, render.RenderImageLine(p.ImagePath))
		}
	}
	return lines
}

// PreheatRenderFunc adapts renderMessageContent into a preheat.RenderFunc,
// eagerly producing a fully rendered CacheEntry for an inactive tab's
// message (spec.md §4.2). Off-screen rendering also happens in
// render.RenderViewport, which renders every entry whose LineCount is 0
// when its walk reaches it.
func PreheatRenderFunc(theme render.Theme) preheat.RenderFunc {
	return func(msg chatmodel.Message, width int, th render.Theme, streaming bool) render.CacheEntry {
		var entry render.CacheEntry
		render.Update(&entry, msg, width, th.Key(), streaming)
		lines := renderMessageContent(msg, width, th, streaming)
		entry.Lines = lines
		entry.LineCount = len(lines)
		entry.Rendered = true
		return entry
	}
}

// totalLines walks the viewport with an empty visible window, the same
// cursor walk internal/view.BuildJumpRows does. A rendered entry costs
// only its cached LineCount; an entry whose LineCount is 0 is rendered
// by the walk.
func (c *ChatViewport) totalLines(tab *tabs.Tab, width int) int {
	result := render.RenderViewport(tab.Cache, tab.App.Messages, render.ViewportOptions{
		Width:        width,
		Theme:        c.Theme,
		ThemeKey:     c.Theme.Key(),
		StreamingIdx: tab.App.PendingAssistant,
	}, render.LabelForRole, render.RenderLabel, renderMessageContent, nil)
	return result.LineCursor
}

// selection lazily installs tab's scroll cursor the first time it is
// needed (chatmodel.NewApp leaves Scroll nil to avoid an import cycle
// back onto internal/view).
func (c *ChatViewport) selection(tab *tabs.Tab) *view.SelectionState {
	if tab.App.Scroll == nil {
		tab.App.Scroll = &view.SelectionState{}
	}
	return tab.App.Scroll.(*view.SelectionState)
}
