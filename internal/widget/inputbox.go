package widget

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
)

// InputBox renders the active tab's input buffer and tracks the send
// request flag (App.PendingSend) the runtime's caller drains into a
// StartSend call. Grounded on the teacher's input component in
// internal/tui (fixed-height, word-wrapped, cursor glyph appended when
// focused).
type InputBox struct {
	Model  *tabs.Model
	Theme  render.Theme
	Height int // fixed row count reserved for the input
}

func (b *InputBox) Measure(ctx *LayoutCtx, bc Constraints) Size {
	h := b.Height
	if h == 0 {
		h = 3
	}
	return bc.Constrain(Size{Width: bc.Max.Width, Height: h})
}

func (b *InputBox) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {}

func (b *InputBox) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {}

func (b *InputBox) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	tab := b.Model.Active()
	if tab == nil || tab.App.Focus != chatmodel.FocusInput {
		return EventResult{}
	}
	switch ev.Kind {
	case EventMouse:
		if ev.Mouse == MouseDown && rect.Contains(ev.Col, ev.Row) {
			return EventResult{Handled: true}
		}
		return EventResult{}
	case EventPaste:
		tab.App.InputValue += ev.Paste
		return EventResult{Handled: true, Dirty: true}
	case EventKey:
		switch ev.Key {
		case "backspace":
			if n := len(tab.App.InputValue); n > 0 {
				tab.App.InputValue = tab.App.InputValue[:n-1]
			}
			return EventResult{Handled: true, Dirty: true}
		case "enter":
			line := tab.App.InputValue
			if line == "" {
				return EventResult{Handled: true, Dirty: true}
			}
			if strings.HasPrefix(line, "/") {
				if cmd := parseSlashCommand(line, b.Model); cmd != nil {
					tab.App.PendingCmd = cmd
				} else {
					tab.App.Messages = append(tab.App.Messages, chatmodel.Message{
						Role:      llm.RoleAssistant,
						Parts:     []llm.Part{{Type: llm.PartText, Text: "未知命令：" + line}},
						CreatedAt: time.Now(),
					})
				}
				tab.App.InputValue = ""
				return EventResult{Handled: true, Dirty: true}
			}
			tab.App.PendingSend = true
			return EventResult{Handled: true, Dirty: true}
		default:
			if len([]rune(ev.Key)) == 1 {
				tab.App.InputValue += ev.Key
				return EventResult{Handled: true, Dirty: true}
			}
		}
	}
	return EventResult{}
}

// parseSlashCommand maps an input line starting with "/" to a
// chatmodel.PendingCommand, grounded on original_source's
// ui/commands/command_input.rs::handle_command_line dispatch table.
// Returns nil for an unrecognized command.
func parseSlashCommand(line string, model *tabs.Model) chatmodel.PendingCommand {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/save":
		return chatmodel.SessionCommand{Action: "save"}
	case "/open":
		if arg == "" {
			return nil
		}
		return chatmodel.SessionCommand{Action: "open", Path: arg}
	case "/new":
		return chatmodel.TabCommand{Action: "new_tab"}
	case "/category":
		return chatmodel.TabCommand{Action: "new_category", Category: arg}
	case "/close":
		return chatmodel.TabCommand{Action: "close_tab", Index: model.ActiveIdx}
	}
	return nil
}

func (b *InputBox) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	tab := b.Model.Active()
	if tab == nil {
		return
	}
	style := lipgloss.NewStyle().Foreground(b.Theme.UserFg)
	if tab.App.Busy {
		style = lipgloss.NewStyle().Foreground(b.Theme.SystemFg)
	}
	content := tab.App.InputValue
	if tab.App.Focus == chatmodel.FocusInput {
		content += "█"
	}
	for _, line := range render.Lines(render.RenderPlainWrapped(content, rect.Width)) {
		frame.WriteLine(style.Render(line))
	}
}
