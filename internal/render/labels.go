package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/llm"
)

// LabelForRole returns the display label for a role, or "" for roles
// that fold into their owner and never get their own label line (tool
// results are rendered inline under the assistant message that called
// them, matching the teacher's findToolResult folding in
// internal/render/chat/message_block.go).
func LabelForRole(role string, suffix string) string {
	var base string
	switch llm.Role(role) {
	case llm.RoleUser:
		base = "you"
	case llm.RoleAssistant:
		base = "assistant"
	case llm.RoleSystem:
		return ""
	case llm.RoleTool:
		return ""
	default:
		return ""
	}
	if suffix != "" {
		return fmt.Sprintf("%s %s", base, suffix)
	}
	return base
}

// RenderLabel paints a role label line with the theme's color for that
// role, matching the teacher's prompt-style "❯ " prefix for user
// messages (message_block.go renderUserMessage).
func RenderLabel(role, label string, theme Theme) string {
	var style lipgloss.Style
	switch llm.Role(role) {
	case llm.RoleUser:
		style = lipgloss.NewStyle().Foreground(theme.UserFg).Bold(true)
		return style.Render("❯ " + label)
	case llm.RoleAssistant:
		style = lipgloss.NewStyle().Foreground(theme.AssistantFg).Bold(true)
	default:
		style = lipgloss.NewStyle().Foreground(theme.SystemFg)
	}
	return style.Render(label)
}
