package view

import (
	"strings"

	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/mattn/go-runewidth"
)

// JumpRow is one selectable row in the Jump overlay: a message index,
// its role label, a collapsed one-line preview, and the absolute
// viewport line it starts at (used to scroll the chat there on select).
// Ported from original_source's ui/jump.rs::JumpRow.
type JumpRow struct {
	Index   int
	Role    string
	Preview string
	Scroll  int
}

// LineCounter returns the number of rendered lines a message occupies
// at the given width, consulting the render cache when possible so
// BuildJumpRows never forces an uncached re-render. Implemented by
// internal/render.Cache.
type LineCounter func(idx int, width int, streaming bool) int

// LabelForRole returns the label line text for a role, or "" if the role
// has no label (e.g. tool-result messages are folded into their owning
// assistant message and never get their own jump row).
type LabelForRole func(role string) string

// BuildJumpRows mirrors original_source's build_jump_rows: for every
// labeled message, track line_cursor across label + content + spacing
// lines exactly as the render cache does, and emit one row with a
// collapsed, width-truncated preview.
func BuildJumpRows(messages []chatmodel.Message, width, maxPreviewWidth int, streamingIdx int, label LabelForRole, lines LineCounter) []JumpRow {
	var rows []JumpRow
	cursor := 0
	for idx, msg := range messages {
		role := label(string(msg.Role))
		if role == "" {
			continue
		}
		start := cursor
		cursor++ // label line
		streaming := idx == streamingIdx
		cursor += lines(idx, width, streaming)
		cursor++ // spacing line
		rows = append(rows, JumpRow{
			Index:   idx + 1,
			Role:    role,
			Preview: truncateToWidth(collapseText(msg.TextContent()), maxPreviewWidth),
			Scroll:  start,
		})
	}
	return rows
}

// JumpVisibleRows mirrors jump_visible_rows: header + border overhead.
func JumpVisibleRows(areaHeight int) int {
	v := areaHeight - 2 - 1
	if v < 0 {
		return 0
	}
	return v
}

// MaxPreviewWidth mirrors max_preview_width: leave room for the index
// and role columns.
func MaxPreviewWidth(areaWidth int) int {
	inner := areaWidth - 2
	if inner < 0 {
		inner = 0
	}
	w := inner - 20
	if w < 10 {
		w = 10
	}
	return w
}

func collapseText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateToWidth(text string, maxWidth int) string {
	if maxWidth == 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	const ellipsis = "..."
	limit := maxWidth - runewidth.StringWidth(ellipsis)
	var b strings.Builder
	width := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if width+w > limit {
			break
		}
		b.WriteRune(r)
		width += w
	}
	b.WriteString(ellipsis)
	return b.String()
}
