package render

import (
	"github.com/deepchat/deepchat/internal/chatmodel"
)

// MessageLayout records where a message's label line landed in the
// rendered viewport, for hit-testing (clicking a role label, or the
// Jump overlay mapping a row back to a scroll offset). Ported from
// original_source's render module's MessageLayout.
type MessageLayout struct {
	Index      int
	LabelLine  int
	ButtonFrom int
	ButtonTo   int
}

// ViewportOptions configures one RenderViewport pass.
type ViewportOptions struct {
	Width        int
	Theme        Theme
	ThemeKey     uint64
	StreamingIdx int // -1 if nothing is streaming
	Start, End   int // visible absolute-line window [Start,End)
}

// ViewportResult is the output of one viewport render pass.
type ViewportResult struct {
	Lines      []string
	LineCursor int
	Layouts    []MessageLayout
}

// RenderMessageContentLines renders a message's body (no label, no
// spacing) to styled lines at the given width/theme/streaming-bit. This
// is the one "heavy" operation the viewport renderer must avoid calling
// for off-screen messages.
type RenderMessageContentLines func(msg chatmodel.Message, width int, theme Theme, streaming bool) []string

// LabelLineFor returns the label text for a message's role, or "" if the
// role gets no label line (e.g. a tool message folded into its owner).
type LabelLineFor func(role string, suffix string) string

// RenderLabelLine paints a styled label line (with any clickable button
// range) for a message.
type RenderLabelLine func(role, label string, theme Theme) string

// RenderViewport implements the line-cursor viewport algorithm from
// original_source's render/cache/viewport.rs::ViewportState exactly:
// walk messages in order tracking an absolute line_cursor, and call
// renderContent for an entry that is not already rendered when the
// message's line range overlaps [opts.Start, opts.End) or when its
// LineCount is 0; otherwise advance the cursor using the cached
// LineCount alone. A fresh or invalidated entry has LineCount 0, so
// every unrendered entry is rendered on the pass that reaches it, on
// screen or not; only entries already rendered are skipped cheaply.
func RenderViewport(
	cache *Cache,
	messages []chatmodel.Message,
	opts ViewportOptions,
	labelFor LabelLineFor,
	renderLabel RenderLabelLine,
	renderContent RenderMessageContentLines,
	suffixFor func(idx int) string,
) ViewportResult {
	cache.ApplyShift()

	var out []string
	var layouts []MessageLayout
	cursor := 0

	for idx, msg := range messages {
		entry := cache.Ensure(idx)
		streaming := opts.StreamingIdx == idx
		Update(entry, msg, opts.Width, opts.ThemeKey, streaming)

		suffix := ""
		if suffixFor != nil {
			suffix = suffixFor(idx)
		}
		label := labelFor(string(msg.Role), suffix)
		if label == "" {
			continue
		}

		// push_label
		labelLine := cursor
		layouts = append(layouts, MessageLayout{Index: idx, LabelLine: labelLine})
		if cursor >= opts.Start && cursor < opts.End {
			out = append(out, renderLabel(string(msg.Role), label, opts.Theme))
		}
		cursor++

		// maybe_render_entry
		if !entry.Rendered {
			if rangesOverlap(opts.Start, opts.End, cursor, cursor+entry.LineCount) || entry.LineCount == 0 {
				lines := renderContent(msg, opts.Width, opts.Theme, streaming)
				entry.Lines = lines
				entry.Rendered = true
				entry.LineCount = len(lines)
			}
		}

		// push_content_lines
		contentLen := entry.LineCount
		if contentLen > 0 {
			if cursor+contentLen <= opts.Start || cursor >= opts.End {
				cursor += contentLen
			} else if entry.Rendered {
				for _, line := range entry.Lines {
					if cursor >= opts.Start && cursor < opts.End {
						out = append(out, line)
					}
					cursor++
				}
			} else {
				cursor += contentLen
			}
		}

		// push_spacing
		if cursor >= opts.Start && cursor < opts.End {
			out = append(out, "")
		}
		cursor++
	}

	return ViewportResult{Lines: out, LineCursor: cursor, Layouts: layouts}
}

// rangesOverlap reports whether [aStart,aEnd) and [bStart,bEnd) overlap.
func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// CountLines returns a message's cached line count, first rendering the
// message into its cache entry if that entry is not rendered — the
// operation the Jump overlay's BuildJumpRows needs (internal/view.LineCounter).
func CountLines(cache *Cache, idx int, msg chatmodel.Message, width int, themeKey uint64, streaming bool, renderContent RenderMessageContentLines) int {
	entry := cache.Ensure(idx)
	Update(entry, msg, width, themeKey, streaming)
	if !entry.Rendered {
		lines := renderContent(msg, width, Theme{}, streaming)
		entry.Lines = lines
		entry.Rendered = true
		entry.LineCount = len(lines)
	}
	return entry.LineCount
}
