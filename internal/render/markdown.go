package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/muesli/reflow/wordwrap"
)

// rendererCache caches glamour term renderers by (width, theme key) —
// a direct generalization of the teacher's internal/ui.getRenderer,
// which only keyed by width; SPEC_FULL adds the theme key so switching
// between dark/light styles doesn't reuse a stale renderer.
var rendererCache sync.Map // map[rendererCacheKey]*glamour.TermRenderer

type rendererCacheKey struct {
	width int
	theme uint64
}

func getRenderer(width int, theme Theme) (*glamour.TermRenderer, error) {
	key := rendererCacheKey{width: width, theme: theme.Key()}
	if cached, ok := rendererCache.Load(key); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	var style ansi.StyleConfig
	switch theme.GlamourStyle {
	case "light":
		style = glamour.LightStyleConfig
	case "notty":
		style = glamour.NoTTYStyleConfig
	default:
		style = glamour.DarkStyleConfig
	}
	margin := uint(0)
	style.Document.Margin = &margin
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	style.CodeBlock.Margin = &margin
	if theme.ChromaStyle != "" {
		theCopy := theme.ChromaStyle
		style.CodeBlock.Chroma.Style = &theCopy
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	rendererCache.Store(key, renderer)
	return renderer, nil
}

// RenderMarkdown renders Markdown content (Fenced code gets chroma
// syntax highlighting via glamour's default code formatter; LaTeX
// blocks are protected from glamour's Markdown reflow beforehand by
// ExtractLatex). On error it falls back to the raw content, matching
// the teacher's RenderMarkdown fallback behavior.
func RenderMarkdown(content string, width int, theme Theme) string {
	if content == "" {
		return ""
	}
	protected, spans := ExtractLatex(content)
	renderer, err := getRenderer(width, theme)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(protected)
	if err != nil {
		return content
	}
	rendered = strings.TrimSpace(rendered)
	return RestoreLatex(rendered, spans)
}

// RenderPlainWrapped word-wraps plain (non-Markdown) text, the path the
// teacher uses for user messages (message_block.go renderUserMessage).
func RenderPlainWrapped(content string, width int) string {
	return wordwrap.String(content, width)
}

// Lines splits rendered output on newlines the way every render-cache
// consumer expects (no trailing empty line for a string ending in \n).
func Lines(rendered string) []string {
	if rendered == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}
