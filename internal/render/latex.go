package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// latexSpan is one block of LaTeX pulled out of the Markdown source
// before handing it to glamour, and the placeholder token that stands
// in its place. glamour's Markdown reflow does not understand LaTeX
// delimiters and will happily wrap/escape them into nonsense, so
// SPEC_FULL protects them the way original_source's
// render/markdown/latex/*.rs does: extract, let glamour render the rest,
// then restore the original LaTeX text unchanged.
type latexSpan struct {
	placeholder string
	original    string
}

var latexBlockPattern = regexp.MustCompile(`(?s)\$\$.*?\$\$|\\\[.*?\\\]`)

// ExtractLatex walks a goldmark AST to confirm each regex match sits
// outside a fenced code block (LaTeX syntax inside ```code``` is
// literal text, not math, and must not be touched), then replaces each
// surviving match with a placeholder token glamour will pass through
// untouched.
func ExtractLatex(markdown string) (string, []latexSpan) {
	matches := latexBlockPattern.FindAllStringIndex(markdown, -1)
	if len(matches) == 0 {
		return markdown, nil
	}

	codeRanges := fencedCodeRanges(markdown)

	var spans []latexSpan
	out := markdown
	// Replace back-to-front so earlier byte offsets stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		if insideAny(codeRanges, start) {
			continue
		}
		original := markdown[start:end]
		token := fmt.Sprintf("\x00LATEX%d\x00", len(spans))
		spans = append(spans, latexSpan{placeholder: token, original: original})
		out = out[:start] + token + out[end:]
	}

	traceLatex(markdown, spans)
	return out, spans
}

// RestoreLatex substitutes each placeholder back with its original
// LaTeX text after glamour has rendered everything around it.
func RestoreLatex(rendered string, spans []latexSpan) string {
	for _, s := range spans {
		rendered = regexp.MustCompile(regexp.QuoteMeta(s.placeholder)).ReplaceAllString(rendered, s.original)
	}
	return rendered
}

// fencedCodeRanges returns the byte ranges of every fenced/indented code
// block goldmark finds in markdown, via a single AST walk.
func fencedCodeRanges(markdown string) [][2]int {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	var ranges [][2]int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			if lines.Len() == 0 {
				return ast.WalkContinue, nil
			}
			first := lines.At(0)
			last := lines.At(lines.Len() - 1)
			ranges = append(ranges, [2]int{first.Start, last.Stop})
		}
		return ast.WalkContinue, nil
	})
	return ranges
}

func insideAny(ranges [][2]int, pos int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// traceLatex writes the extracted spans to DEEPCHAT_TEX_TRACE_DIR when
// set, for debugging LaTeX extraction regressions — grounded on
// original_source's render/markdown/latex/trace.rs.
func traceLatex(markdown string, spans []latexSpan) {
	dir := os.Getenv("DEEPCHAT_TEX_TRACE_DIR")
	if dir == "" || len(spans) == 0 {
		return
	}
	name := fmt.Sprintf("latex-%d.txt", time.Now().UnixNano())
	var body string
	for _, s := range spans {
		body += s.original + "\n---\n"
	}
	_ = os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644)
}
