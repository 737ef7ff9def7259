package render

import (
	"github.com/alecthomas/chroma/v2/styles"
)

// ChromaStyleFor resolves a theme's chroma style name to a registered
// style, falling back to "monokai" if the name is unknown. glamour
// already shells out to chroma for fenced-code highlighting; this
// function exists so SPEC_FULL's theme switch (light/dark) can pick a
// readable chroma style per background instead of always using
// glamour's built-in default.
func ChromaStyleFor(name string) string {
	if styles.Get(name) != styles.Fallback {
		return name
	}
	return "monokai"
}
