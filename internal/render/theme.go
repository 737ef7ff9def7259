package render

import "github.com/charmbracelet/lipgloss"

// Theme bundles the styling a render pass needs: role-label colors, the
// glamour style name, and the chroma syntax-highlight style, all keyed
// together so a theme switch invalidates every cache entry at once via
// ThemeKey (spec.md §3 CacheEntry.theme).
type Theme struct {
	Name         string
	GlamourStyle string // "dark", "light", "notty", ...
	ChromaStyle  string // a chroma style registry name, e.g. "monokai"
	UserFg       lipgloss.Color
	AssistantFg  lipgloss.Color
	SystemFg     lipgloss.Color
	ToolFg       lipgloss.Color
	ErrorFg      lipgloss.Color
}

// DarkTheme is the default theme, grounded on the teacher's
// ui.DefaultStyles() palette.
func DarkTheme() Theme {
	return Theme{
		Name:         "dark",
		GlamourStyle: "dark",
		ChromaStyle:  "monokai",
		UserFg:       lipgloss.Color("75"),
		AssistantFg:  lipgloss.Color("252"),
		SystemFg:     lipgloss.Color("243"),
		ToolFg:       lipgloss.Color("214"),
		ErrorFg:      lipgloss.Color("203"),
	}
}

// LightTheme is the light-terminal counterpart.
func LightTheme() Theme {
	t := DarkTheme()
	t.Name = "light"
	t.GlamourStyle = "light"
	t.ChromaStyle = "github"
	return t
}

// Key returns the cache-invalidating identity of a theme: every field
// that affects rendered output folded into one hash.
func (t Theme) Key() uint64 {
	return HashText(t.Name + "|" + t.GlamourStyle + "|" + t.ChromaStyle)
}
