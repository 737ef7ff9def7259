package render

import (
	imageterm "github.com/deepchat/deepchat/internal/image"
)

// RenderImageLine renders a tool-produced image inline via terminal
// graphics escapes (Kitty/iTerm2/Sixel, auto-detected) using the
// teacher's internal/image package, falling back to a plain placeholder
// line when the terminal lacks graphics support or the file can't be
// decoded.
func RenderImageLine(path string) string {
	out, err := imageterm.RenderImageToString(path)
	if err != nil || out == "" {
		return "[Image: " + path + "]"
	}
	return out
}
