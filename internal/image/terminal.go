// Package image renders a tool-produced image file inline in the
// terminal, auto-detecting the host terminal's graphics protocol.
// Adapted from the teacher's internal/image/terminal.go, trimmed to the
// one-shot RenderImageToWriter path that package already falls back to
// for Kitty (rasterm.KittyWriteImage directly) rather than porting its
// full Unicode-placeholder/upload-caching protocol, since nothing in
// this tree needs the placeholder-vs-upload split that exists to let
// bubbletea cache a Kitty image separately from its terminal escape.
package image

import (
	goimage "image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Capability is the terminal graphics protocol RenderImageToWriter picked.
type Capability int

const (
	CapNone Capability = iota
	CapKitty
	CapITerm
	CapSixel
)

// DetectCapability mirrors the teacher's env-var sniffing order: Kitty
// markers first, then iTerm2/WezTerm/Ghostty, then a Sixel-capable TERM.
func DetectCapability() Capability {
	if os.Getenv("KITTY_WINDOW_ID") != "" || strings.Contains(os.Getenv("TERM"), "kitty") {
		return CapKitty
	}
	termProgram := os.Getenv("TERM_PROGRAM")
	switch termProgram {
	case "iTerm.app", "WezTerm":
		return CapITerm
	case "ghostty":
		return CapKitty
	}
	if os.Getenv("LC_TERMINAL") == "iTerm2" {
		return CapITerm
	}
	term := os.Getenv("TERM")
	if strings.Contains(term, "sixel") || strings.Contains(term, "mlterm") {
		return CapSixel
	}
	return CapNone
}

// maxDisplayWidth caps decoded images at a pixel width before handing
// them to rasterm, same bound the teacher uses.
const maxDisplayWidth = 800

// RenderImageToString renders the image at path for the detected
// terminal capability, or "" (no error) when the terminal has no known
// image protocol. The caller (internal/render.RenderImageLine) falls
// back to a plain "[Image: path]" placeholder in that case.
func RenderImageToString(path string) (string, error) {
	if DetectCapability() == CapNone {
		return "", nil
	}
	var buf strings.Builder
	if err := RenderImageToWriter(&buf, path); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderImageToWriter decodes the image at path and writes the
// capability-appropriate terminal escape sequence to w. A no-op when
// the terminal has no known image protocol.
func RenderImageToWriter(w io.Writer, path string) error {
	cap := DetectCapability()
	if cap == CapNone {
		return nil
	}
	img, err := loadImage(path)
	if err != nil {
		return err
	}
	img = scaleImageIfNeeded(img, maxDisplayWidth)
	switch cap {
	case CapKitty:
		return rasterm.KittyWriteImage(w, img, rasterm.KittyImgOpts{})
	case CapITerm:
		return rasterm.ItermWriteImage(w, img)
	case CapSixel:
		return rasterm.SixelWriteImage(w, convertToPaletted(img))
	default:
		return nil
	}
}

func loadImage(path string) (goimage.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := goimage.Decode(f)
	return img, err
}

func scaleImageIfNeeded(img goimage.Image, maxWidth int) goimage.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxWidth {
		return img
	}
	newWidth := maxWidth
	newHeight := (height * maxWidth) / width
	dst := goimage.NewRGBA(goimage.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// convertToPaletted builds a fixed 6x6x6 color cube plus 40 grays (256
// entries) for Sixel output, same palette the teacher generates.
func convertToPaletted(img goimage.Image) *goimage.Paletted {
	bounds := img.Bounds()
	palette := make(color.Palette, 256)
	idx := 0
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				palette[idx] = color.RGBA{R: uint8(r * 51), G: uint8(g * 51), B: uint8(b * 51), A: 255}
				idx++
			}
		}
	}
	for i := 0; i < 40; i++ {
		gray := uint8(i * 255 / 39)
		palette[idx] = color.RGBA{R: gray, G: gray, B: gray, A: 255}
		idx++
	}
	paletted := goimage.NewPaletted(bounds, palette)
	draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)
	return paletted
}
