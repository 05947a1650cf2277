// color.go - Hex colour parsing and conversion.
package cover

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses "#rrggbb" or "#rgb" into an opaque colour.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimSpace(s)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected #rgb or #rrggbb", s)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// ParseHexRGBA converts a hex string to color.NRGBA.
// Returns white on any parse error (safe default for rendering).
func ParseHexRGBA(hex string) color.NRGBA {
	c, err := ParseColor(hex)
	if err != nil {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return c
}

// Hex formats the RGB channels of c as "#rrggbb".
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
