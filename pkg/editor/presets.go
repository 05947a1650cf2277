package editor

import (
	"image"
	"math"
	"strings"

	"github.com/xob0t/GoCover/pkg/cover"
)

// Preset is a named output size.
type Preset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Presets are the Notion cover sizes. Desktop is the recommended one.
var Presets = []Preset{
	{Name: "Desktop", Width: 1500, Height: 600},
	{Name: "Tablet", Width: 1170, Height: 290},
	{Name: "Mobile", Width: 1170, Height: 445},
}

// PresetByName looks a preset up case-insensitively.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Matches reports whether out has the preset's size.
func (p Preset) Matches(out cover.OutputSettings) bool {
	return out.Width == p.Width && out.Height == p.Height
}

// Apply sets the output size to the preset.
func (p Preset) Apply(out *cover.OutputSettings) {
	out.Width = p.Width
	out.Height = p.Height
}

// SetWidth changes the width. While the height is still a stock 5:2 value
// (600 or 1200) the height follows to keep the 5:2 ratio.
// A non-positive width resets to the default.
func SetWidth(out *cover.OutputSettings, w int) {
	if w <= 0 {
		w = cover.DefaultWidth
	}
	if out.Height == 600 || out.Height == 1200 {
		out.Height = int(math.Round(float64(w) * 2 / 5))
	}
	out.Width = w
}

// SetHeight changes the height. While the width is still a stock 5:2 value
// (1500 or 3000) the width follows to keep the 5:2 ratio.
// A non-positive height resets to the default.
func SetHeight(out *cover.OutputSettings, h int) {
	if h <= 0 {
		h = cover.DefaultHeight
	}
	if out.Width == 1500 || out.Width == 3000 {
		out.Width = int(math.Round(float64(h) * 5 / 2))
	}
	out.Height = h
}

// SafeZone returns the centre 40% band of a w×h cover, the part Notion
// never crops.
func SafeZone(w, h int) image.Rectangle {
	x0 := int(math.Round(float64(w) * 0.3))
	x1 := int(math.Round(float64(w) * 0.7))
	return image.Rect(x0, 0, x1, h)
}
