// Package cover renders cover images from a single source raster, a background,
// an optional text line and output settings.
package cover

// ── Layout ──

// Mode selects how the source image is placed on the canvas.
type Mode string

const (
	ModeFill Mode = "fill" // cover the canvas, cropping as needed
	ModeFit  Mode = "fit"  // keep the whole image visible
	ModeTile Mode = "tile" // repeat a scaled copy across the canvas
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeFill, ModeFit, ModeTile:
		return true
	}
	return false
}

// ── Background ──

// BackgroundType tags the active background variant.
type BackgroundType string

const (
	BackgroundSolid    BackgroundType = "solid"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundBlur     BackgroundType = "blur"
)

// Background defines the canvas fill. Only the fields of the active Type are used.
type Background struct {
	Type BackgroundType `json:"type" toml:"type"`

	// solid
	Color string `json:"color,omitempty" toml:"color,omitempty"` // "#rrggbb"

	// gradient
	Color1 string  `json:"color1,omitempty" toml:"color1,omitempty"`
	Color2 string  `json:"color2,omitempty" toml:"color2,omitempty"`
	Angle  float64 `json:"angle,omitempty" toml:"angle,omitempty"` // degrees, 0 = +x axis

	// blur
	Radius float64 `json:"radius,omitempty" toml:"radius,omitempty"` // output px
	Scale  float64 `json:"scale,omitempty" toml:"scale,omitempty"`   // relative to canvas
}

// Solid returns a solid background.
func Solid(color string) Background {
	return Background{Type: BackgroundSolid, Color: color}
}

// Gradient returns a two-stop linear gradient background.
func Gradient(color1, color2 string, angle float64) Background {
	return Background{Type: BackgroundGradient, Color1: color1, Color2: color2, Angle: angle}
}

// Blur returns a blurred-source background.
func Blur(radius, scale float64) Background {
	return Background{Type: BackgroundBlur, Radius: radius, Scale: scale}
}

// Normalized returns a copy holding only the fields of the active variant.
func (b Background) Normalized() Background {
	switch b.Type {
	case BackgroundSolid:
		return Solid(b.Color)
	case BackgroundGradient:
		return Gradient(b.Color1, b.Color2, b.Angle)
	case BackgroundBlur:
		return Blur(b.Radius, b.Scale)
	}
	return Background{Type: b.Type}
}

// ── Transform ──

// Offset is a translation in output pixels.
type Offset struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Transform is the per-layer placement state. Rotation is ignored in tile mode.
type Transform struct {
	Offset   Offset  `json:"offset" toml:"offset"`
	Scale    float64 `json:"scale" toml:"scale"`       // 0.1–4.0
	Rotation float64 `json:"rotation" toml:"rotation"` // degrees, -180–180
}

// Transform bounds enforced by Validate.
const (
	MinScale    = 0.1
	MaxScale    = 4.0
	MaxRotation = 180.0
)

// IdentityTransform is the default placement: centred, unscaled, unrotated.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// ── Text ──

// Align is the horizontal anchor of the text overlay.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// TextOverlay is a single line of styled text drawn at the vertical centre.
type TextOverlay struct {
	Enabled  bool    `json:"enabled" toml:"enabled"`
	Content  string  `json:"content" toml:"content"`
	Font     string  `json:"font" toml:"font"`         // family name
	Weight   int     `json:"weight" toml:"weight"`     // 100–900
	Size     float64 `json:"size" toml:"size"`         // output px
	Tracking float64 `json:"tracking" toml:"tracking"` // output px between glyphs
	Shadow   bool    `json:"shadow" toml:"shadow"`
	Align    Align   `json:"align" toml:"align"`
	Color    string  `json:"color" toml:"color"`
}

// Visible reports whether the overlay draws anything.
func (t TextOverlay) Visible() bool {
	return t.Enabled && t.Content != ""
}

// ── Output ──

// Format is the encoded output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// OutputSettings defines the final pixel dimensions and encoding.
type OutputSettings struct {
	Width   int     `json:"width" toml:"width"`
	Height  int     `json:"height" toml:"height"`
	Format  Format  `json:"format" toml:"format"`
	Quality float64 `json:"quality" toml:"quality"` // 0–1, JPEG only
}

// ── Request ──

// RenderRequest is an immutable snapshot of everything one render pass needs.
type RenderRequest struct {
	Image      *RasterImage   `json:"-" toml:"-"`
	Mode       Mode           `json:"mode" toml:"mode"`
	Background Background     `json:"background" toml:"background"`
	Transform  Transform      `json:"transform" toml:"transform"` // fill/fit layer
	Tile       Transform      `json:"tile" toml:"tile"`           // tile layer
	Text       TextOverlay    `json:"text" toml:"text"`
	Output     OutputSettings `json:"output" toml:"output"`
}

// ── Defaults ──

// Default editor values.
const (
	DefaultWidth   = 1500
	DefaultHeight  = 600
	DefaultQuality = 0.9
	DefaultFont    = "Inter"
)

// DefaultBackground is the background of a fresh editor.
func DefaultBackground() Background {
	return Solid("#ffffff")
}

// DefaultOutput is the Notion desktop cover size as PNG.
func DefaultOutput() OutputSettings {
	return OutputSettings{
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Format:  FormatPNG,
		Quality: DefaultQuality,
	}
}

// DefaultText is a disabled centred white overlay.
func DefaultText() TextOverlay {
	return TextOverlay{
		Font:   DefaultFont,
		Weight: 400,
		Size:   48,
		Align:  AlignCenter,
		Color:  "#ffffff",
	}
}

// DefaultRequest returns a request with editor defaults and no image.
func DefaultRequest() RenderRequest {
	return RenderRequest{
		Mode:       ModeFill,
		Background: DefaultBackground(),
		Transform:  IdentityTransform(),
		Tile:       IdentityTransform(),
		Text:       DefaultText(),
		Output:     DefaultOutput(),
	}
}
