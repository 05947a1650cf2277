// text.go - Single-line text overlay with tracking, alignment and drop shadow.
package cover

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Fixed overlay parameters, in output px.
const (
	textInset     = 40
	shadowBlur    = 10 // canvas shadowBlur; Gaussian sigma is half of it
	shadowOffsetX = 2
	shadowOffsetY = 2
)

var shadowColor = color.NRGBA{A: 128}

// textRun is a laid-out line: where the baseline starts and the box it covers.
type textRun struct {
	content  string
	face     font.Face
	origin   fixed.Point26_6
	tracking fixed.Int26_6
	bounds   image.Rectangle
}

// layoutText measures t on a canvas of the given bounds and positions it at
// the vertical centre, anchored by t.Align. The caller closes run.face.
func layoutText(ctx context.Context, fm *FontManager, t TextOverlay, canvas image.Rectangle, pxScale float64) (*textRun, error) {
	content := norm.NFC.String(t.Content)
	face, _, err := fm.Face(ctx, t.Font, t.Weight, t.Size*pxScale)
	if err != nil {
		return nil, err
	}

	tracking := fixed.Int26_6(math.Round(t.Tracking * pxScale * 64))
	width := measureRun(face, content, tracking)

	w, h := canvas.Dx(), canvas.Dy()
	inset := fixed.I(int(math.Round(textInset * pxScale)))
	var x fixed.Int26_6
	switch t.Align {
	case AlignLeft:
		x = inset
	case AlignRight:
		x = fixed.I(w) - inset - width
	default:
		x = (fixed.I(w) - width) / 2
	}

	m := face.Metrics()
	baseline := fixed.I(h)/2 + (m.Ascent-m.Descent)/2
	origin := fixed.Point26_6{X: fixed.I(canvas.Min.X) + x, Y: fixed.I(canvas.Min.Y) + baseline}

	bounds := image.Rect(
		origin.X.Floor(), (origin.Y - m.Ascent).Floor(),
		(origin.X + width).Ceil(), (origin.Y + m.Descent).Ceil(),
	)
	return &textRun{content: content, face: face, origin: origin, tracking: tracking, bounds: bounds}, nil
}

// drawText renders the overlay onto dst. Invisible overlays draw nothing.
func drawText(ctx context.Context, dst *image.RGBA, fm *FontManager, t TextOverlay, pxScale float64) error {
	if !t.Visible() {
		return nil
	}
	run, err := layoutText(ctx, fm, t, dst.Bounds(), pxScale)
	if err != nil {
		return err
	}
	defer run.face.Close()

	if t.Shadow {
		drawShadow(dst, run, pxScale)
	}
	drawRun(dst, run, run.origin, image.NewUniform(ParseHexRGBA(t.Color)))
	return nil
}

// drawShadow draws a blurred, offset copy of the run in a scratch layer sized
// to the text box plus the blur margin, then composites it under the text.
func drawShadow(dst *image.RGBA, run *textRun, pxScale float64) {
	sigma := shadowBlur / 2 * pxScale
	off := image.Pt(int(math.Round(shadowOffsetX*pxScale)), int(math.Round(shadowOffsetY*pxScale)))
	pad := int(math.Ceil(3 * sigma))

	area := run.bounds.Add(off).Inset(-pad)
	layer := image.NewNRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	shift := fixed.P(off.X-area.Min.X, off.Y-area.Min.Y)
	drawRun(layer, run, run.origin.Add(shift), image.NewUniform(shadowColor))

	blurred := imaging.Blur(layer, sigma)
	draw.Draw(dst, area, blurred, image.Point{}, draw.Over)
}

// drawRun draws the run glyph by glyph starting at origin, adding kerning and
// tracking between glyphs.
func drawRun(dst draw.Image, run *textRun, origin fixed.Point26_6, src image.Image) {
	dot := origin
	prev := rune(-1)
	for _, r := range run.content {
		if prev >= 0 {
			dot.X += run.face.Kern(prev, r) + run.tracking
		}
		dr, mask, maskp, advance, ok := run.face.Glyph(dot, r)
		if ok {
			draw.DrawMask(dst, dr, src, image.Point{}, mask, maskp, draw.Over)
		}
		dot.X += advance
		prev = r
	}
}

// measureRun returns the advance width of s including kerning and tracking.
func measureRun(face font.Face, s string, tracking fixed.Int26_6) fixed.Int26_6 {
	var width fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			width += face.Kern(prev, r) + tracking
		}
		if a, ok := face.GlyphAdvance(r); ok {
			width += a
		}
		prev = r
	}
	return width
}
