// background.go - Solid, gradient and blurred-source canvas fills.
package cover

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
)

// blurWorkingSigma caps the sigma the Gaussian kernel runs at. Larger radii are
// blurred on a downscaled copy and scaled back up.
const blurWorkingSigma = 4.0

// drawBackground fills dst according to bg. src is the orientation-corrected
// source image (used by blur only); pxScale converts output px to canvas px.
func drawBackground(dst *image.RGBA, bg Background, src image.Image, pxScale float64) error {
	switch bg.Type {
	case BackgroundSolid:
		fillSolid(dst, ParseHexRGBA(bg.Color))
		return nil
	case BackgroundGradient:
		fillGradient(dst, ParseHexRGBA(bg.Color1), ParseHexRGBA(bg.Color2), bg.Angle)
		return nil
	case BackgroundBlur:
		if src == nil {
			return fmt.Errorf("blur background: %w", ErrNoImage)
		}
		fillBlur(dst, src, bg.Radius*pxScale, bg.Scale)
		return nil
	default:
		return fmt.Errorf("%w: unknown background type %q", ErrInvalidRequest, bg.Type)
	}
}

// fillSolid paints the whole canvas with one colour.
func fillSolid(dst *image.RGBA, c color.NRGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// fillGradient paints a two-stop linear gradient. The gradient line passes
// through the canvas centre at angle degrees and spans the canvas diagonal, so
// every pixel projects inside [0,1] whatever the angle.
func fillGradient(dst *image.RGBA, c1, c2 color.NRGBA, angle float64) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cx, cy := w/2, h/2
	length := math.Hypot(w, h)

	rad := angle * math.Pi / 180
	dx, dy := length*math.Cos(rad), length*math.Sin(rad)
	brush := gg.NewLinearGradientBrush(cx-dx/2, cy-dy/2, cx+dx/2, cy+dy/2).
		AddColorStop(0, gg.FromColor(c1)).
		AddColorStop(1, gg.FromColor(c2))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		py := float64(y-b.Min.Y) + 0.5
		row := dst.Pix[dst.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			c := brush.ColorAt(float64(x)+0.5, py)
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = channel(c.R), channel(c.G), channel(c.B), 255
		}
	}
}

// channel rounds a [0,1] component to 8 bits.
func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// fillBlur stretches the whole of src over a working canvas scale times the
// size of dst, blurs it there and draws it back down over dst. A larger scale
// therefore softens the blur relative to the output.
func fillBlur(dst *image.RGBA, src image.Image, sigma, scale float64) {
	b := dst.Bounds()
	if scale <= 0 {
		scale = 1
	}
	cw := max(1, int(math.Round(float64(b.Dx())*scale)))
	ch := max(1, int(math.Round(float64(b.Dy())*scale)))

	var blurred *image.NRGBA
	if sigma <= blurWorkingSigma {
		blurred = imaging.Resize(src, cw, ch, imaging.Lanczos)
		if sigma > 0 {
			blurred = imaging.Blur(blurred, sigma)
		}
	} else {
		k := sigma / blurWorkingSigma
		sw := max(1, int(math.Round(float64(cw)/k)))
		sh := max(1, int(math.Round(float64(ch)/k)))
		small := imaging.Resize(src, sw, sh, imaging.Lanczos)
		blurred = imaging.Blur(small, blurWorkingSigma)
	}
	if blurred.Bounds().Dx() != b.Dx() || blurred.Bounds().Dy() != b.Dy() {
		blurred = imaging.Resize(blurred, b.Dx(), b.Dy(), imaging.Linear)
	}

	draw.Draw(dst, b, blurred, image.Point{}, draw.Over)
}
