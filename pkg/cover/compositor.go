// compositor.go - Places the source image on the canvas in fill, fit or tile mode.
package cover

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// drawImageLayer composites src onto dst. Offsets in t are output px and are
// multiplied by pxScale. A nil src draws nothing.
func drawImageLayer(dst *image.RGBA, src image.Image, mode Mode, t Transform, pxScale float64) {
	if src == nil || src.Bounds().Empty() {
		return
	}
	switch mode {
	case ModeFill, ModeFit:
		m := placement(src.Bounds(), dst.Bounds(), mode, t, pxScale)
		xdraw.CatmullRom.Transform(dst, m, src, src.Bounds(), xdraw.Over, nil)
	case ModeTile:
		drawTiles(dst, PatternTile(src, t.Scale), t.Offset, pxScale)
	}
}

// placement returns the source-to-canvas matrix for fill and fit. The image
// is sized to cover (fill) or be contained by (fit) the canvas, multiplied by
// the user scale, centred, shifted by the unclamped offset, and finally
// rotated about the canvas centre.
func placement(sr, dr image.Rectangle, mode Mode, t Transform, pxScale float64) f64.Aff3 {
	sw, sh := float64(sr.Dx()), float64(sr.Dy())
	w, h := float64(dr.Dx()), float64(dr.Dy())

	base := math.Max(w/sw, h/sh)
	if mode == ModeFit {
		base = math.Min(w/sw, h/sh)
	}
	s := base * t.Scale
	drawW, drawH := sw*s, sh*s

	x0 := float64(dr.Min.X) + (w-drawW)/2 + t.Offset.X*pxScale
	y0 := float64(dr.Min.Y) + (h-drawH)/2 + t.Offset.Y*pxScale

	m := gg.Translate(x0, y0).
		Multiply(gg.Scale(s, s)).
		Multiply(gg.Translate(-float64(sr.Min.X), -float64(sr.Min.Y)))
	if t.Rotation != 0 {
		cx := float64(dr.Min.X) + w/2
		cy := float64(dr.Min.Y) + h/2
		// Clockwise on a y-down canvas.
		m = gg.Translate(cx, cy).
			Multiply(gg.Rotate(t.Rotation * math.Pi / 180)).
			Multiply(gg.Translate(-cx, -cy)).
			Multiply(m)
	}
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// PatternTile resamples src to round(size × scale) in each axis.
func PatternTile(src image.Image, scale float64) *image.NRGBA {
	b := src.Bounds()
	if scale <= 0 {
		scale = 1
	}
	tw := max(1, int(math.Round(float64(b.Dx())*scale)))
	th := max(1, int(math.Round(float64(b.Dy())*scale)))
	return imaging.Resize(src, tw, th, imaging.Lanczos)
}

// drawTiles repeats tile over dst. A positive offset moves the pattern in
// the positive direction: the tile origin lands on (offset mod tile size).
func drawTiles(dst *image.RGBA, tile *image.NRGBA, off Offset, pxScale float64) {
	b := dst.Bounds()
	tw, th := tile.Bounds().Dx(), tile.Bounds().Dy()
	if tw == 0 || th == 0 {
		return
	}

	x0 := b.Min.X + phase(off.X*pxScale, tw)
	y0 := b.Min.Y + phase(off.Y*pxScale, th)
	for y := y0; y < b.Max.Y; y += th {
		for x := x0; x < b.Max.X; x += tw {
			r := image.Rect(x, y, x+tw, y+th)
			draw.Draw(dst, r, tile, image.Point{}, draw.Over)
		}
	}
}

// phase maps an offset onto (-size, 0] so tiling starts at or before the edge.
func phase(offset float64, size int) int {
	p := int(math.Round(offset)) % size
	if p > 0 {
		p -= size
	}
	return p
}
