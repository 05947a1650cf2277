// renderer.go - Render orchestration for cover images.
// Renders at Supersample× the output size in layers (background -> image ->
// text), then downsamples into a canvas of the exact output dimensions.
package cover

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/charmbracelet/log"
	xdraw "golang.org/x/image/draw"
)

// Supersample is the working-resolution factor of every render.
const Supersample = 2

// Renderer handles image composition from render requests. Each Render call
// allocates its own canvases, so a Renderer may be shared between goroutines.
type Renderer struct {
	fontManager *FontManager
	logger      *log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFontManager sets the font source for text overlays.
func WithFontManager(fm *FontManager) Option {
	return func(r *Renderer) {
		if fm != nil {
			r.fontManager = fm
		}
	}
}

// WithLogger sets the logger for non-fatal render warnings.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer creates a new cover renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.fontManager == nil {
		r.fontManager = NewFontManager(WithFontLogger(r.logger))
	}
	return r
}

// Fonts returns the renderer's font manager.
func (r *Renderer) Fonts() *FontManager {
	return r.fontManager
}

// Render creates the final image for req. It follows a layered approach:
// 1. Fills a Supersample× working canvas with the background
// 2. Corrects the source orientation and composites it per req.Mode
// 3. Draws the text overlay when enabled
// 4. Downsamples the working canvas to Output.Width × Output.Height.
//
// Without a ready image it returns ErrNoImage and draws nothing.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) (*image.RGBA, error) {
	if !req.Image.Ready() {
		return nil, ErrNoImage
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	out := req.Output
	work := image.NewRGBA(image.Rect(0, 0, out.Width*Supersample, out.Height*Supersample))
	src := req.Image.Oriented()

	// Background
	if err := drawBackground(work, req.Background, src, Supersample); err != nil {
		if !errors.Is(err, ErrNoImage) {
			return nil, fmt.Errorf("background: %w", err)
		}
		r.logger.Warn("background skipped", "err", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Image layer
	t := req.Transform
	if req.Mode == ModeTile {
		t = req.Tile
	}
	drawImageLayer(work, src, req.Mode, t, Supersample)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Text overlay
	if err := drawText(ctx, work, r.fontManager, req.Text, Supersample); err != nil {
		r.logger.Warn("text overlay skipped", "err", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return downsample(work, out.Width, out.Height), nil
}

// downsample scales src into a new w×h canvas with Catmull-Rom resampling.
func downsample(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
