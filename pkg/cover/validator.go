// validator.go - Fill defaults into and validate render requests.
package cover

import (
	"errors"
	"fmt"
	"math"
)

// Bounds accepted by Validate.
const (
	MinDimension = 1
	MaxDimension = 10000

	MinBlurRadius = 5.0
	MaxBlurRadius = 100.0
	MinBlurScale  = 1.0
	MaxBlurScale  = 3.0

	MinTextSize = 12.0
	MaxTextSize = 200.0
	MinTracking = -5.0
	MaxTracking = 20.0
)

// ApplyDefaults sets sane fallbacks for zero-valued request fields.
// Quality is left alone: zero is a legal JPEG quality, so callers that
// decode partial input start from DefaultRequest instead.
func ApplyDefaults(req *RenderRequest) {
	if req.Mode == "" {
		req.Mode = ModeFill
	}
	if req.Background.Type == "" {
		req.Background = DefaultBackground()
	}
	if req.Transform.Scale == 0 {
		req.Transform.Scale = 1
	}
	if req.Tile.Scale == 0 {
		req.Tile.Scale = 1
	}

	o := &req.Output
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Format == "" {
		o.Format = FormatPNG
	}

	t := &req.Text
	if t.Font == "" {
		t.Font = DefaultFont
	}
	if t.Weight <= 0 {
		t.Weight = 400
	}
	if t.Size <= 0 {
		t.Size = 48
	}
	if t.Align == "" {
		t.Align = AlignCenter
	}
	if t.Color == "" {
		t.Color = "#ffffff"
	}
}

// Validate checks a request for values the pipeline cannot render.
// All problems are reported together, each wrapping ErrInvalidRequest.
func Validate(req RenderRequest) error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidRequest}, args...)...))
	}

	if !req.Mode.Valid() {
		bad("unknown mode %q", req.Mode)
	}

	bg := req.Background
	switch bg.Type {
	case BackgroundSolid:
		if _, err := ParseColor(bg.Color); err != nil {
			bad("background color: %v", err)
		}
	case BackgroundGradient:
		if _, err := ParseColor(bg.Color1); err != nil {
			bad("gradient color1: %v", err)
		}
		if _, err := ParseColor(bg.Color2); err != nil {
			bad("gradient color2: %v", err)
		}
		if bg.Angle < 0 || bg.Angle >= 360 || math.IsNaN(bg.Angle) {
			bad("gradient angle %v outside [0,360)", bg.Angle)
		}
	case BackgroundBlur:
		if !inRange(bg.Radius, MinBlurRadius, MaxBlurRadius) {
			bad("blur radius %v outside [%v,%v]", bg.Radius, MinBlurRadius, MaxBlurRadius)
		}
		if !inRange(bg.Scale, MinBlurScale, MaxBlurScale) {
			bad("blur scale %v outside [%v,%v]", bg.Scale, MinBlurScale, MaxBlurScale)
		}
	default:
		bad("unknown background type %q", bg.Type)
	}

	checkTransform := func(name string, t Transform) {
		if t.Scale < MinScale || t.Scale > MaxScale {
			bad("%s scale %v outside [%v,%v]", name, t.Scale, MinScale, MaxScale)
		}
		if math.Abs(t.Rotation) > MaxRotation {
			bad("%s rotation %v outside [-180,180]", name, t.Rotation)
		}
	}
	checkTransform("image", req.Transform)
	checkTransform("tile", req.Tile)

	o := req.Output
	if o.Width < MinDimension || o.Width > MaxDimension {
		bad("output width %d outside [%d,%d]", o.Width, MinDimension, MaxDimension)
	}
	if o.Height < MinDimension || o.Height > MaxDimension {
		bad("output height %d outside [%d,%d]", o.Height, MinDimension, MaxDimension)
	}
	if o.Format != FormatPNG && o.Format != FormatJPEG {
		bad("unknown output format %q", o.Format)
	}
	if o.Quality < 0 || o.Quality > 1 {
		bad("quality %v outside [0,1]", o.Quality)
	}

	if req.Text.Visible() {
		t := req.Text
		switch t.Align {
		case AlignLeft, AlignCenter, AlignRight:
		default:
			bad("unknown text align %q", t.Align)
		}
		if !inRange(t.Size, MinTextSize, MaxTextSize) {
			bad("text size %v outside [%v,%v]", t.Size, MinTextSize, MaxTextSize)
		}
		if !inRange(t.Tracking, MinTracking, MaxTracking) {
			bad("text tracking %v outside [%v,%v]", t.Tracking, MinTracking, MaxTracking)
		}
		if t.Weight < 100 || t.Weight > 900 {
			bad("text weight %d outside [100,900]", t.Weight)
		}
		if _, err := ParseColor(t.Color); err != nil {
			bad("text color: %v", err)
		}
	}

	return errors.Join(errs...)
}

// inRange is false for NaN.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
