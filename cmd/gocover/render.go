package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/editor"
	"github.com/xob0t/GoCover/pkg/generator"
)

// renderOpts holds the render flags. Flags override the request file only
// when given on the command line.
type renderOpts struct {
	input       string
	output      string
	request     string
	preset      string
	mode        string
	bg          string
	color       string
	color1      string
	color2      string
	angle       float64
	blurRadius  float64
	blurScale   float64
	offsetX     float64
	offsetY     float64
	scale       float64
	rotation    float64
	tileScale   float64
	tileX       float64
	tileY       float64
	text        string
	font        string
	weight      int
	size        float64
	tracking    float64
	shadow      bool
	align       string
	textColor   string
	width       int
	height      int
	quality     float64
	fontDir     string
	fontTimeout time.Duration
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a cover image",
		Example: `  gocover render -i photo.jpg -o cover.png
  gocover render -i photo.jpg -o cover.jpg --mode fit --bg gradient --color1 "#fde68a" --color2 "#1e3a8a"
  gocover render -i logo.png -o cover.png --mode tile --tile-scale 0.5 --text "Reading List" --shadow
  gocover render -i photo.jpg -o cover.png --request cover.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "source image (JPEG, PNG, GIF, WebP, BMP, TIFF)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (.png, .jpg or .jpeg)")
	f.StringVar(&opts.request, "request", "", "render request file (.toml or .json)")
	f.StringVar(&opts.preset, "preset", "", "size preset: desktop, tablet or mobile")
	f.StringVar(&opts.mode, "mode", string(cover.ModeFill), "layout: fill, fit or tile")

	f.StringVar(&opts.bg, "bg", string(cover.BackgroundSolid), "background: solid, gradient or blur")
	f.StringVar(&opts.color, "color", "#ffffff", "solid background colour")
	f.StringVar(&opts.color1, "color1", "#ffffff", "gradient start colour")
	f.StringVar(&opts.color2, "color2", "#000000", "gradient end colour")
	f.Float64Var(&opts.angle, "angle", 0, "gradient angle in degrees")
	f.Float64Var(&opts.blurRadius, "blur-radius", 20, "blur radius in px")
	f.Float64Var(&opts.blurScale, "blur-scale", 1, "blur background scale")

	f.Float64Var(&opts.offsetX, "offset-x", 0, "image offset x in px")
	f.Float64Var(&opts.offsetY, "offset-y", 0, "image offset y in px")
	f.Float64Var(&opts.scale, "scale", 1, "image scale (0.1-4)")
	f.Float64Var(&opts.rotation, "rotation", 0, "image rotation in degrees (-180-180)")
	f.Float64Var(&opts.tileScale, "tile-scale", 1, "tile scale (0.1-4)")
	f.Float64Var(&opts.tileX, "tile-x", 0, "tile offset x in px")
	f.Float64Var(&opts.tileY, "tile-y", 0, "tile offset y in px")

	f.StringVar(&opts.text, "text", "", "overlay text; enables the overlay")
	f.StringVar(&opts.font, "font", cover.DefaultFont, "font family")
	f.IntVar(&opts.weight, "weight", 400, "font weight (100-900)")
	f.Float64Var(&opts.size, "size", 48, "font size in px")
	f.Float64Var(&opts.tracking, "tracking", 0, "letter spacing in px")
	f.BoolVar(&opts.shadow, "shadow", false, "draw a drop shadow under the text")
	f.StringVar(&opts.align, "align", string(cover.AlignCenter), "text alignment: left, center or right")
	f.StringVar(&opts.textColor, "text-color", "#ffffff", "text colour")

	f.IntVarP(&opts.width, "width", "W", cover.DefaultWidth, "output width in px")
	f.IntVarP(&opts.height, "height", "H", cover.DefaultHeight, "output height in px")
	f.Float64Var(&opts.quality, "quality", cover.DefaultQuality, "JPEG quality (0-1)")
	f.StringVar(&opts.fontDir, "font-dir", "", "directory with <Family>-<Weight>.ttf files")
	f.DurationVar(&opts.fontTimeout, "font-timeout", cover.DefaultFontTimeout, "wait for a font before falling back")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runRender(cmd *cobra.Command, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	req, err := buildRequest(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	img, err := cover.LoadRaster(f, cover.RasterOptions{Source: opts.input})
	f.Close()
	if err != nil {
		return err
	}
	defer img.Release()
	req.Image = img
	logger.Debug("image loaded", "path", opts.input, "size", fmt.Sprintf("%dx%d", img.Width(), img.Height()), "orientation", img.Orientation)

	fonts := cover.NewFontManager(
		cover.WithFontDir(opts.fontDir),
		cover.WithFontTimeout(opts.fontTimeout),
		cover.WithFontLogger(logger),
	)
	renderer := cover.NewRenderer(cover.WithFontManager(fonts), cover.WithLogger(logger))

	out, err := renderer.Render(ctx, req)
	if err != nil {
		return err
	}
	if err := generator.WriteFile(opts.output, out, req.Output); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %s %s", opts.output, styleDim.Render(generator.Filename(req.Mode, req.Output))))
	return nil
}

// buildRequest loads the request file, if any, and applies the flags that
// were set explicitly. The output format follows the output extension.
func buildRequest(flags *pflag.FlagSet, opts renderOpts) (cover.RenderRequest, error) {
	req := cover.DefaultRequest()
	if opts.request != "" {
		loaded, err := cover.LoadRequest(opts.request)
		if err != nil {
			return req, err
		}
		req = *loaded
	}
	set := flags.Changed

	if set("mode") {
		req.Mode = cover.Mode(opts.mode)
	}

	// Background
	switch {
	case set("bg"):
		switch cover.BackgroundType(opts.bg) {
		case cover.BackgroundSolid:
			req.Background = cover.Solid(opts.color)
		case cover.BackgroundGradient:
			req.Background = cover.Gradient(opts.color1, opts.color2, opts.angle)
		case cover.BackgroundBlur:
			req.Background = cover.Blur(opts.blurRadius, opts.blurScale)
		default:
			return req, fmt.Errorf("%w: unknown background %q: use solid, gradient or blur", cover.ErrInvalidRequest, opts.bg)
		}
	default:
		bg := &req.Background
		if set("color") {
			bg.Color = opts.color
		}
		if set("color1") {
			bg.Color1 = opts.color1
		}
		if set("color2") {
			bg.Color2 = opts.color2
		}
		if set("angle") {
			bg.Angle = opts.angle
		}
		if set("blur-radius") {
			bg.Radius = opts.blurRadius
		}
		if set("blur-scale") {
			bg.Scale = opts.blurScale
		}
	}

	// Placement
	if set("offset-x") {
		req.Transform.Offset.X = opts.offsetX
	}
	if set("offset-y") {
		req.Transform.Offset.Y = opts.offsetY
	}
	if set("scale") {
		req.Transform.Scale = opts.scale
	}
	if set("rotation") {
		req.Transform.Rotation = opts.rotation
	}
	if set("tile-scale") {
		req.Tile.Scale = opts.tileScale
	}
	if set("tile-x") {
		req.Tile.Offset.X = opts.tileX
	}
	if set("tile-y") {
		req.Tile.Offset.Y = opts.tileY
	}

	// Text
	t := &req.Text
	if set("text") {
		t.Enabled = opts.text != ""
		t.Content = opts.text
	}
	if set("font") {
		t.Font = opts.font
	}
	if set("weight") {
		t.Weight = opts.weight
	}
	if set("size") {
		t.Size = opts.size
	}
	if set("tracking") {
		t.Tracking = opts.tracking
	}
	if set("shadow") {
		t.Shadow = opts.shadow
	}
	if set("align") {
		t.Align = cover.Align(opts.align)
	}
	if set("text-color") {
		t.Color = opts.textColor
	}

	// Output
	if opts.preset != "" {
		p, ok := editor.PresetByName(opts.preset)
		if !ok {
			return req, fmt.Errorf("%w: unknown preset %q: use desktop, tablet or mobile", cover.ErrInvalidRequest, opts.preset)
		}
		p.Apply(&req.Output)
	}
	if set("width") {
		req.Output.Width = opts.width
	}
	if set("height") {
		req.Output.Height = opts.height
	}
	if set("quality") {
		req.Output.Quality = opts.quality
	}
	format, err := generator.FormatFromPath(opts.output)
	if err != nil {
		return req, err
	}
	req.Output.Format = format

	cover.ApplyDefaults(&req)
	return req, nil
}
