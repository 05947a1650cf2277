// Package generator encodes rendered covers as PNG or JPEG.
//
// All output follows a unified pipeline: render an image.Image first, then
// encode it in the format chosen by the output settings.
package generator

import (
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/xob0t/GoCover/pkg/cover"
)

// Encode writes img to w in the format of out. Quality (0–1) applies to JPEG only.
func Encode(w io.Writer, img image.Image, out cover.OutputSettings) error {
	switch out.Format {
	case cover.FormatPNG, "":
		if err := imaging.Encode(w, img, imaging.PNG); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
		return nil
	case cover.FormatJPEG:
		if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality(out.Quality))); err != nil {
			return fmt.Errorf("encode JPEG: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use png or jpeg", out.Format)
	}
}

// JPEGQuality maps a 0–1 quality onto the encoder's 1–100 scale.
func JPEGQuality(q float64) int {
	return max(1, min(100, int(math.Round(q*100))))
}

// FormatFromPath infers the output format from a file extension.
func FormatFromPath(path string) (cover.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return cover.FormatPNG, nil
	case ".jpg", ".jpeg":
		return cover.FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use .png, .jpg or .jpeg", ext)
	}
}

// ContentType returns the MIME type of a format.
func ContentType(f cover.Format) string {
	if f == cover.FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Filename returns the download name for a cover, e.g. "notion-cover_fill_1500x600.png".
func Filename(mode cover.Mode, out cover.OutputSettings) string {
	format := out.Format
	if format == "" {
		format = cover.FormatPNG
	}
	return fmt.Sprintf("notion-cover_%s_%dx%d.%s", mode, out.Width, out.Height, format)
}
