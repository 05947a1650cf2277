// palette.go - Dominant colour extraction from a quantised histogram.
package cover

import (
	"image"
	"image/color"
	"iter"
	"sort"

	"github.com/disintegration/imaging"
)

// Sampling parameters.
const (
	DefaultPaletteSize = 8
	sampleMaxSide      = 200
	quantizeMask       = 0xf0 // 16 levels per channel
	alphaCutoff        = 128
)

// Palette is the result of colour extraction.
type Palette struct {
	Colors    []string `json:"colors"` // most frequent first
	Brightest string   `json:"brightest"`
	Darkest   string   `json:"darkest"`
}

// DominantColors yields up to n of the most frequent quantised colours of img
// as "#rrggbb", most frequent first. The histogram is built on first iteration.
func DominantColors(img image.Image, n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if img == nil {
			return
		}
		for _, c := range histogram(img, n) {
			if !yield(Hex(c)) {
				return
			}
		}
	}
}

// ExtractPalette computes the dominant colours of img and derives the
// brightest and darkest swatches among them.
func ExtractPalette(img image.Image, n int) (Palette, error) {
	if img == nil {
		return Palette{}, ErrNoImage
	}
	if n <= 0 {
		n = DefaultPaletteSize
	}

	var colors []string
	for c := range DominantColors(img, n) {
		colors = append(colors, c)
	}
	brightest, darkest := BrightestAndDarkest(colors)
	return Palette{Colors: colors, Brightest: brightest, Darkest: darkest}, nil
}

// BrightestAndDarkest picks the swatches with the highest and lowest mean
// channel value. An empty list yields white and black; a single colour is
// both the brightest and the darkest.
func BrightestAndDarkest(colors []string) (brightest, darkest string) {
	if len(colors) == 0 {
		return "#ffffff", "#000000"
	}

	brightest, darkest = colors[0], colors[0]
	maxB, minB := -1.0, 256.0
	for _, hex := range colors {
		c, err := ParseColor(hex)
		if err != nil {
			continue
		}
		b := (float64(c.R) + float64(c.G) + float64(c.B)) / 3
		if b > maxB {
			maxB, brightest = b, hex
		}
		if b < minB {
			minB, darkest = b, hex
		}
	}
	return brightest, darkest
}

// SuggestGradient returns a brightest→darkest gradient from a palette.
func SuggestGradient(p Palette) Background {
	return Gradient(p.Brightest, p.Darkest, 135)
}

type bucket struct {
	color color.NRGBA
	count int
}

// histogram downsamples img, quantises it and returns the top n colours.
// Ties keep first-encountered order.
func histogram(img image.Image, n int) []color.NRGBA {
	if n <= 0 {
		n = DefaultPaletteSize
	}
	b := img.Bounds()
	w, h := min(b.Dx(), sampleMaxSide), min(b.Dy(), sampleMaxSide)
	if w <= 0 || h <= 0 {
		return nil
	}
	small := imaging.Resize(img, w, h, imaging.Linear)

	index := make(map[uint32]int)
	var buckets []bucket
	pix := small.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] < alphaCutoff {
			continue
		}
		r, g, bl := pix[i]&quantizeMask, pix[i+1]&quantizeMask, pix[i+2]&quantizeMask
		key := uint32(r)<<16 | uint32(g)<<8 | uint32(bl)
		if j, ok := index[key]; ok {
			buckets[j].count++
			continue
		}
		index[key] = len(buckets)
		buckets = append(buckets, bucket{color: color.NRGBA{R: r, G: g, B: bl, A: 255}, count: 1})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].count > buckets[j].count
	})

	out := make([]color.NRGBA, 0, min(n, len(buckets)))
	for _, bk := range buckets[:min(n, len(buckets))] {
		out = append(out, bk.color)
	}
	return out
}
