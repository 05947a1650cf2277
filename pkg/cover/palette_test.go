package cover

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractPaletteFlatColour(t *testing.T) {
	p, err := ExtractPalette(solidImage(64, 48, color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}), 8)
	if err != nil {
		t.Fatal(err)
	}
	want := Palette{Colors: []string{"#306090"}, Brightest: "#306090", Darkest: "#306090"}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("palette mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPaletteOrdersByFrequency(t *testing.T) {
	img := solidImage(20, 20, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	for y := 0; y < 20; y++ {
		for x := 15; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 0xff})
		}
	}

	p, err := ExtractPalette(img, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := Palette{Colors: []string{"#f0f0f0", "#000000"}, Brightest: "#f0f0f0", Darkest: "#000000"}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("palette mismatch (-want +got):\n%s", diff)
	}
	if g := SuggestGradient(p); g.Color1 != "#f0f0f0" || g.Color2 != "#000000" {
		t.Errorf("suggested gradient %+v", g)
	}
}

func TestExtractPaletteSkipsTransparent(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{R: 0xff, A: 0x20})
	p, err := ExtractPalette(img, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Colors) != 0 {
		t.Errorf("colours = %v, want none", p.Colors)
	}
	if p.Brightest != "#ffffff" || p.Darkest != "#000000" {
		t.Errorf("brightest/darkest = %s/%s, want white/black", p.Brightest, p.Darkest)
	}
}

func TestExtractPaletteNoImage(t *testing.T) {
	if _, err := ExtractPalette(nil, 8); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}

func TestDominantColorsLimitAndEarlyStop(t *testing.T) {
	// Twelve distinct quantised greys in a 12×1 strip.
	img := image.NewNRGBA(image.Rect(0, 0, 12, 1))
	for x := 0; x < 12; x++ {
		v := uint8(x * 0x10)
		img.SetNRGBA(x, 0, color.NRGBA{R: v, G: v, B: v, A: 0xff})
	}

	var all []string
	for c := range DominantColors(img, 5) {
		all = append(all, c)
	}
	if len(all) != 5 {
		t.Fatalf("got %d colours, want 5", len(all))
	}
	if all[0] != "#000000" || all[4] != "#404040" {
		t.Errorf("tie order not first-encountered: %v", all)
	}

	n := 0
	for range DominantColors(img, 8) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iteration did not stop early")
	}
}

func TestBrightestAndDarkest(t *testing.T) {
	tests := []struct {
		name         string
		colors       []string
		bright, dark string
	}{
		{"empty", nil, "#ffffff", "#000000"},
		{"single", []string{"#306090"}, "#306090", "#306090"},
		{"mixed", []string{"#306090", "#f0e000", "#101010"}, "#f0e000", "#101010"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, d := BrightestAndDarkest(tt.colors)
			if b != tt.bright || d != tt.dark {
				t.Errorf("got %s/%s, want %s/%s", b, d, tt.bright, tt.dark)
			}
		})
	}
}
