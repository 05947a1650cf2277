package cover

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

func quietFonts(opts ...FontOption) *FontManager {
	return NewFontManager(append([]FontOption{WithFontLogger(log.New(&bytes.Buffer{}))}, opts...)...)
}

func TestFontManagerFamilies(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Brand-Bold.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Broken.ttf"), []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	fm := quietFonts(WithFontDir(dir))

	tests := []struct {
		family     string
		weight     int
		wantLoaded bool
	}{
		{"sans-serif", 400, true},
		{"Go Mono", 700, true},
		{"system-ui", 600, true},
		{"Brand", 700, true},
		{"Brand", 400, false},
		{"Broken", 400, false},
		{"Inter", 400, false},
	}
	for _, tt := range tests {
		face, loaded, err := fm.Face(context.Background(), tt.family, tt.weight, 24)
		if err != nil {
			t.Fatalf("%s %d: %v", tt.family, tt.weight, err)
		}
		if loaded != tt.wantLoaded {
			t.Errorf("%s %d: loaded = %v, want %v", tt.family, tt.weight, loaded, tt.wantLoaded)
		}
		if _, ok := face.GlyphAdvance('A'); !ok {
			t.Errorf("%s %d: face has no glyph for 'A'", tt.family, tt.weight)
		}
		face.Close()
	}
}

func TestFontManagerFallbackWarns(t *testing.T) {
	var buf bytes.Buffer
	fm := NewFontManager(WithFontLogger(log.New(&buf)))
	face, loaded, err := fm.Face(context.Background(), "Missing Family", 400, 16)
	if err != nil {
		t.Fatal(err)
	}
	face.Close()
	if loaded {
		t.Error("missing family reported as loaded")
	}
	if !strings.Contains(buf.String(), "Missing Family") {
		t.Errorf("no fallback warning logged: %q", buf.String())
	}
}

func TestFontManagerCanceledContext(t *testing.T) {
	fm := quietFonts(WithFontTimeout(50 * time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	face, loaded, err := fm.Face(ctx, "Nowhere", 400, 16)
	if err != nil {
		t.Fatalf("fallback should not fail: %v", err)
	}
	face.Close()
	if loaded {
		t.Error("canceled load reported as loaded")
	}
}

func TestCandidateFiles(t *testing.T) {
	got := candidateFiles("Open Sans", 600)
	if got[0] != "Open Sans-SemiBold.ttf" {
		t.Errorf("first candidate = %q", got[0])
	}
	for _, want := range []string{"Open Sans-600.otf", "Open Sans.ttf", "OpenSans-SemiBold.ttf", "OpenSans.otf"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing candidate %q in %v", want, got)
		}
	}
}

func TestLayoutTextAlignment(t *testing.T) {
	fm := quietFonts()
	canvas := image.Rect(0, 0, 800, 200)
	base := TextOverlay{Enabled: true, Content: "Notes", Font: "sans-serif", Weight: 400, Size: 32}

	for _, tt := range []struct {
		align Align
		check func(b image.Rectangle) bool
	}{
		{AlignLeft, func(b image.Rectangle) bool { return b.Min.X == textInset }},
		{AlignRight, func(b image.Rectangle) bool { return abs(b.Max.X-(800-textInset)) <= 1 }},
		{AlignCenter, func(b image.Rectangle) bool { return abs(b.Min.X+b.Max.X-800) <= 2 }},
	} {
		o := base
		o.Align = tt.align
		run, err := layoutText(context.Background(), fm, o, canvas, 1)
		if err != nil {
			t.Fatal(err)
		}
		run.face.Close()
		if !tt.check(run.bounds) {
			t.Errorf("%s: bounds %v", tt.align, run.bounds)
		}
		if cy := (run.bounds.Min.Y + run.bounds.Max.Y) / 2; abs(cy-100) > 4 {
			t.Errorf("%s: vertical centre %d, want about 100", tt.align, cy)
		}
	}
}

func TestTrackingWidensRun(t *testing.T) {
	face, _, err := quietFonts().Face(context.Background(), "sans-serif", 400, 20)
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()

	plain := measureRun(face, "abc", 0)
	tracked := measureRun(face, "abc", fixed.I(5))
	if tracked-plain != fixed.I(10) {
		t.Errorf("tracking added %v, want 10px across two gaps", (tracked - plain).Round())
	}
}

func TestDrawTextInvisible(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for _, o := range []TextOverlay{
		{Enabled: false, Content: "hidden"},
		{Enabled: true, Content: ""},
	} {
		if err := drawText(context.Background(), dst, quietFonts(), o, 1); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range dst.Pix {
		if v != 0 {
			t.Fatal("invisible overlay drew pixels")
		}
	}
}

func TestFontManagerCachesFailures(t *testing.T) {
	var buf bytes.Buffer
	fm := NewFontManager(WithFontLogger(log.New(&buf)))
	for i := 0; i < 3; i++ {
		face, loaded, err := fm.Face(context.Background(), "Missing Family", 400, 16)
		if err != nil {
			t.Fatal(err)
		}
		face.Close()
		if loaded {
			t.Fatal("missing family reported as loaded")
		}
	}
	if n := strings.Count(buf.String(), "font unavailable"); n != 1 {
		t.Errorf("logged %d warnings, want 1: %q", n, buf.String())
	}
}

func TestFontManagerRejectsPathFamilies(t *testing.T) {
	parent := t.TempDir()
	if err := os.WriteFile(filepath.Join(parent, "Evil.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(parent, "fonts")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	fm := quietFonts(WithFontDir(dir))

	for _, family := range []string{"../Evil", "..", "sub/Evil", `sub\Evil`} {
		face, loaded, err := fm.Face(context.Background(), family, 400, 16)
		if err != nil {
			t.Fatalf("%q: %v", family, err)
		}
		face.Close()
		if loaded {
			t.Errorf("%q loaded from outside the font directory", family)
		}
	}
}
