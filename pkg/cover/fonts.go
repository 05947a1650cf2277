// fonts.go - Font management with a family/weight registry and embedded fallback.
// Uses golang.org/x/image/font for OpenType rendering. Families are resolved from
// an optional font directory first, then from the embedded Go fonts. Any family
// that cannot be loaded in time falls back to the embedded sans-serif face.
package cover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFontTimeout bounds how long a render waits for a font to load.
const DefaultFontTimeout = 2 * time.Second

// errFontNotFound marks a family that no source provides.
var errFontNotFound = errors.New("font not found")

// weightNames maps CSS weights to the suffixes used in font file names.
var weightNames = map[int]string{
	100: "Thin",
	200: "ExtraLight",
	300: "Light",
	400: "Regular",
	500: "Medium",
	600: "SemiBold",
	700: "Bold",
	800: "ExtraBold",
	900: "Black",
}

// embedded holds the built-in faces by generic family, keyed by weight.
var embedded = map[string]map[int][]byte{
	"sans-serif": {400: goregular.TTF, 500: gomedium.TTF, 700: gobold.TTF},
	"monospace":  {400: gomono.TTF, 700: gomonobold.TTF},
}

// genericAliases maps family names onto embedded generic families.
var genericAliases = map[string]string{
	"sans-serif": "sans-serif",
	"system-ui":  "sans-serif",
	"go":         "sans-serif",
	"go sans":    "sans-serif",
	"monospace":  "monospace",
	"go mono":    "monospace",
}

type fontKey struct {
	family string
	weight int
}

// FontManager handles font loading with fallback. It is safe for concurrent use.
type FontManager struct {
	dir     string
	timeout time.Duration
	logger  *log.Logger

	mu     sync.Mutex
	parsed map[fontKey]*opentype.Font
	failed map[fontKey]error // families that will not load; fallback is used directly
}

// FontOption configures a FontManager.
type FontOption func(*FontManager)

// WithFontDir adds a directory searched for <Family>-<Weight>.ttf files.
func WithFontDir(dir string) FontOption {
	return func(fm *FontManager) { fm.dir = dir }
}

// WithFontTimeout sets the bounded wait for a font load.
func WithFontTimeout(d time.Duration) FontOption {
	return func(fm *FontManager) {
		if d > 0 {
			fm.timeout = d
		}
	}
}

// WithFontLogger sets the logger used for fallback warnings.
func WithFontLogger(l *log.Logger) FontOption {
	return func(fm *FontManager) {
		if l != nil {
			fm.logger = l
		}
	}
}

// NewFontManager creates a font manager. Without options only the embedded
// Go fonts are available.
func NewFontManager(opts ...FontOption) *FontManager {
	fm := &FontManager{
		timeout: DefaultFontTimeout,
		logger:  log.Default(),
		parsed:  make(map[fontKey]*opentype.Font),
		failed:  make(map[fontKey]error),
	}
	for _, opt := range opts {
		opt(fm)
	}
	return fm
}

// Face returns a face for family at weight and size (px). loaded is false when
// the family could not be confirmed in time and the sans-serif fallback is used.
func (fm *FontManager) Face(ctx context.Context, family string, weight int, size float64) (face font.Face, loaded bool, err error) {
	f, known, err := fm.ensure(ctx, family, weight)
	loaded = err == nil
	if err != nil {
		if known {
			fm.logger.Debug("font unavailable, using sans-serif", "family", family, "weight", weight)
		} else {
			fm.logger.Warn("font unavailable, using sans-serif", "family", family, "weight", weight, "err", err)
		}
		f, err = fm.fallback(weight)
		if err != nil {
			return nil, false, err
		}
	}

	face, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, loaded, nil
}

// ensure returns the parsed font for family/weight, loading it with a
// bounded wait on first use. known is true when the outcome came from the
// cache. A load that outlives the wait still records its result.
func (fm *FontManager) ensure(ctx context.Context, family string, weight int) (f *opentype.Font, known bool, err error) {
	key := fontKey{family: strings.ToLower(strings.TrimSpace(family)), weight: weight}

	fm.mu.Lock()
	f, ok := fm.parsed[key]
	failErr, failed := fm.failed[key]
	fm.mu.Unlock()
	if ok {
		return f, true, nil
	}
	if failed {
		return nil, true, failErr
	}

	ctx, cancel := context.WithTimeout(ctx, fm.timeout)
	defer cancel()

	type result struct {
		f   *opentype.Font
		err error
	}
	done := make(chan result, 1)
	go func() {
		f, err := fm.load(family, weight)
		fm.mu.Lock()
		if err != nil {
			fm.failed[key] = err
		} else {
			fm.parsed[key] = f
		}
		fm.mu.Unlock()
		done <- result{f, err}
	}()

	select {
	case r := <-done:
		return r.f, false, r.err
	case <-ctx.Done():
		return nil, false, fmt.Errorf("load %q: %w", family, ctx.Err())
	}
}

// load resolves family/weight from the font directory, then the embedded set.
func (fm *FontManager) load(family string, weight int) (*opentype.Font, error) {
	if !safeFamily(family) {
		return nil, fmt.Errorf("%w: invalid family name %q", errFontNotFound, family)
	}
	if fm.dir != "" {
		for _, name := range candidateFiles(family, weight) {
			data, err := os.ReadFile(filepath.Join(fm.dir, name))
			if err != nil {
				continue
			}
			f, err := opentype.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
			}
			return f, nil
		}
	}

	if generic, ok := genericAliases[strings.ToLower(strings.TrimSpace(family))]; ok {
		return parseEmbedded(generic, weight)
	}
	return nil, fmt.Errorf("%w: %q", errFontNotFound, family)
}

// fallback returns the embedded sans-serif font nearest to weight.
func (fm *FontManager) fallback(weight int) (*opentype.Font, error) {
	key := fontKey{family: "sans-serif", weight: weight}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if f, ok := fm.parsed[key]; ok {
		return f, nil
	}
	f, err := parseEmbedded("sans-serif", weight)
	if err != nil {
		return nil, err
	}
	fm.parsed[key] = f
	return f, nil
}

func parseEmbedded(generic string, weight int) (*opentype.Font, error) {
	faces := embedded[generic]
	best, bestDist := 0, 1<<30
	for w := range faces {
		d := abs(w - weight)
		if d < bestDist || (d == bestDist && w < best) {
			best, bestDist = w, d
		}
	}
	f, err := opentype.Parse(faces[best])
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return f, nil
}

// candidateFiles lists file names tried for family/weight, most specific first:
// "Inter-SemiBold.ttf", "Inter-600.ttf", "Inter.ttf", and the same without spaces.
func candidateFiles(family string, weight int) []string {
	family = strings.TrimSpace(family)
	bases := []string{family}
	if compact := strings.ReplaceAll(family, " ", ""); compact != family {
		bases = append(bases, compact)
	}

	var suffixes []string
	if name, ok := weightNames[weight]; ok {
		suffixes = append(suffixes, "-"+name)
	}
	suffixes = append(suffixes, "-"+strconv.Itoa(weight), "")

	var out []string
	for _, b := range bases {
		for _, s := range suffixes {
			for _, ext := range []string{".ttf", ".otf"} {
				out = append(out, b+s+ext)
			}
		}
	}
	return out
}

// safeFamily rejects names that could leave the font directory.
func safeFamily(family string) bool {
	return !strings.ContainsAny(family, `/\`) && !strings.Contains(family, "..")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
