package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/prefs"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func smallOutput(ctx context.Context, t *testing.T, s *Session) {
	t.Helper()
	_, err := s.Update(ctx, func(st *State) {
		st.Output.Width = 60
		st.Output.Height = 24
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestNewRestoresPreferences(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()

	req := cover.DefaultRequest()
	req.Mode = cover.ModeTile
	req.Output.Width, req.Output.Height = 1170, 290
	if err := store.Save(ctx, prefs.StorageKey, prefs.FromRequest(req, true)); err != nil {
		t.Fatal(err)
	}

	s := New(ctx, WithStore(store))
	defer s.Close()

	st := s.State()
	if st.Mode != cover.ModeTile || !st.ShowSafeZone {
		t.Errorf("restored mode=%q safe=%v", st.Mode, st.ShowSafeZone)
	}
	if st.Output.Width != 1170 || st.Output.Height != 290 {
		t.Errorf("restored output %dx%d", st.Output.Width, st.Output.Height)
	}
	if st.Transform != cover.IdentityTransform() || st.Tile != cover.IdentityTransform() {
		t.Errorf("transforms should start at identity: %+v %+v", st.Transform, st.Tile)
	}
}

func TestNewRejectsInvalidPreferences(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	p := prefs.Defaults()
	p.Mode = "stretch"
	if err := store.Save(ctx, prefs.StorageKey, p); err != nil {
		t.Fatal(err)
	}

	s := New(ctx, WithStore(store))
	defer s.Close()
	if s.State().Mode != cover.ModeFill {
		t.Errorf("mode = %q, want default fill", s.State().Mode)
	}
}

func TestUpdatePersists(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	s := New(ctx, WithStore(store))
	defer s.Close()

	mode := cover.ModeFit
	if _, err := s.Apply(ctx, Patch{RequestPatch: cover.RequestPatch{Mode: &mode}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	p, err := store.Load(ctx, prefs.StorageKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Mode != cover.ModeFit {
		t.Errorf("stored mode = %q, want fit", p.Mode)
	}

	_, err = s.Update(ctx, func(st *State) { st.Transform.Scale = 10 })
	if !errors.Is(err, cover.ErrInvalidRequest) {
		t.Fatalf("out of range scale: got %v, want ErrInvalidRequest", err)
	}
	if s.State().Transform.Scale != 1 {
		t.Errorf("rejected update leaked into state: scale %v", s.State().Transform.Scale)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	s := New(ctx, WithStore(store))
	defer s.Close()

	if _, err := s.Update(ctx, func(st *State) { st.Mode = cover.ModeTile }); err != nil {
		t.Fatal(err)
	}
	st := s.Reset(ctx)
	if st.Mode != cover.ModeFill {
		t.Errorf("mode after reset = %q", st.Mode)
	}
	if _, err := store.Load(ctx, prefs.StorageKey); !errors.Is(err, prefs.ErrNotFound) {
		t.Errorf("stored preferences survive reset: %v", err)
	}
}

func TestLoadImage(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	defer s.Close()

	var released atomic.Int32
	info, err := s.LoadImage(ctx, bytes.NewReader(pngBytes(t, 40, 20, color.NRGBA{0x33, 0x66, 0x99, 0xff})), cover.RasterOptions{
		Source:  "first",
		Release: func() { released.Add(1) },
	})
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if info.Width != 40 || info.Height != 20 || info.Orientation != 1 {
		t.Errorf("info = %+v", info)
	}
	if len(info.Palette) != 1 || info.Palette[0] != "#306090" {
		t.Errorf("palette = %v, want [#306090]", info.Palette)
	}
	if info.Suggested != nil {
		t.Errorf("single colour image should not suggest a gradient: %+v", info.Suggested)
	}

	if _, err := s.LoadImage(ctx, bytes.NewReader(pngBytes(t, 8, 8, color.White)), cover.RasterOptions{}); err != nil {
		t.Fatalf("second LoadImage: %v", err)
	}
	if released.Load() != 1 {
		t.Errorf("previous image released %d times, want 1", released.Load())
	}
}

func TestLoadImageErrors(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, WithMaxImageBytes(16))
	defer s.Close()

	_, err := s.LoadImage(ctx, bytes.NewReader(pngBytes(t, 64, 64, color.White)), cover.RasterOptions{})
	if !errors.Is(err, cover.ErrImageTooLarge) {
		t.Errorf("oversize: got %v, want ErrImageTooLarge", err)
	}
	_, err = s.LoadImage(ctx, bytes.NewReader([]byte("not an image")), cover.RasterOptions{})
	if !errors.Is(err, cover.ErrDecode) {
		t.Errorf("garbage: got %v, want ErrDecode", err)
	}
	if s.HasImage() {
		t.Error("failed loads must not set an image")
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	defer s.Close()

	if _, _, err := s.Render(ctx); !errors.Is(err, cover.ErrNoImage) {
		t.Fatalf("render without image: got %v, want ErrNoImage", err)
	}

	smallOutput(ctx, t, s)
	if _, err := s.LoadImage(ctx, bytes.NewReader(pngBytes(t, 30, 30, color.Black)), cover.RasterOptions{}); err != nil {
		t.Fatal(err)
	}
	img, req, err := s.Render(ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 24 {
		t.Errorf("rendered %dx%d, want 60x24", b.Dx(), b.Dy())
	}
	if req.Mode != cover.ModeFill {
		t.Errorf("request mode = %q", req.Mode)
	}
}

func TestRenderStale(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	defer s.Close()
	smallOutput(ctx, t, s)
	if _, err := s.LoadImage(ctx, bytes.NewReader(pngBytes(t, 10, 10, color.Black)), cover.RasterOptions{}); err != nil {
		t.Fatal(err)
	}

	// Hold the render slot so both calls queue up behind it.
	s.renderMu.Lock()
	base := s.gen.Load()

	first := make(chan error, 1)
	go func() {
		_, _, err := s.Render(ctx)
		first <- err
	}()
	waitGen(t, s, base+1)

	second := make(chan error, 1)
	go func() {
		_, _, err := s.Render(ctx)
		second <- err
	}()
	waitGen(t, s, base+2)

	s.renderMu.Unlock()

	if err := <-first; !errors.Is(err, ErrStale) {
		t.Errorf("first render: got %v, want ErrStale", err)
	}
	if err := <-second; err != nil {
		t.Errorf("second render: %v", err)
	}
}

func waitGen(t *testing.T, s *Session, want uint64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.gen.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("generation stuck at %d, want %d", s.gen.Load(), want)
		}
		runtime.Gosched()
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)

	var released atomic.Int32
	if _, err := s.LoadImage(ctx, bytes.NewReader(pngBytes(t, 4, 4, color.White)), cover.RasterOptions{
		Release: func() { released.Add(1) },
	}); err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()

	if released.Load() != 1 {
		t.Errorf("released %d times, want 1", released.Load())
	}
	if _, _, err := s.Render(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("render after close: got %v, want ErrClosed", err)
	}
	if _, err := s.Update(ctx, func(*State) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("update after close: got %v, want ErrClosed", err)
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithStore(prefs.NewMemoryStore()))

	s := m.Create(ctx)
	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get(%s) = %v, %v", s.ID, got, err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	if err := m.Remove(s.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Remove: got %v, want ErrSessionNotFound", err)
	}
	if err := m.Remove(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Remove: got %v, want ErrSessionNotFound", err)
	}
}

func TestManagerExpire(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	old := m.Create(ctx)
	time.Sleep(20 * time.Millisecond)
	fresh := m.Create(ctx)

	if n := m.Expire(10 * time.Millisecond); n != 1 {
		t.Errorf("Expire closed %d sessions, want 1", n)
	}
	if _, err := m.Get(old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("old session still present: %v", err)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh session expired: %v", err)
	}

	m.CloseAll()
	if m.Len() != 0 {
		t.Errorf("Len after CloseAll = %d", m.Len())
	}
}
