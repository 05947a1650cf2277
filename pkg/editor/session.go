package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/prefs"
)

// Sentinel errors for session operations.
var (
	// ErrStale is returned by Render when a newer Render call superseded it.
	ErrStale = errors.New("render superseded by a newer request")

	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrClosed is returned when a closed session is used.
	ErrClosed = errors.New("session closed")
)

// ImageInfo describes a freshly loaded source image.
type ImageInfo struct {
	Width       int               `json:"width"`  // after orientation
	Height      int               `json:"height"` // after orientation
	Orientation int               `json:"orientation"`
	Source      string            `json:"source"`
	Palette     []string          `json:"palette"`
	Brightest   string            `json:"brightest,omitempty"`
	Darkest     string            `json:"darkest,omitempty"`
	Suggested   *cover.Background `json:"suggested,omitempty"`
}

// Session is one editor instance.
type Session struct {
	ID        string
	CreatedAt time.Time

	renderer *cover.Renderer
	store    prefs.Store
	key      string
	maxBytes int64
	logger   *log.Logger

	mu     sync.Mutex // guards image, state, closed
	image  *cover.RasterImage
	state  State
	closed bool

	renderMu sync.Mutex // one render at a time; image release waits for it
	gen      atomic.Uint64
	lastUsed atomic.Int64 // unix nanoseconds
}

// Option configures a Session.
type Option func(*Session)

// WithRenderer sets the renderer. Sessions may share one.
func WithRenderer(r *cover.Renderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStore sets the preference store. Without one, preferences live only in memory.
func WithStore(st prefs.Store) Option {
	return func(s *Session) {
		if st != nil {
			s.store = st
		}
	}
}

// WithPrefsKey overrides the key preferences are stored under.
func WithPrefsKey(key string) Option {
	return func(s *Session) {
		if key != "" {
			s.key = key
		}
	}
}

// WithMaxImageBytes caps the size of loaded images.
func WithMaxImageBytes(n int64) Option {
	return func(s *Session) {
		s.maxBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session and restores the stored preferences.
// A broken or unreadable store falls back to defaults with a warning.
func New(ctx context.Context, opts ...Option) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		key:       prefs.StorageKey,
		maxBytes:  cover.MaxImageBytes,
		logger:    log.Default(),
		state:     DefaultState(),
	}
	s.touch()
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = prefs.NewMemoryStore()
	}
	if s.renderer == nil {
		s.renderer = cover.NewRenderer(cover.WithLogger(s.logger))
	}

	p, err := prefs.LoadOrDefault(ctx, s.store, s.key)
	if err != nil {
		s.logger.Warn("preferences not restored", "key", s.key, "err", err)
	}
	restored := s.state.withPreferences(p)
	if err := cover.Validate(restored.Request(nil)); err != nil {
		s.logger.Warn("stored preferences rejected", "key", s.key, "err", err)
		return s
	}
	s.state = restored
	return s
}

// State returns a copy of the current editor state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HasImage reports whether an image is loaded.
func (s *Session) HasImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image.Ready()
}

// Snapshot returns the render request for the current image and state.
func (s *Session) Snapshot() cover.RenderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Request(s.image)
}

// Update applies fn to a copy of the state. The result is validated before it
// replaces the current state and its durable part is persisted.
// Persistence failures are logged, not returned.
func (s *Session) Update(ctx context.Context, fn func(*State)) (State, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrClosed
	}
	next := s.state
	fn(&next)
	req := next.Request(nil)
	cover.ApplyDefaults(&req)
	next = stateFromRequest(req, next.ShowSafeZone)
	if err := cover.Validate(req); err != nil {
		s.mu.Unlock()
		return State{}, err
	}
	s.state = next
	s.mu.Unlock()

	if err := s.store.Save(ctx, s.key, next.Preferences()); err != nil {
		s.logger.Warn("preferences not saved", "key", s.key, "err", err)
	}
	return next, nil
}

// Apply merges p into the state. See Update.
func (s *Session) Apply(ctx context.Context, p Patch) (State, error) {
	return s.Update(ctx, func(st *State) { st.Apply(p) })
}

// Reset restores the default state and forgets the stored preferences.
// The loaded image is kept.
func (s *Session) Reset(ctx context.Context) State {
	s.mu.Lock()
	s.state = DefaultState()
	st := s.state
	s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.Warn("preferences not cleared", "key", s.key, "err", err)
	}
	return st
}

// LoadImage decodes r and makes it the session image, releasing the previous
// one. Palette extraction failures are logged and leave the palette empty.
// A pending render of the previous image is superseded.
func (s *Session) LoadImage(ctx context.Context, r io.Reader, opts cover.RasterOptions) (ImageInfo, error) {
	if opts.MaxBytes == 0 {
		opts.MaxBytes = s.maxBytes
	}
	ri, err := cover.LoadRaster(r, opts)
	if err != nil {
		return ImageInfo{}, err
	}

	info := describe(ri)
	if p, err := cover.ExtractPalette(ri.Oriented(), cover.DefaultPaletteSize); err != nil {
		s.logger.Warn("palette extraction failed", "err", err)
	} else {
		info.Palette = p.Colors
		info.Brightest, info.Darkest = p.Brightest, p.Darkest
		if len(p.Colors) >= 2 {
			bg := cover.SuggestGradient(p)
			info.Suggested = &bg
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ri.Release()
		return ImageInfo{}, ErrClosed
	}
	prev := s.image
	s.image = ri
	s.gen.Add(1)
	s.mu.Unlock()

	s.releaseImage(prev)
	s.logger.Debug("image loaded", "session", s.ID, "size", fmt.Sprintf("%dx%d", info.Width, info.Height), "orientation", info.Orientation)
	return info, nil
}

// Render renders the current snapshot. When a newer Render or LoadImage call
// happens before this one finishes, the result is discarded and ErrStale returned.
func (s *Session) Render(ctx context.Context) (*image.RGBA, cover.RenderRequest, error) {
	gen := s.gen.Add(1)

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	if s.gen.Load() != gen {
		return nil, cover.RenderRequest{}, ErrStale
	}
	s.mu.Lock()
	closed := s.closed
	req := s.state.Request(s.image)
	s.mu.Unlock()
	if closed {
		return nil, req, ErrClosed
	}

	start := time.Now()
	img, err := s.renderer.Render(ctx, req)
	if err != nil {
		return nil, req, err
	}
	if s.gen.Load() != gen {
		return nil, req, ErrStale
	}
	s.logger.Debug("rendered", "session", s.ID, "mode", req.Mode, "size", fmt.Sprintf("%dx%d", req.Output.Width, req.Output.Height), "took", time.Since(start))
	return img, req, nil
}

// Close releases the image. Later calls fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	img := s.image
	s.image = nil
	s.gen.Add(1)
	s.mu.Unlock()

	s.releaseImage(img)
}

// LastUsed returns when the session was last looked up through a Manager.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// releaseImage waits for a running render before freeing img.
func (s *Session) releaseImage(img *cover.RasterImage) {
	if img == nil {
		return
	}
	s.renderMu.Lock()
	img.Release()
	s.renderMu.Unlock()
}

func describe(ri *cover.RasterImage) ImageInfo {
	w, h := ri.Width(), ri.Height()
	if ri.Orientation >= 5 {
		w, h = h, w
	}
	return ImageInfo{
		Width:       w,
		Height:      h,
		Orientation: ri.Orientation,
		Source:      ri.Source,
		Palette:     []string{},
	}
}
