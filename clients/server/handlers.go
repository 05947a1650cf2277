package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/editor"
	"github.com/xob0t/GoCover/pkg/generator"
	"github.com/xob0t/GoCover/pkg/prefs"
)

// ── Meta ──

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"sources":  s.sources.len(),
	})
}

func (s *Server) presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": editor.Presets})
}

// ── One-shot render ──

// render takes a multipart form with the image in "file" and an optional
// JSON render request in "request", and returns the encoded cover.
func (s *Server) render(c *gin.Context) {
	data, name, err := s.readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	req := cover.DefaultRequest()
	if raw := c.PostForm("request"); raw != "" {
		parsed, err := cover.ParseRequest([]byte(raw), "json")
		if err != nil {
			s.fail(c, err)
			return
		}
		req = *parsed
	}

	img, err := cover.LoadRaster(bytes.NewReader(data), cover.RasterOptions{
		MaxBytes: s.cfg.MaxUploadBytes,
		Source:   "upload:" + name,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	defer img.Release()
	req.Image = img

	out, err := s.renderer.Render(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeImage(c, out, req.Mode, req.Output, true)
}

// ── Sources ──

func (s *Server) getSource(c *gin.Context) {
	src, ok := s.sources.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, src.Mime, src.Data)
}

// sourceType sniffs the stored bytes. The upload's file name is client
// controlled and never decides the served type; anything that does not
// sniff as an image is served as opaque bytes.
func sourceType(data []byte) string {
	if t := http.DetectContentType(data); strings.HasPrefix(t, "image/") {
		return t
	}
	return "application/octet-stream"
}

// ── Sessions ──

type createSessionRequest struct {
	// Client scopes stored preferences; empty shares the default key.
	Client string `json:"client"`
}

type rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type stateResponse struct {
	ID       string       `json:"id"`
	State    editor.State `json:"state"`
	HasImage bool         `json:"hasImage"`
	SafeZone rect         `json:"safeZone"`
	Filename string       `json:"filename"`
}

func (s *Server) stateOf(sess *editor.Session) stateResponse {
	st := sess.State()
	sz := editor.SafeZone(st.Output.Width, st.Output.Height)
	return stateResponse{
		ID:       sess.ID,
		State:    st,
		HasImage: sess.HasImage(),
		SafeZone: rect{X: sz.Min.X, Y: sz.Min.Y, Width: sz.Dx(), Height: sz.Dy()},
		Filename: generator.Filename(st.Mode, st.Output),
	}
}

func (s *Server) createSession(c *gin.Context) {
	var body createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var opts []editor.Option
	if body.Client != "" {
		opts = append(opts, editor.WithPrefsKey(prefs.StorageKey+":"+body.Client))
	}
	sess := s.sessions.Create(c.Request.Context(), opts...)
	s.logger.Debug("session created", "id", sess.ID)
	c.JSON(http.StatusCreated, s.stateOf(sess))
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := s.sessions.Remove(id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

func (s *Server) session(c *gin.Context) (*editor.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) uploadImage(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	data, name, err := s.readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	id := s.sources.add(name, data, sourceType(data))

	info, err := sess.LoadImage(c.Request.Context(), bytes.NewReader(data), cover.RasterOptions{
		Source:  "/api/sources/" + id,
		Release: func() { s.sources.remove(id) },
	})
	if err != nil {
		s.sources.remove(id)
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) getState(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.stateOf(sess))
}

// stateUpdate is the PUT /state body: a partial state plus editor actions.
// Actions run after the patch, in field order.
type stateUpdate struct {
	editor.Patch
	Reset     bool          `json:"reset,omitempty"`     // restore defaults first
	Preset    string        `json:"preset,omitempty"`    // named output size
	SetWidth  *int          `json:"setWidth,omitempty"`  // width with 5:2 lock
	SetHeight *int          `json:"setHeight,omitempty"` // height with 5:2 lock
	Nudge     *cover.Offset `json:"nudge,omitempty"`     // move the active layer
	Zoom      *float64      `json:"zoom,omitempty"`      // scale delta of the active layer
}

func (s *Server) putState(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var body stateUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var preset editor.Preset
	if body.Preset != "" {
		p, found := editor.PresetByName(body.Preset)
		if !found {
			s.fail(c, fmt.Errorf("%w: unknown preset %q", cover.ErrInvalidRequest, body.Preset))
			return
		}
		preset = p
	}

	ctx := c.Request.Context()
	if body.Reset {
		sess.Reset(ctx)
	}
	_, err := sess.Update(ctx, func(st *editor.State) {
		st.Apply(body.Patch)
		if body.Preset != "" {
			preset.Apply(&st.Output)
		}
		if body.SetWidth != nil {
			editor.SetWidth(&st.Output, *body.SetWidth)
		}
		if body.SetHeight != nil {
			editor.SetHeight(&st.Output, *body.SetHeight)
		}
		if body.Nudge != nil {
			st.Nudge(body.Nudge.X, body.Nudge.Y)
		}
		if body.Zoom != nil {
			st.Zoom(*body.Zoom)
		}
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateOf(sess))
}

func (s *Server) renderSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	out, req, err := sess.Render(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeImage(c, out, req.Mode, req.Output, c.Query("download") == "1")
}

// ── Helpers ──

// readUpload reads the multipart "file" field within the upload limit.
func (s *Server) readUpload(c *gin.Context) ([]byte, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file uploaded", cover.ErrInvalidRequest)
	}
	if header.Size > s.cfg.MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: %d bytes exceeds %d", cover.ErrImageTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: exceeds %d bytes", cover.ErrImageTooLarge, s.cfg.MaxUploadBytes)
	}
	return data, filepath.Base(header.Filename), nil
}

func (s *Server) writeImage(c *gin.Context, img image.Image, mode cover.Mode, out cover.OutputSettings, download bool) {
	var buf bytes.Buffer
	if err := generator.Encode(&buf, img, out); err != nil {
		s.fail(c, err)
		return
	}
	if download {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, generator.Filename(mode, out)))
	}
	c.Data(http.StatusOK, generator.ContentType(out.Format), buf.Bytes())
}

// fail writes err as JSON with a status derived from its sentinel.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("handler error", "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, cover.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, cover.ErrInvalidRequest), errors.Is(err, cover.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, cover.ErrNoImage), errors.Is(err, editor.ErrStale), errors.Is(err, editor.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
