// Package server provides the GoCover editor HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/editor"
	"github.com/xob0t/GoCover/pkg/prefs"
)

// ── Source store ──

// source is the original upload behind a session image. It stays
// downloadable until the image is replaced or the session ends.
type source struct {
	Name string
	Data []byte
	Mime string
}

type sourceStore struct {
	mu      sync.RWMutex
	sources map[string]*source
}

func newSourceStore() *sourceStore {
	return &sourceStore{sources: make(map[string]*source)}
}

func (ss *sourceStore) add(name string, data []byte, mimeType string) string {
	id := uuid.NewString()
	ss.mu.Lock()
	ss.sources[id] = &source{Name: name, Data: data, Mime: mimeType}
	ss.mu.Unlock()
	return id
}

func (ss *sourceStore) get(id string) (*source, bool) {
	ss.mu.RLock()
	src, ok := ss.sources[id]
	ss.mu.RUnlock()
	return src, ok
}

func (ss *sourceStore) remove(id string) {
	ss.mu.Lock()
	delete(ss.sources, id)
	ss.mu.Unlock()
}

func (ss *sourceStore) len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sources)
}

// ── Server ──

// Server serves the editor API.
type Server struct {
	cfg      Config
	logger   *log.Logger
	store    prefs.Store
	renderer *cover.Renderer
	sessions *editor.Manager
	sources  *sourceStore
	engine   *gin.Engine
}

// New builds a server around store. The caller keeps ownership of store.
func New(cfg Config, store prefs.Store, logger *log.Logger) *Server {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.Default()
	}
	if store == nil {
		store = prefs.NewMemoryStore()
	}

	fonts := cover.NewFontManager(
		cover.WithFontDir(cfg.FontDir),
		cover.WithFontTimeout(cfg.FontTimeout.Duration),
		cover.WithFontLogger(logger),
	)
	renderer := cover.NewRenderer(cover.WithFontManager(fonts), cover.WithLogger(logger))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		renderer: renderer,
		sources:  newSourceStore(),
		sessions: editor.NewManager(
			editor.WithRenderer(renderer),
			editor.WithStore(store),
			editor.WithMaxImageBytes(cfg.MaxUploadBytes),
			editor.WithLogger(logger),
		),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes + 1<<20

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/presets", s.presets)
		api.POST("/render", s.render)
		api.GET("/sources/:id", s.getSource)

		sessions := api.Group("/sessions")
		sessions.POST("", s.createSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.POST("/:id/image", s.uploadImage)
		sessions.GET("/:id/state", s.getState)
		sessions.PUT("/:id/state", s.putState)
		sessions.GET("/:id/render", s.renderSession)
	}
	return r
}

// requestLogger logs each request at debug level, errors at warn.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []any{"method", c.Request.Method, "path", c.FullPath(), "status", status, "took", time.Since(start)}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", kv...)
			return
		}
		s.logger.Debug("request", kv...)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully and closes
// all sessions. Idle sessions are expired every minute.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpSrv.ListenAndServe()
	}()
	s.logger.Info("GoCover API listening", "addr", s.cfg.Addr)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer s.sessions.CloseAll()

	for {
		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			if n := s.sessions.Expire(s.cfg.SessionTTL.Duration); n > 0 {
				s.logger.Debug("expired sessions", "count", n)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		}
	}
}

// Serve opens the configured preference store and runs a server until ctx ends.
func Serve(ctx context.Context, cfg Config, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	cfg.applyDefaults()

	store, err := cfg.Prefs.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Debug("preferences store", "backend", cfg.Prefs.Backend)

	s := New(cfg, store, logger)
	if cfg.OpenBrowser {
		go openBrowser("http://localhost" + cfg.Addr + "/api/health")
	}
	return s.Run(ctx)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
