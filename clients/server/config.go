package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/prefs"
)

// Config is the server configuration, usually read from gocover.toml.
type Config struct {
	Addr           string      `toml:"addr"`
	FontDir        string      `toml:"font_dir"`
	FontTimeout    Duration    `toml:"font_timeout"`
	MaxUploadBytes int64       `toml:"max_upload_bytes"`
	SessionTTL     Duration    `toml:"session_ttl"`
	OpenBrowser    bool        `toml:"open_browser"`
	Prefs          PrefsConfig `toml:"prefs"`
}

// PrefsConfig selects the preference store backend.
type PrefsConfig struct {
	Backend       string   `toml:"backend"` // memory, file or redis
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`
}

// Duration is a time.Duration written as a string such as "2s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		FontTimeout:    Duration{cover.DefaultFontTimeout},
		MaxUploadBytes: cover.MaxImageBytes,
		SessionTTL:     Duration{time.Hour},
		Prefs:          PrefsConfig{Backend: "memory"},
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.FontTimeout.Duration <= 0 {
		c.FontTimeout = def.FontTimeout
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.SessionTTL.Duration <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.Prefs.Backend == "" {
		c.Prefs.Backend = def.Prefs.Backend
	}
}

// OpenStore creates the configured preference store.
func (p PrefsConfig) OpenStore(ctx context.Context) (prefs.Store, error) {
	switch p.Backend {
	case "", "memory":
		return prefs.NewMemoryStore(), nil
	case "file":
		if p.Dir == "" {
			return nil, fmt.Errorf("prefs: file backend needs dir")
		}
		return prefs.NewFileStore(p.Dir)
	case "redis":
		if p.RedisAddr == "" {
			return nil, fmt.Errorf("prefs: redis backend needs redis_addr")
		}
		return prefs.NewRedisStore(ctx, prefs.RedisConfig{
			Addr:     p.RedisAddr,
			Password: p.RedisPassword,
			DB:       p.RedisDB,
			TTL:      p.TTL.Duration,
		})
	default:
		return nil, fmt.Errorf("prefs: unknown backend %q: use memory, file or redis", p.Backend)
	}
}

// ExampleConfig is a commented sample gocover.toml.
const ExampleConfig = `addr = ":8080"
font_dir = ""          # directory with <Family>-<Weight>.ttf files
font_timeout = "2s"    # wait for a font before falling back
max_upload_bytes = 20971520
session_ttl = "1h"
open_browser = false

[prefs]
backend = "file"       # memory, file or redis
dir = "./.gocover/prefs"
# redis_addr = "localhost:6379"
# ttl = "720h"
`
