package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xob0t/GoCover/pkg/cover"
)

func samplePrefs() Preferences {
	req := cover.DefaultRequest()
	req.Mode = cover.ModeTile
	req.Background = cover.Gradient("#112233", "#445566", 90)
	req.Output.Width = 1170
	req.Output.Height = 445
	req.Output.Format = cover.FormatJPEG
	req.Text.Content = "Hello"
	req.Text.Size = 64
	return FromRequest(req, true)
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(ctx, RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}

	for name, s := range map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"redis":  rs,
	} {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if _, err := s.Load(ctx, StorageKey); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load on empty store: got %v, want ErrNotFound", err)
			}

			want := samplePrefs()
			if err := s.Save(ctx, StorageKey, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx, StorageKey)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			if err := s.Delete(ctx, StorageKey); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Load(ctx, StorageKey); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load after Delete: got %v, want ErrNotFound", err)
			}
			// deleting twice is not an error
			if err := s.Delete(ctx, StorageKey); err != nil {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestRedisStoreKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  RedisConfig
		key  string
		ttl  time.Duration
	}{
		{"default prefix", RedisConfig{Addr: mr.Addr(), TTL: time.Hour}, "gocover:prefs:" + StorageKey, time.Hour},
		{"custom prefix", RedisConfig{Addr: mr.Addr(), Prefix: "covers:"}, "covers:" + StorageKey, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewRedisStore(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("NewRedisStore: %v", err)
			}
			defer s.Close()

			if err := s.Save(ctx, StorageKey, samplePrefs()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if !mr.Exists(tt.key) {
				t.Fatalf("key %q not written; keys %v", tt.key, mr.Keys())
			}
			if got := mr.TTL(tt.key); got != tt.ttl {
				t.Errorf("TTL = %v, want %v", got, tt.ttl)
			}
		})
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(ctx, RedisConfig{Addr: mr.Addr(), TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	if err := s.Save(ctx, StorageKey, samplePrefs()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := s.Load(ctx, StorageKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after expiry: got %v, want ErrNotFound", err)
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr}); err == nil {
		t.Error("expected a connection error")
	}
}

func TestApplyToKeepsTransforms(t *testing.T) {
	req := cover.DefaultRequest()
	req.Transform = cover.Transform{Offset: cover.Offset{X: 12, Y: -4}, Scale: 2, Rotation: 30}

	samplePrefs().ApplyTo(&req)

	if req.Mode != cover.ModeTile {
		t.Errorf("Mode = %q, want tile", req.Mode)
	}
	if req.Transform.Scale != 2 || req.Transform.Rotation != 30 || req.Transform.Offset.X != 12 {
		t.Errorf("transform changed: %+v", req.Transform)
	}
	if req.Output.Width != 1170 || req.Output.Height != 445 {
		t.Errorf("output = %dx%d, want 1170x445", req.Output.Width, req.Output.Height)
	}
}

func TestDecodeNewerVersion(t *testing.T) {
	_, err := decode([]byte(`{"version": 99, "mode": "fill"}`))
	if !errors.Is(err, ErrVersion) {
		t.Errorf("decode: got %v, want ErrVersion", err)
	}
}

func TestDecodeLegacyVersion(t *testing.T) {
	p, err := decode([]byte(`{"mode": "fit"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Version != Version {
		t.Errorf("Version = %d, want %d", p.Version, Version)
	}
	if p.Mode != cover.ModeFit {
		t.Errorf("Mode = %q, want fit", p.Mode)
	}
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	p, err := LoadOrDefault(ctx, NewMemoryStore(), StorageKey)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if diff := cmp.Diff(Defaults(), p); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path(StorageKey), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadOrDefault(ctx, s, StorageKey)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if p.Mode != cover.ModeFill {
		t.Errorf("fallback Mode = %q, want fill", p.Mode)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("unexpected file %s", e.Name())
		}
	}
}
