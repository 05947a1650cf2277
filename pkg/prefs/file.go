package prefs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each key's preferences in a JSON file under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in dir.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the preferences stored under key.
func (s *FileStore) Load(ctx context.Context, key string) (Preferences, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return Preferences{}, ErrNotFound
	}
	if err != nil {
		return Preferences{}, err
	}
	return decode(data)
}

// Save writes p under key, replacing the file atomically.
func (s *FileStore) Save(ctx context.Context, key string, p Preferences) error {
	data, err := encode(p)
	if err != nil {
		return err
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".prefs-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the preferences stored under key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// path converts a key to a file name. Keys are hashed so any string is safe.
func (s *FileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
