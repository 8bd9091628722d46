// Package file implements storage.KV on plain files, one file per key.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"financeiro/internal/storage"
)

// Store keeps each key in <dir>/<key>.json. Writes go to a temporary file
// that is renamed over the old one, so a crash never leaves a partial value.
type Store struct {
	mu     sync.Mutex
	dir    string
	pinned map[string]string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// NewForPath creates a store in the directory of path that keeps the
// snapshot key at exactly path.
func NewForPath(path string) (*Store, error) {
	s, err := New(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	s.pinned = map[string]string{storage.SnapshotKey: path}
	return s, nil
}

func (s *Store) path(key string) (string, error) {
	if p, ok := s.pinned[key]; ok {
		return p, nil
	}
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get implements storage.KV.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", storage.ErrStorage, p, err)
	}
	return raw, nil
}

// Put implements storage.KV.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", storage.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", storage.ErrStorage, tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", storage.ErrStorage, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", storage.ErrStorage, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", storage.ErrStorage, p, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
