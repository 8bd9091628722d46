package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"financeiro/internal/storage"
)

// Store is an in-process storage.KV. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
}

func New() *Store {
	return &Store{items: map[string][]byte{}}
}

// NewFromFiles seeds the store from base: every "<key>.json" file becomes the
// initial value of <key>. Missing or unreadable files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range readLines(filepath.Join(base, "seed_keys.txt"), storage.SnapshotKey) {
		raw, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil {
			continue
		}
		s.items[key] = raw
	}
	return s
}

// Get implements storage.KV.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements storage.KV.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Close() error { return nil }

// readLines returns the non-comment lines of path, or fallback when the file
// is missing or empty.
func readLines(path string, fallback ...string) []string {
	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
