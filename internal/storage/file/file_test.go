package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"financeiro/internal/storage"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := s.Get(ctx, "snap"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, v := range []string{"first", "second"} {
		if err := s.Put(ctx, "snap", []byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Get(ctx, "snap")
	if err != nil || string(got) != "second" {
		t.Fatalf("got %q err=%v", got, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "snap.json" {
		t.Fatalf("unexpected files left behind: %v", entries)
	}
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	for _, key := range []string{"", "../x", `a\b`, ".."} {
		if err := s.Put(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("key %q must be rejected", key)
		}
	}
}

func TestNewForPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ledger.json")
	s, err := NewForPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), storage.SnapshotKey, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}
