package backend

import (
	"context"

	"financeiro/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the opened store and its cleanup function
type BackendResult struct {
	Store   storage.KV
	Cleanup CleanupFunc
}

// Factory opens stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for opening a store
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// File specific
	SnapshotFile string

	// Memory specific: optional directory of seed files
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend, FileBackend:
		return true
	default:
		return false
	}
}
