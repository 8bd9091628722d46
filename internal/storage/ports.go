package storage

import (
	"context"
	"errors"
)

// SnapshotKey is the key the ledger snapshot is stored under.
const SnapshotKey = "financeiroData"

var (
	// ErrNotFound is returned by Get when nothing is stored under a key.
	ErrNotFound = errors.New("key not found")
	// ErrStorage marks failures of the underlying store.
	ErrStorage = errors.New("storage failure")
)

// Ports for snapshot persistence.
type (
	// KV is a durable key-value store holding opaque values.
	KV interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Put(ctx context.Context, key string, value []byte) error
		Close() error
	}
)
