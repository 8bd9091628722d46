package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financeiro/internal/backup"
	"financeiro/internal/core"
)

// ErrNoHistory is returned by History when the store keeps no previous
// values.
var ErrNoHistory = errors.New("store keeps no history")

// Historian is implemented by stores that keep previous values of a key.
type Historian interface {
	History(ctx context.Context, key string, limit int) ([][]byte, error)
}

// Snapshots persists the ledger snapshot as JSON under SnapshotKey.
type Snapshots struct {
	kv    KV
	codec *backup.Codec
	clock core.Clock
}

func NewSnapshots(kv KV, codec *backup.Codec) *Snapshots {
	return &Snapshots{kv: kv, codec: codec, clock: core.SystemClock{}}
}

// WithClock sets the clock used to name quarantined snapshots.
func (s *Snapshots) WithClock(c core.Clock) *Snapshots {
	s.clock = c
	return s
}

// MalformedKey is where unreadable stored data found at time t is copied
// before anything overwrites it.
func MalformedKey(t time.Time) string {
	return SnapshotKey + ".malformed-" + t.UTC().Format("20060102T150405")
}

// Load returns the stored snapshot. found is false when nothing was ever
// saved. Stored text that does not decode yields an error wrapping
// backup.ErrMalformedSnapshot.
func (s *Snapshots) Load(ctx context.Context) (data core.AppData, found bool, err error) {
	raw, err := s.kv.Get(ctx, SnapshotKey)
	if errors.Is(err, ErrNotFound) {
		return core.NewAppData(), false, nil
	}
	if err != nil {
		return core.AppData{}, false, err
	}

	data, err = s.codec.Decode(raw, backup.FormatJSON)
	if err != nil {
		s.quarantine(ctx, raw)
		return core.AppData{}, true, fmt.Errorf("load snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot loaded",
		"incomes", len(data.Incomes),
		"fixed_costs", len(data.FixedCosts),
		"cards", len(data.Cards))
	return data, true, nil
}

// quarantine keeps a copy of unreadable data under its own key.
func (s *Snapshots) quarantine(ctx context.Context, raw []byte) {
	key := MalformedKey(s.clock.Now())
	if err := s.kv.Put(ctx, key, raw); err != nil {
		slog.ErrorContext(ctx, "Failed to keep a copy of the malformed snapshot", "error", err, "key", key)
		return
	}
	slog.WarnContext(ctx, "Malformed snapshot copied aside", "key", key, "bytes", len(raw))
}

// History returns up to limit previous snapshots, newest first. Stores
// without history yield ErrNoHistory.
func (s *Snapshots) History(ctx context.Context, limit int) ([][]byte, error) {
	h, ok := s.kv.(Historian)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.History(ctx, SnapshotKey, limit)
}

// Save stores data, replacing the previous snapshot.
func (s *Snapshots) Save(ctx context.Context, data core.AppData) error {
	raw, err := s.codec.Encode(data, backup.FormatJSON)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := s.kv.Put(ctx, SnapshotKey, raw); err != nil {
		if errors.Is(err, ErrStorage) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Close closes the underlying store.
func (s *Snapshots) Close() error {
	return s.kv.Close()
}
