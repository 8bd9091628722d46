package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// historyLimit is how many previous values are kept per key.
const historyLimit = 20

// SQLiteStore is a KV backed by a single SQLite table. Overwritten values are
// copied to kv_history first.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get implements KV.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrStorage, key, err)
	}
	return value, nil
}

// Put implements KV.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv_history (key, value) SELECT key, value FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: archive %s: %w", ErrStorage, key, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM kv_history WHERE key = ? AND id NOT IN (
			SELECT id FROM kv_history WHERE key = ? ORDER BY id DESC LIMIT ?)`,
		key, key, historyLimit); err != nil {
		return fmt.Errorf("%w: prune history %s: %w", ErrStorage, key, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrStorage, key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}

	slog.DebugContext(ctx, "Value saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

// History returns up to limit previous values of key, newest first.
func (s *SQLiteStore) History(ctx context.Context, key string, limit int) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM kv_history WHERE key = ? ORDER BY id DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: history %s: %w", ErrStorage, key, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan history: %w", ErrStorage, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
