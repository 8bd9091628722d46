package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"financeiro/internal/backup"
	"financeiro/internal/config"
	"financeiro/internal/core"
	"financeiro/internal/log"
	"financeiro/internal/storage"
)

func newRunner(t *testing.T) (*runner, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	var logs bytes.Buffer
	return &runner{
		cfg: &config.Config{
			DataBackend:  "file",
			SnapshotFile: filepath.Join(dir, "data", "financeiro.json"),
			BackupDir:    filepath.Join(dir, "backups"),
			BackupFormat: "json",
		},
		logger: log.NewText(&logs, 0, log.ComponentBackup),
		clock:  core.FixedClock{T: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)},
		out:    out,
	}, out, dir
}

const backupJSON = `{
  "entradas": [{"id": "i1", "date": "2024-06-05", "description": "Salary", "value": 5000}],
  "fixas": [{"id": "f1", "description": "Rent", "value": 1200, "dueDate": 5, "paidMonths": []}],
  "cartoes": [],
  "lastProcessedMonth": "2024-05-01"
}`

func TestImportThenExport(t *testing.T) {
	r, out, dir := newRunner(t)
	ctx := context.Background()

	src := filepath.Join(dir, "in.json")
	if err := os.WriteFile(src, []byte(backupJSON), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.run(ctx, []string{"import", src}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 1 incomes, 1 fixed costs, 0 cards") {
		t.Errorf("unexpected import output %q", out.String())
	}

	out.Reset()
	if err := r.run(ctx, []string{"export", "-format", "yaml"}); err != nil {
		t.Fatalf("export: %v", err)
	}
	path := strings.TrimSpace(out.String())
	if filepath.Base(path) != "financeiro_backup_2024-06-10.yaml" {
		t.Errorf("export path = %q", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := backup.NewCodec(nil).Decode(raw, backup.FormatYAML)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	// Loading for the export ran the May -> June turnover: rent gained May.
	if !data.FixedCosts[0].IsPaidFor("2024-05-01") {
		t.Errorf("expected May to be settled, got %+v", data.FixedCosts[0].PaidMonths)
	}
}

func TestTurnoverReportsSettledItems(t *testing.T) {
	r, out, dir := newRunner(t)
	ctx := context.Background()

	src := filepath.Join(dir, "in.json")
	if err := os.WriteFile(src, []byte(backupJSON), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.run(ctx, []string{"import", src}); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := r.run(ctx, []string{"turnover"}); err != nil {
		t.Fatalf("turnover: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "1 overdue items were marked as paid") {
		t.Errorf("turnover output missing settled count: %q", got)
	}
	if !strings.Contains(got, "last processed month: 2024-06-01") {
		t.Errorf("turnover output missing watermark: %q", got)
	}

	out.Reset()
	if err := r.run(ctx, []string{"turnover"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "overdue") {
		t.Errorf("second turnover settled again: %q", out.String())
	}
}

func TestSummary(t *testing.T) {
	r, out, _ := newRunner(t)
	if err := r.run(context.Background(), []string{"summary", "-month", "2024-06"}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out.String(), `"monthKey": "2024-06-01"`) {
		t.Errorf("unexpected summary %s", out.String())
	}

	if err := r.run(context.Background(), []string{"summary", "-month", "June"}); err == nil {
		t.Error("expected error for invalid month")
	}
}

func TestRestorePreviousVersion(t *testing.T) {
	r, out, dir := newRunner(t)
	r.cfg.DataBackend = "sqlite"
	r.cfg.SQLiteDBPath = filepath.Join(dir, "data", "financeiro.db")
	ctx := context.Background()

	older := filepath.Join(dir, "older.json")
	newer := filepath.Join(dir, "newer.json")
	if err := os.WriteFile(older, []byte(backupJSON), 0644); err != nil {
		t.Fatal(err)
	}
	empty := `{"entradas": [], "fixas": [], "cartoes": [], "lastProcessedMonth": "2024-06-01"}`
	if err := os.WriteFile(newer, []byte(empty), 0644); err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{older, newer} {
		if err := r.run(ctx, []string{"import", src}); err != nil {
			t.Fatalf("import %s: %v", src, err)
		}
	}

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"one version back", []string{"restore"}, "restored 1 incomes, 1 fixed costs, 0 cards", false},
		{"beyond the history", []string{"restore", "-n", "99"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := r.run(ctx, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("restore err = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestRestoreNeedsHistory(t *testing.T) {
	r, _, _ := newRunner(t)
	if err := r.run(context.Background(), []string{"restore"}); !errors.Is(err, storage.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}

func TestUsageErrors(t *testing.T) {
	r, _, _ := newRunner(t)
	for _, args := range [][]string{nil, {"nope"}, {"import"}, {"restore", "-n", "0"}} {
		if err := r.run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Errorf("run(%v) = %v, want usage error", args, err)
		}
	}
	if err := r.run(context.Background(), []string{"watch"}); err == nil {
		t.Error("watch without AMQP_URL should fail")
	}
}
