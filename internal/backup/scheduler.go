package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"financeiro/internal/core"
)

// Source provides the snapshot to back up.
type Source interface {
	Snapshot() core.AppData
}

// SchedulerConfig configures periodic backups.
type SchedulerConfig struct {
	// Schedule is a standard five-field cron expression or a descriptor such
	// as "@daily".
	Schedule string
	Dir      string
	Format   Format
}

// Scheduler writes a backup file of the source's snapshot on a cron schedule
// read in the clock's location. Backups never modify the snapshot.
type Scheduler struct {
	cfg    SchedulerConfig
	source Source
	codec  *Codec
	clock  core.Clock
	cron   *cron.Cron
}

func NewScheduler(cfg SchedulerConfig, source Source, codec *Codec, clock core.Clock) (*Scheduler, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if clock == nil {
		clock = core.SystemClock{}
	}

	s := &Scheduler{
		cfg:    cfg,
		source: source,
		codec:  codec,
		clock:  clock,
		cron:   cron.New(cron.WithLocation(clock.Now().Location())),
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			slog.Error("Scheduled backup failed", "error", err, "dir", cfg.Dir)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", cfg.Schedule, err)
	}

	return s, nil
}

// RunOnce writes a backup now and returns the file path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	raw, err := s.codec.Encode(s.source.Snapshot(), s.cfg.Format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	path := filepath.Join(s.cfg.Dir, FileName(s.cfg.Format, core.Today(s.clock)))
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup written", "path", path, "bytes", len(raw))
	return path, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for a
// running backup to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	slog.InfoContext(ctx, "Backup scheduler started",
		"schedule", s.cfg.Schedule,
		"dir", s.cfg.Dir,
		"format", s.cfg.Format)

	<-ctx.Done()

	<-s.cron.Stop().Done()
	slog.Info("Backup scheduler stopped")
	return nil
}
