package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"financeiro/internal/app"
	"financeiro/internal/backup"
	"financeiro/internal/cli"
	apphttp "financeiro/internal/http"
	"financeiro/internal/log"
	"financeiro/internal/middleware/ratelimit"
	"financeiro/internal/notify"
	"financeiro/internal/validation"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	validator := validation.New()
	codec := backup.NewCodec(validator)
	clock := cli.NewClock(cfg)

	store, err := cli.OpenSnapshots(ctx, logger, cfg, codec)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	recorder := notify.NewRecorder(0)
	notifier, closeNotifier := cli.Notifier(logger, cfg, recorder)
	defer closeNotifier()

	a := app.New(store, app.Options{
		Clock:     clock,
		Notifier:  notifier,
		Validator: validator,
	})
	if err := a.Start(ctx); err != nil {
		logger.Error("Failed to start ledger", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Burst:             cfg.RateLimitBurst,
	})
	srv := apphttp.NewServer(":"+cfg.Port, a, apphttp.Options{
		Logger:   logger.WithComponent(log.ComponentHTTP),
		Recorder: recorder,
		Limiter:  limiter,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting financeiro server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	turnovers, err := app.NewTurnoverJob(a, app.TurnoverSchedule)
	if err != nil {
		logger.Error("Failed to schedule the month turnover", "error", err)
		os.Exit(1)
	}
	g.Go(func() error { return turnovers.Run(gctx) })

	if cfg.BackupSchedule != "" {
		format, _ := backup.ParseFormat(cfg.BackupFormat)
		scheduler, err := backup.NewScheduler(backup.SchedulerConfig{
			Schedule: cfg.BackupSchedule,
			Dir:      cfg.BackupDir,
			Format:   format,
		}, a, codec, clock)
		if err != nil {
			logger.Error("Failed to configure backups", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
