// Package cli provides the process bootstrap shared by cmd/financeiro and
// cmd/financeiro-backup.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"financeiro/internal/amqp"
	"financeiro/internal/backend"
	"financeiro/internal/backup"
	"financeiro/internal/config"
	"financeiro/internal/core"
	"financeiro/internal/log"
	"financeiro/internal/notify"
	"financeiro/internal/storage"
)

// SetupLogger initializes structured logging at the given level and installs
// it as the default logger. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.NewText(os.Stdout, lvl, log.ComponentApp)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewClock returns the wall clock in the configured timezone.
func NewClock(cfg *config.Config) core.Clock {
	loc, err := cfg.Location()
	if err != nil {
		return core.SystemClock{}
	}
	return core.SystemClock{Location: loc}
}

// OpenSnapshots opens the configured store and wraps it for snapshot
// persistence. Closing the returned value closes the store.
func OpenSnapshots(ctx context.Context, logger *log.Logger, cfg *config.Config, codec *backup.Codec) (*storage.Snapshots, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return storage.NewSnapshots(res.Store, codec).WithClock(NewClock(cfg)), nil
}

// Notifier assembles the notification sinks: the log, the optional recorder
// and, when AMQP_URL is set and the broker is reachable, the message broker.
// The returned cleanup closes the broker connection.
func Notifier(logger *log.Logger, cfg *config.Config, recorder *notify.Recorder) (notify.Sink, func()) {
	sinks := notify.Fanout{notify.NewLogSink(logger.WithComponent(log.ComponentNotify).Logger)}
	if recorder != nil {
		sinks = append(sinks, recorder)
	}

	client, err := OpenAMQP(logger, cfg)
	if err != nil || client == nil {
		return sinks, func() {}
	}
	sinks = append(sinks, notify.NewAMQPSink(client))
	return sinks, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	}
}

// OpenAMQP connects to the broker. It returns nil without error when AMQP is
// not configured.
func OpenAMQP(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without broker notifications", "error", err)
		return nil, err
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
