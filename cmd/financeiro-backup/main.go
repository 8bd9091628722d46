// Command financeiro-backup works on the stored ledger from the command line.
//
// Commands:
//
//	export     Write a backup file of the stored ledger
//	import     Replace the stored ledger with a backup file
//	restore    Replace the stored ledger with one of its previous versions
//	turnover   Run the month turnover and save the result
//	summary    Print the dashboard of a month and the full report
//	watch      Print notifications published to the message broker
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"financeiro/internal/amqp"
	"financeiro/internal/app"
	"financeiro/internal/backup"
	"financeiro/internal/cli"
	"financeiro/internal/config"
	"financeiro/internal/core"
	"financeiro/internal/log"
	"financeiro/internal/notify"
	"financeiro/internal/storage"
	"financeiro/internal/validation"
)

var errUsage = errors.New("usage")

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	lvl, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewText(os.Stderr, lvl, log.ComponentBackup)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	r := &runner{cfg: cfg, logger: logger, clock: cli.NewClock(cfg), out: os.Stdout}
	if err := r.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  financeiro-backup <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  export [-format json|yaml] [-out dir]   Write a backup file")
	fmt.Fprintln(w, "  import [-format json|yaml] <file>       Replace the ledger with a backup")
	fmt.Fprintln(w, "  restore [-n N]                          Go back N saved versions (sqlite only)")
	fmt.Fprintln(w, "  turnover                                Run the month turnover")
	fmt.Fprintln(w, "  summary [-month YYYY-MM]                Print dashboard and report")
	fmt.Fprintln(w, "  watch                                   Print broker notifications")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The store is chosen with DATA_BACKEND, SQLITE_DB_PATH and SNAPSHOT_FILE.")
}

type runner struct {
	cfg    *config.Config
	logger *log.Logger
	clock  core.Clock
	out    io.Writer
}

func (r *runner) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "export":
		return r.export(ctx, args[1:])
	case "import":
		return r.importFile(ctx, args[1:])
	case "restore":
		return r.restore(ctx, args[1:])
	case "turnover":
		return r.turnover(ctx)
	case "summary":
		return r.summary(ctx, args[1:])
	case "watch":
		return r.watch(ctx)
	case "help", "-h", "--help":
		printUsage(r.out)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// open loads the stored ledger. Notifications go to the log and to rec.
func (r *runner) open(ctx context.Context, rec *notify.Recorder) (*app.App, func(), error) {
	validator := validation.New()
	store, err := cli.OpenSnapshots(ctx, r.logger, r.cfg, backup.NewCodec(validator))
	if err != nil {
		return nil, nil, err
	}
	a, err := r.start(ctx, store, validator, rec)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return a, func() { store.Close() }, nil
}

func (r *runner) start(ctx context.Context, store *storage.Snapshots, validator *validation.Validator, rec *notify.Recorder) (*app.App, error) {
	a := app.New(store, app.Options{
		Clock:     r.clock,
		Validator: validator,
		Notifier:  notify.Fanout{notify.NewLogSink(r.logger.Logger), rec},
	})
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *runner) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	formatName := fs.String("format", r.cfg.BackupFormat, "json or yaml")
	dir := fs.String("out", r.cfg.BackupDir, "directory to write the backup to")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	f, err := backup.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	a, closeStore, err := r.open(ctx, notify.NewRecorder(0))
	if err != nil {
		return err
	}
	defer closeStore()

	name, raw, err := a.Export(ctx, f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	path := filepath.Join(*dir, name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintln(r.out, path)
	return nil
}

func (r *runner) importFile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	formatName := fs.String("format", "", "json or yaml (default: from the file extension)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	path := fs.Arg(0)

	name := *formatName
	if name == "" {
		name = filepath.Ext(path)
		if len(name) > 0 {
			name = name[1:]
		}
	}
	f, err := backup.ParseFormat(name)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	a, closeStore, err := r.open(ctx, notify.NewRecorder(0))
	if err != nil {
		return err
	}
	defer closeStore()

	if err := a.Import(ctx, raw, f); err != nil {
		return err
	}
	data := a.Snapshot()
	fmt.Fprintf(r.out, "imported %d incomes, %d fixed costs, %d cards\n",
		len(data.Incomes), len(data.FixedCosts), len(data.Cards))
	return nil
}

// restore reads the history before loading, since the load may itself save
// a turned over snapshot.
func (r *runner) restore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	back := fs.Int("n", 1, "how many saved versions to go back")
	if err := fs.Parse(args); err != nil || *back < 1 || fs.NArg() != 0 {
		return errUsage
	}

	validator := validation.New()
	store, err := cli.OpenSnapshots(ctx, r.logger, r.cfg, backup.NewCodec(validator))
	if err != nil {
		return err
	}
	defer store.Close()

	hist, err := store.History(ctx, *back)
	if err != nil {
		return err
	}
	if len(hist) < *back {
		return fmt.Errorf("only %d previous versions are stored", len(hist))
	}

	a, err := r.start(ctx, store, validator, notify.NewRecorder(0))
	if err != nil {
		return err
	}
	if err := a.Import(ctx, hist[*back-1], backup.FormatJSON); err != nil {
		return err
	}
	data := a.Snapshot()
	fmt.Fprintf(r.out, "restored %d incomes, %d fixed costs, %d cards\n",
		len(data.Incomes), len(data.FixedCosts), len(data.Cards))
	return nil
}

// turnover relies on the turnover every load runs, then reports what it did.
func (r *runner) turnover(ctx context.Context) error {
	rec := notify.NewRecorder(0)
	a, closeStore, err := r.open(ctx, rec)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, n := range rec.Recent() {
		fmt.Fprintf(r.out, "%s: %s\n", n.Severity, n.Message)
	}
	if k, ok := a.Snapshot().Watermark(); ok {
		fmt.Fprintf(r.out, "last processed month: %s\n", k)
	}
	return nil
}

func (r *runner) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	month := fs.String("month", "", "month to summarise, YYYY-MM (default: current)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	k := core.CurrentMonthKey(r.clock)
	if *month != "" {
		var err error
		if k, err = core.ParseMonthKey(*month); err != nil {
			return err
		}
	}

	a, closeStore, err := r.open(ctx, notify.NewRecorder(0))
	if err != nil {
		return err
	}
	defer closeStore()

	data := a.Snapshot()
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Month  core.MonthSummary `json:"month"`
		Report core.Report       `json:"report"`
	}{core.SummarizeMonth(data, k), core.BuildReport(data)})
}

func (r *runner) watch(ctx context.Context) error {
	if r.cfg.AMQPURL == "" {
		return errors.New("watch needs AMQP_URL")
	}
	client, err := amqp.NewClient(r.cfg.AMQPURL, r.cfg.AMQPExchange, r.cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	r.logger.Info("Watching notifications", "queue", r.cfg.AMQPQueue)
	err = client.ConsumeNotifications(ctx, func(msg *amqp.NotificationMessage) error {
		_, err := fmt.Fprintf(r.out, "%s [%s] %s\n",
			msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Severity, msg.Message)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
