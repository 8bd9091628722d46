// Package app owns the ledger snapshot for a running process. It loads the
// snapshot once, reconciles the month turnover, and then applies every
// mutation as "one snapshot in, one snapshot out", saving and notifying after
// each change.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"financeiro/internal/backup"
	"financeiro/internal/core"
	"financeiro/internal/notify"
	"financeiro/internal/services"
	"financeiro/internal/storage"
	"financeiro/internal/validation"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("app not started")

// ValidationError lists the problems found in a mutation payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// Store is the persistence the App needs.
type Store interface {
	Load(ctx context.Context) (core.AppData, bool, error)
	Save(ctx context.Context, data core.AppData) error
}

// Options configures an App. Zero values get sensible defaults.
type Options struct {
	Clock     core.Clock
	Notifier  notify.Sink
	Validator *validation.Validator
	// NewID overrides identifier generation, mainly for tests.
	NewID func() string
}

type App struct {
	mu      sync.RWMutex
	data    core.AppData
	started bool

	store     Store
	clock     core.Clock
	ledger    *services.Ledger
	turnover  *services.TurnoverProcessor
	validator *validation.Validator
	codec     *backup.Codec
	notifier  notify.Sink
}

func New(store Store, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = core.SystemClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogSink(nil)
	}
	if opts.Validator == nil {
		opts.Validator = validation.New()
	}

	ledger := services.NewLedger(opts.Clock)
	if opts.NewID != nil {
		ledger = ledger.WithIDGenerator(opts.NewID)
	}

	return &App{
		data:      core.NewAppData(),
		store:     store,
		clock:     opts.Clock,
		ledger:    ledger,
		turnover:  services.NewTurnoverProcessor(opts.Clock),
		validator: opts.Validator,
		codec:     backup.NewCodec(opts.Validator),
		notifier:  opts.Notifier,
	}
}

// Start loads the stored snapshot and runs the month turnover once. Stored
// data that cannot be read is reported, copied aside by the store and
// replaced by an empty snapshot.
// Only a failing store read is returned as an error.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, found, err := a.store.Load(ctx)
	switch {
	case errors.Is(err, backup.ErrMalformedSnapshot):
		slog.ErrorContext(ctx, "Stored snapshot is malformed, starting empty", "error", err)
		a.notify(ctx, notify.Error("Failed to load local data."))
		data = core.NewAppData()
	case err != nil:
		a.notify(ctx, notify.Error("Failed to load local data."))
		return fmt.Errorf("load snapshot: %w", err)
	}

	next, res := a.turnover.Process(ctx, data)
	a.data = next
	a.started = true

	slog.InfoContext(ctx, "Ledger loaded",
		"found", found,
		"incomes", len(next.Incomes),
		"fixed_costs", len(next.FixedCosts),
		"cards", len(next.Cards))

	if res.Advanced {
		// Save failures are reported by persist; the reconciled state stays.
		_ = a.persist(ctx)
	}
	if n := res.Settled(); n > 0 {
		a.notify(ctx, notify.Success(fmt.Sprintf("Month turnover: %d overdue items were marked as paid.", n)))
	}
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (a *App) Snapshot() core.AppData {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.Clone()
}

// Turnover runs the month turnover against the current snapshot. It is a
// no-op when the watermark is already the current month.
func (a *App) Turnover(ctx context.Context) (services.TurnoverResult, error) {
	var res services.TurnoverResult
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		next, r := a.turnover.Process(ctx, data)
		res = r
		if !r.Advanced {
			return data, errUnchanged
		}
		return next, nil
	})
	if errors.Is(err, errUnchanged) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if n := res.Settled(); n > 0 {
		a.notify(ctx, notify.Success(fmt.Sprintf("Month turnover: %d overdue items were marked as paid.", n)))
	}
	return res, nil
}

func (a *App) AddIncome(ctx context.Context, in services.NewIncome) (core.Income, error) {
	if err := a.check(in, core.Income{Date: in.Date, Description: in.Description, Value: in.Value}); err != nil {
		return core.Income{}, err
	}
	var created core.Income
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		var next core.AppData
		next, created = a.ledger.AddIncome(data, in)
		return next, nil
	})
	if err != nil {
		return core.Income{}, err
	}
	a.notify(ctx, notify.Success("Income added successfully!"))
	return created, nil
}

func (a *App) DeleteIncome(ctx context.Context, id string) error {
	if err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		return a.ledger.DeleteIncome(data, id)
	}); err != nil {
		return err
	}
	a.notify(ctx, notify.Warning("Income removed."))
	return nil
}

func (a *App) AddFixedCost(ctx context.Context, in services.NewFixedCost) (core.FixedCost, error) {
	if err := a.check(in, core.FixedCost{Description: in.Description, Value: in.Value, DueDay: in.DueDay}); err != nil {
		return core.FixedCost{}, err
	}
	var created core.FixedCost
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		var next core.AppData
		next, created = a.ledger.AddFixedCost(data, in)
		return next, nil
	})
	if err != nil {
		return core.FixedCost{}, err
	}
	a.notify(ctx, notify.Success("Fixed cost added successfully!"))
	return created, nil
}

func (a *App) DeleteFixedCost(ctx context.Context, id string) error {
	if err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		return a.ledger.DeleteFixedCost(data, id)
	}); err != nil {
		return err
	}
	a.notify(ctx, notify.Warning("Fixed cost removed."))
	return nil
}

// ToggleFixedCostPaid flips whether a fixed cost is paid for the current
// month.
func (a *App) ToggleFixedCostPaid(ctx context.Context, id string) (core.FixedCost, error) {
	var updated core.FixedCost
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		next, f, err := a.ledger.ToggleFixedCostPaid(data, id)
		updated = f
		return next, err
	})
	if err != nil {
		return core.FixedCost{}, err
	}

	if updated.IsPaidFor(core.CurrentMonthKey(a.clock)) {
		a.notify(ctx, notify.Success(fmt.Sprintf("'%s' marked as PAID.", updated.Description)))
	} else {
		a.notify(ctx, notify.Warning(fmt.Sprintf("'%s' marked as NOT PAID.", updated.Description)))
	}
	return updated, nil
}

func (a *App) AddCard(ctx context.Context, in services.NewCard) (core.CreditCard, error) {
	if err := a.check(in, core.CreditCard{Name: in.Name, DueDay: in.DueDay}); err != nil {
		return core.CreditCard{}, err
	}
	var created core.CreditCard
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		var next core.AppData
		next, created = a.ledger.AddCard(data, in)
		return next, nil
	})
	if err != nil {
		return core.CreditCard{}, err
	}
	a.notify(ctx, notify.Success("Card added successfully!"))
	return created, nil
}

func (a *App) DeleteCard(ctx context.Context, id string) error {
	if err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		return a.ledger.DeleteCard(data, id)
	}); err != nil {
		return err
	}
	a.notify(ctx, notify.Warning("Card removed."))
	return nil
}

func (a *App) RegisterPurchase(ctx context.Context, cardID string, in services.NewPurchase) (core.Purchase, error) {
	if err := a.check(in, rule(func() error {
		// A purchase carries the same date, description and amount rules as
		// an income.
		if err := (core.Income{Date: in.Date, Description: in.Description, Value: in.Value}).Validate(); err != nil {
			return err
		}
		return core.ValidateInstallmentCount(in.Installments)
	})); err != nil {
		return core.Purchase{}, err
	}
	var created core.Purchase
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		next, p, err := a.ledger.RegisterPurchase(data, cardID, in)
		created = p
		return next, err
	})
	if err != nil {
		return core.Purchase{}, err
	}
	a.notify(ctx, notify.Success("Purchase registered successfully!"))
	return created, nil
}

// ToggleInstallment flips the paid flag of the installment at the 0-based
// index of a purchase.
func (a *App) ToggleInstallment(ctx context.Context, cardID, purchaseID string, index int) (core.Installment, error) {
	var (
		updated     core.Installment
		description string
	)
	err := a.apply(ctx, func(data core.AppData) (core.AppData, error) {
		next, inst, err := a.ledger.ToggleInstallment(data, cardID, purchaseID, index)
		if err != nil {
			return data, err
		}
		updated = inst
		description = purchaseDescription(next, cardID, purchaseID)
		return next, nil
	})
	if err != nil {
		return core.Installment{}, err
	}

	if updated.IsPaid {
		a.notify(ctx, notify.Success(fmt.Sprintf("Installment %d of '%s' marked as PAID.", index+1, description)))
	} else {
		a.notify(ctx, notify.Warning(fmt.Sprintf("Installment %d of '%s' marked as NOT PAID.", index+1, description)))
	}
	return updated, nil
}

// Export renders the current snapshot and returns it with its download name.
// The snapshot is not modified.
func (a *App) Export(ctx context.Context, f backup.Format) (string, []byte, error) {
	if !a.isStarted() {
		return "", nil, ErrNotStarted
	}
	raw, err := a.codec.Encode(a.Snapshot(), f)
	if err != nil {
		return "", nil, err
	}
	a.notify(ctx, notify.Success("Backup exported successfully!"))
	return backup.FileName(f, core.Today(a.clock)), raw, nil
}

// Import replaces the snapshot with the one encoded in raw. Text that is not
// a snapshot leaves the current state untouched and returns an error
// wrapping backup.ErrMalformedSnapshot.
func (a *App) Import(ctx context.Context, raw []byte, f backup.Format) error {
	data, err := a.codec.Decode(raw, f)
	if err != nil {
		slog.WarnContext(ctx, "Import rejected", "error", err, "format", f)
		a.notify(ctx, notify.Error("Error importing file. Check that it is a valid backup."))
		return err
	}

	if err := a.apply(ctx, func(core.AppData) (core.AppData, error) {
		return data, nil
	}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Snapshot imported",
		"incomes", len(data.Incomes),
		"fixed_costs", len(data.FixedCosts),
		"cards", len(data.Cards))
	a.notify(ctx, notify.Success("Data imported successfully!"))
	return nil
}

// Dashboard summarises the current month.
func (a *App) Dashboard() core.MonthSummary {
	return core.SummarizeMonth(a.Snapshot(), core.CurrentMonthKey(a.clock))
}

// Report summarises everything paid so far.
func (a *App) Report() core.Report {
	return core.BuildReport(a.Snapshot())
}

// FixedCostStatuses reports each fixed cost's status for today.
func (a *App) FixedCostStatuses() []services.FixedCostView {
	return services.FixedCostStatuses(a.Snapshot(), core.Today(a.clock))
}

// CardBill lists the card's installments due in month k. An empty k means
// the current month.
func (a *App) CardBill(cardID string, k core.MonthKey) (core.CardBill, error) {
	if k == "" {
		k = core.CurrentMonthKey(a.clock)
	}
	for _, c := range a.Snapshot().Cards {
		if c.ID == cardID {
			return core.BillFor(c, k), nil
		}
	}
	return core.CardBill{}, fmt.Errorf("card %s: %w", cardID, core.ErrNotFound)
}

var errUnchanged = errors.New("unchanged")

// apply runs fn against the current snapshot under the write lock and, if
// it succeeds, installs and saves the result. A failed save keeps the new
// snapshot in memory and returns the storage error.
func (a *App) apply(ctx context.Context, fn func(core.AppData) (core.AppData, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return ErrNotStarted
	}

	next, err := fn(a.data)
	if err != nil {
		return err
	}
	a.data = next
	return a.persist(ctx)
}

// persist saves the current snapshot. Callers hold the write lock.
func (a *App) persist(ctx context.Context) error {
	if err := a.store.Save(ctx, a.data); err != nil {
		slog.ErrorContext(ctx, "Failed to save snapshot", "error", err)
		a.notify(ctx, notify.Error("Failed to save data. Storage may be full."))
		if !errors.Is(err, storage.ErrStorage) {
			err = fmt.Errorf("%w: %w", storage.ErrStorage, err)
		}
		return err
	}
	return nil
}

// check validates a payload by tag and the entity it describes by the
// domain rules.
func (a *App) check(payload any, entity interface{ Validate() error }) error {
	if err := a.validator.Struct(payload); err != nil {
		return &ValidationError{Problems: validation.Describe(err)}
	}
	if err := entity.Validate(); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

type rule func() error

func (r rule) Validate() error { return r() }

func (a *App) notify(ctx context.Context, n notify.Notification) {
	a.notifier.Notify(ctx, n)
}

func (a *App) isStarted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.started
}

func purchaseDescription(data core.AppData, cardID, purchaseID string) string {
	for _, c := range data.Cards {
		if c.ID != cardID {
			continue
		}
		for _, p := range c.Purchases {
			if p.ID == purchaseID {
				return p.Description
			}
		}
	}
	return ""
}
