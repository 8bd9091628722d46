package services

import (
	"fmt"

	"financeiro/internal/core"
)

type (
	// NewIncome is the payload for recording an income.
	NewIncome struct {
		Date        core.Date  `json:"date" validate:"required"`
		Description string     `json:"description" validate:"required,max=200"`
		Value       core.Money `json:"value" validate:"gt=0"`
	}

	// NewFixedCost is the payload for adding a fixed cost.
	NewFixedCost struct {
		Description string     `json:"description" validate:"required,max=200"`
		Value       core.Money `json:"value" validate:"gt=0"`
		DueDay      int        `json:"dueDate" validate:"min=1,max=31"`
	}

	// NewCard is the payload for adding a credit card.
	NewCard struct {
		Name   string `json:"name" validate:"required,max=200"`
		DueDay int    `json:"dueDate" validate:"min=1,max=31"`
	}

	// NewPurchase is the payload for registering a purchase on a card.
	NewPurchase struct {
		Date         core.Date  `json:"date" validate:"required"`
		Description  string     `json:"description" validate:"required,max=200"`
		Value        core.Money `json:"value" validate:"gt=0"`
		Installments int        `json:"installments" validate:"min=1,max=60"`
	}
)

// Ledger applies mutations to snapshots. Every method takes the current
// snapshot and returns a fresh one; the argument is never modified. A
// reference to a missing record yields core.ErrNotFound together with the
// unchanged snapshot.
type Ledger struct {
	clock core.Clock
	newID func() string
}

// NewLedger creates a ledger reading "now" from clock.
func NewLedger(clock core.Clock) *Ledger {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Ledger{clock: clock, newID: core.NewID}
}

// WithIDGenerator replaces the identifier source.
func (l *Ledger) WithIDGenerator(fn func() string) *Ledger {
	cp := *l
	cp.newID = fn
	return &cp
}

func (l *Ledger) AddIncome(data core.AppData, in NewIncome) (core.AppData, core.Income) {
	out := data.Clone()
	inc := core.Income{
		ID:          l.newID(),
		Date:        in.Date,
		Description: in.Description,
		Value:       in.Value,
	}
	out.Incomes = append(out.Incomes, inc)
	return out, inc
}

func (l *Ledger) DeleteIncome(data core.AppData, id string) (core.AppData, error) {
	idx := -1
	for i, e := range data.Incomes {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return data, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	out := data.Clone()
	out.Incomes = append(out.Incomes[:idx], out.Incomes[idx+1:]...)
	return out, nil
}

func (l *Ledger) AddFixedCost(data core.AppData, in NewFixedCost) (core.AppData, core.FixedCost) {
	out := data.Clone()
	f := core.FixedCost{
		ID:          l.newID(),
		Description: in.Description,
		Value:       in.Value,
		DueDay:      in.DueDay,
		PaidMonths:  []core.PaidMonth{},
	}
	out.FixedCosts = append(out.FixedCosts, f)
	return out, f
}

func (l *Ledger) DeleteFixedCost(data core.AppData, id string) (core.AppData, error) {
	idx := findFixedCost(data, id)
	if idx < 0 {
		return data, fmt.Errorf("fixed cost %s: %w", id, core.ErrNotFound)
	}
	out := data.Clone()
	out.FixedCosts = append(out.FixedCosts[:idx], out.FixedCosts[idx+1:]...)
	return out, nil
}

// ToggleFixedCostPaid flips the paid mark of the cost for the current month
// only. It reports the cost as it is after the toggle.
func (l *Ledger) ToggleFixedCostPaid(data core.AppData, id string) (core.AppData, core.FixedCost, error) {
	idx := findFixedCost(data, id)
	if idx < 0 {
		return data, core.FixedCost{}, fmt.Errorf("fixed cost %s: %w", id, core.ErrNotFound)
	}

	current := core.CurrentMonthKey(l.clock)
	out := data.Clone()
	f := &out.FixedCosts[idx]

	kept := make([]core.PaidMonth, 0, len(f.PaidMonths)+1)
	removed := false
	for _, p := range f.PaidMonths {
		if p.MonthKey == current {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		kept = append(kept, core.PaidMonth{MonthKey: current})
	}
	f.PaidMonths = kept

	return out, *f, nil
}

func (l *Ledger) AddCard(data core.AppData, in NewCard) (core.AppData, core.CreditCard) {
	out := data.Clone()
	c := core.CreditCard{
		ID:        l.newID(),
		Name:      in.Name,
		DueDay:    in.DueDay,
		Purchases: []core.Purchase{},
	}
	out.Cards = append(out.Cards, c)
	return out, c
}

func (l *Ledger) DeleteCard(data core.AppData, id string) (core.AppData, error) {
	idx := findCard(data, id)
	if idx < 0 {
		return data, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	out := data.Clone()
	out.Cards = append(out.Cards[:idx], out.Cards[idx+1:]...)
	return out, nil
}

// RegisterPurchase appends a purchase to the card with its installment
// schedule generated from the card's billing day.
func (l *Ledger) RegisterPurchase(data core.AppData, cardID string, in NewPurchase) (core.AppData, core.Purchase, error) {
	idx := findCard(data, cardID)
	if idx < 0 {
		return data, core.Purchase{}, fmt.Errorf("card %s: %w", cardID, core.ErrNotFound)
	}

	insts, err := BuildInstallments(in.Date, in.Value, in.Installments, data.Cards[idx].DueDay)
	if err != nil {
		return data, core.Purchase{}, err
	}

	p := core.Purchase{
		ID:           l.newID(),
		Date:         in.Date,
		Description:  in.Description,
		Value:        in.Value,
		Installments: insts,
	}

	out := data.Clone()
	out.Cards[idx].Purchases = append(out.Cards[idx].Purchases, p)
	return out, p.Clone(), nil
}

// ToggleInstallment flips the paid flag of the installment at the 0-based
// index of a purchase and returns the installment after the change.
func (l *Ledger) ToggleInstallment(data core.AppData, cardID, purchaseID string, index int) (core.AppData, core.Installment, error) {
	ci := findCard(data, cardID)
	if ci < 0 {
		return data, core.Installment{}, fmt.Errorf("card %s: %w", cardID, core.ErrNotFound)
	}
	pi := -1
	for i, p := range data.Cards[ci].Purchases {
		if p.ID == purchaseID {
			pi = i
			break
		}
	}
	if pi < 0 {
		return data, core.Installment{}, fmt.Errorf("purchase %s: %w", purchaseID, core.ErrNotFound)
	}
	if index < 0 || index >= len(data.Cards[ci].Purchases[pi].Installments) {
		return data, core.Installment{}, fmt.Errorf("installment %d of purchase %s: %w", index, purchaseID, core.ErrNotFound)
	}

	out := data.Clone()
	inst := &out.Cards[ci].Purchases[pi].Installments[index]
	inst.IsPaid = !inst.IsPaid
	return out, *inst, nil
}

func findFixedCost(data core.AppData, id string) int {
	for i, f := range data.FixedCosts {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func findCard(data core.AppData, id string) int {
	for i, c := range data.Cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
