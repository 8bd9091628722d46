// Package services provides the ledger's business rules: month turnover,
// mutations and the installment schedule.
//
// This file implements the Strategy Pattern for month-turnover settlement.
// Each ledger that can hold overdue obligations has its own settler that
// knows which of its items count as elapsed and how to mark them settled.

package services

import (
	"fmt"

	"financeiro/internal/core"
)

// SettlementKind names the ledger a settler works on.
type SettlementKind string

const (
	SettleFixedCosts   SettlementKind = "fixed_costs"
	SettleInstallments SettlementKind = "installments"
)

// Settler is the strategy interface for auto-settling elapsed obligations.
type Settler interface {
	// Settle marks as paid every obligation of its ledger that the turnover
	// from month last to month current considers elapsed, and returns how
	// many it changed. data is owned by the caller and mutated in place.
	Settle(data *core.AppData, last, current core.MonthKey) int
}

// FixedCostSettler marks every fixed cost as paid for the previous watermark
// month, unless it already is.
type FixedCostSettler struct{}

func (FixedCostSettler) Settle(data *core.AppData, last, _ core.MonthKey) int {
	n := 0
	for i := range data.FixedCosts {
		f := &data.FixedCosts[i]
		if f.IsPaidFor(last) {
			continue
		}
		f.PaidMonths = append(f.PaidMonths, core.PaidMonth{MonthKey: last})
		n++
	}
	return n
}

// InstallmentSettler marks as paid every unpaid installment due in any month
// before the current one. A backlog of several months is swept in one pass.
type InstallmentSettler struct{}

func (InstallmentSettler) Settle(data *core.AppData, _, current core.MonthKey) int {
	n := 0
	for ci := range data.Cards {
		purchases := data.Cards[ci].Purchases
		for pi := range purchases {
			insts := purchases[pi].Installments
			for ii := range insts {
				if insts[ii].IsPaid || !insts[ii].DueDate.MonthKey().Before(current) {
					continue
				}
				insts[ii].IsPaid = true
				n++
			}
		}
	}
	return n
}

// settlementOrder fixes the order settlers run in.
var settlementOrder = []SettlementKind{SettleFixedCosts, SettleInstallments}

var settlers = map[SettlementKind]Settler{
	SettleFixedCosts:   FixedCostSettler{},
	SettleInstallments: InstallmentSettler{},
}

// GetSettler returns the settler registered for kind.
func GetSettler(kind SettlementKind) (Settler, error) {
	s, ok := settlers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown settlement kind: %s", kind)
	}
	return s, nil
}
