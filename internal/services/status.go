package services

import (
	"financeiro/internal/core"
)

// FixedCostStatus is the current-month state of a fixed cost.
type FixedCostStatus string

const (
	StatusPaid    FixedCostStatus = "paid"
	StatusOverdue FixedCostStatus = "overdue"
	StatusPending FixedCostStatus = "pending"
)

// FixedCostView pairs a fixed cost with its status for the current month.
type FixedCostView struct {
	core.FixedCost
	Status FixedCostStatus `json:"status"`
}

// StatusOf classifies f on day today. A cost not paid for today's month is
// overdue once its due day has been reached, pending before that.
func StatusOf(f core.FixedCost, today core.Date) FixedCostStatus {
	if f.IsPaidFor(today.MonthKey()) {
		return StatusPaid
	}
	if f.DueDay <= today.Day() {
		return StatusOverdue
	}
	return StatusPending
}

// FixedCostStatuses returns every fixed cost of data with its status.
func FixedCostStatuses(data core.AppData, today core.Date) []FixedCostView {
	out := make([]FixedCostView, 0, len(data.FixedCosts))
	for _, f := range data.FixedCosts {
		out = append(out, FixedCostView{FixedCost: f.Clone(), Status: StatusOf(f, today)})
	}
	return out
}
