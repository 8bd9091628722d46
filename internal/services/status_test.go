package services

import (
	"testing"

	"financeiro/internal/core"
)

func TestStatusOf(t *testing.T) {
	paidJune := []core.PaidMonth{{MonthKey: "2024-06-01"}}
	paidMay := []core.PaidMonth{{MonthKey: "2024-05-01"}}

	tests := []struct {
		name  string
		cost  core.FixedCost
		today core.Date
		want  FixedCostStatus
	}{
		{"paid this month", core.FixedCost{DueDay: 5, PaidMonths: paidJune}, core.NewDate(2024, 6, 1), StatusPaid},
		{"paid last month only, past due day", core.FixedCost{DueDay: 5, PaidMonths: paidMay}, core.NewDate(2024, 6, 10), StatusOverdue},
		{"due today", core.FixedCost{DueDay: 10}, core.NewDate(2024, 6, 10), StatusOverdue},
		{"before due day", core.FixedCost{DueDay: 20}, core.NewDate(2024, 6, 10), StatusPending},
		{"day 31 in a short month", core.FixedCost{DueDay: 31}, core.NewDate(2024, 6, 30), StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.cost, tt.today); got != tt.want {
				t.Errorf("StatusOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFixedCostStatuses(t *testing.T) {
	data := core.NewAppData()
	data.FixedCosts = []core.FixedCost{
		{ID: "a", DueDay: 1, PaidMonths: []core.PaidMonth{}},
		{ID: "b", DueDay: 28, PaidMonths: []core.PaidMonth{}},
	}
	views := FixedCostStatuses(data, core.NewDate(2024, 6, 15))
	if len(views) != 2 || views[0].Status != StatusOverdue || views[1].Status != StatusPending {
		t.Fatalf("unexpected views %+v", views)
	}
}
