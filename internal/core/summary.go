package core

import "sort"

// MonthSummary is the dashboard view of a single month.
type MonthSummary struct {
	MonthKey MonthKey `json:"monthKey"`
	Label    string   `json:"label"`
	Incomes  Money    `json:"incomes"`
	// Due is everything owed in the month: every fixed cost plus the
	// installments falling due in it.
	Due     Money `json:"due"`
	Paid    Money `json:"paid"`
	Balance Money `json:"balance"`
}

// BillLine is one installment shown on a card bill.
type BillLine struct {
	PurchaseID  string `json:"purchaseId"`
	Description string `json:"description"`
	Index       int    `json:"index"` // 0-based position inside the purchase
	Number      int    `json:"number"`
	Count       int    `json:"count"`
	DueDate     Date   `json:"dueDate"`
	Value       Money  `json:"value"`
	IsPaid      bool   `json:"isPaid"`
}

// CardBill lists a card's installments due in one month.
type CardBill struct {
	CardID   string     `json:"cardId"`
	CardName string     `json:"cardName"`
	MonthKey MonthKey   `json:"monthKey"`
	Lines    []BillLine `json:"lines"`
	Total    Money      `json:"total"`
}

// FixedCostReport is a fixed cost with the number of months it was paid.
type FixedCostReport struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	DueDay      int    `json:"dueDate"`
	Value       Money  `json:"value"`
	PaidCount   int    `json:"paidCount"`
}

// Report summarises the whole ledger based on what was actually paid.
type Report struct {
	TotalIncomes          Money             `json:"totalIncomes"`
	TotalFixedCostsPaid   Money             `json:"totalFixedCostsPaid"`
	TotalInstallmentsPaid Money             `json:"totalInstallmentsPaid"`
	TotalOutflow          Money             `json:"totalOutflow"`
	Balance               Money             `json:"balance"`
	Incomes               []Income          `json:"incomes"`
	FixedCosts            []FixedCostReport `json:"fixedCosts"`
}

// SummarizeMonth computes the dashboard totals for month k.
func SummarizeMonth(a AppData, k MonthKey) MonthSummary {
	s := MonthSummary{MonthKey: k, Label: k.Label()}

	for _, e := range a.Incomes {
		if e.Date.MonthKey() == k {
			s.Incomes = s.Incomes.Add(e.Value)
		}
	}

	for _, f := range a.FixedCosts {
		s.Due = s.Due.Add(f.Value)
		if f.IsPaidFor(k) {
			s.Paid = s.Paid.Add(f.Value)
		}
	}

	for _, c := range a.Cards {
		for _, p := range c.Purchases {
			for _, inst := range p.Installments {
				if inst.DueDate.MonthKey() != k {
					continue
				}
				s.Due = s.Due.Add(inst.Value)
				if inst.IsPaid {
					s.Paid = s.Paid.Add(inst.Value)
				}
			}
		}
	}

	s.Balance = s.Incomes.Sub(s.Paid)
	return s
}

// BillFor returns the installments of card c due in month k.
func BillFor(c CreditCard, k MonthKey) CardBill {
	bill := CardBill{CardID: c.ID, CardName: c.Name, MonthKey: k, Lines: []BillLine{}}
	for _, p := range c.Purchases {
		for i, inst := range p.Installments {
			if inst.DueDate.MonthKey() != k {
				continue
			}
			bill.Lines = append(bill.Lines, BillLine{
				PurchaseID:  p.ID,
				Description: p.Description,
				Index:       i,
				Number:      i + 1,
				Count:       len(p.Installments),
				DueDate:     inst.DueDate,
				Value:       inst.Value,
				IsPaid:      inst.IsPaid,
			})
			bill.Total = bill.Total.Add(inst.Value)
		}
	}
	return bill
}

// BuildReport computes the all-time report.
func BuildReport(a AppData) Report {
	r := Report{
		Incomes:    append([]Income{}, a.Incomes...),
		FixedCosts: make([]FixedCostReport, 0, len(a.FixedCosts)),
	}

	for _, e := range a.Incomes {
		r.TotalIncomes = r.TotalIncomes.Add(e.Value)
	}
	sort.SliceStable(r.Incomes, func(i, j int) bool {
		return r.Incomes[i].Date.After(r.Incomes[j].Date.Time)
	})

	for _, f := range a.FixedCosts {
		r.TotalFixedCostsPaid = r.TotalFixedCostsPaid.Add(f.Value.MulInt(len(f.PaidMonths)))
		r.FixedCosts = append(r.FixedCosts, FixedCostReport{
			ID:          f.ID,
			Description: f.Description,
			DueDay:      f.DueDay,
			Value:       f.Value,
			PaidCount:   len(f.PaidMonths),
		})
	}

	for _, c := range a.Cards {
		for _, p := range c.Purchases {
			for _, inst := range p.Installments {
				if inst.IsPaid {
					r.TotalInstallmentsPaid = r.TotalInstallmentsPaid.Add(inst.Value)
				}
			}
		}
	}

	r.TotalOutflow = r.TotalFixedCostsPaid.Add(r.TotalInstallmentsPaid)
	r.Balance = r.TotalIncomes.Sub(r.TotalOutflow)
	return r
}
