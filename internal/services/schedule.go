package services

import (
	"financeiro/internal/core"
)

// BuildInstallments splits total into count installments billed on
// billingDay. Every installment but the last carries total/count rounded to
// cents; the last absorbs the rounding remainder so the values add up to
// total exactly. Installment i (1-based) falls due i months after the
// purchase month.
func BuildInstallments(purchaseDate core.Date, total core.Money, count, billingDay int) ([]core.Installment, error) {
	if err := core.ValidateInstallmentCount(count); err != nil {
		return nil, err
	}

	per := total.DivInt(count)
	last := total.Sub(per.MulInt(count - 1)).Round2()

	out := make([]core.Installment, 0, count)
	for i := 1; i <= count; i++ {
		value := per
		if i == count {
			value = last
		}
		out = append(out, core.Installment{
			Value:   value,
			DueDate: core.InstallmentDueDate(purchaseDate, i, billingDay),
		})
	}
	return out, nil
}
