package services

import (
	"context"
	"log/slog"

	"financeiro/internal/core"
)

// TurnoverResult describes what a month turnover did.
type TurnoverResult struct {
	// Previous is the watermark before the run; empty when none was set.
	Previous core.MonthKey
	Current  core.MonthKey
	// Advanced is false when the watermark was already at or past Current.
	Advanced bool
	Counts   map[SettlementKind]int
}

// Settled is the total number of obligations auto-settled.
func (r TurnoverResult) Settled() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// ReconcileMonth runs the month turnover for current against data and
// returns the resulting snapshot. data is never modified.
//
// Nothing happens when the watermark is already at or after current. On the
// very first run (no watermark) only the watermark is set. Otherwise every
// settler is applied with the old watermark before it advances to current.
func ReconcileMonth(data core.AppData, current core.MonthKey) (core.AppData, TurnoverResult) {
	res := TurnoverResult{Current: current, Counts: map[SettlementKind]int{}}

	last, ok := data.Watermark()
	if ok {
		res.Previous = last
		if !last.Before(current) {
			return data, res
		}
	}

	out := data.Clone()
	if ok {
		for _, kind := range settlementOrder {
			s, err := GetSettler(kind)
			if err != nil {
				continue
			}
			res.Counts[kind] = s.Settle(&out, last, current)
		}
	}

	wm := current
	out.LastProcessedMonth = &wm
	res.Advanced = true
	return out, res
}

// TurnoverProcessor runs the month turnover against the clock's current month.
type TurnoverProcessor struct {
	clock core.Clock
}

// NewTurnoverProcessor creates a processor reading "now" from clock.
func NewTurnoverProcessor(clock core.Clock) *TurnoverProcessor {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &TurnoverProcessor{clock: clock}
}

// Process reconciles data against the current month.
func (p *TurnoverProcessor) Process(ctx context.Context, data core.AppData) (core.AppData, TurnoverResult) {
	current := core.CurrentMonthKey(p.clock)
	out, res := ReconcileMonth(data, current)

	if !res.Advanced {
		slog.DebugContext(ctx, "Month turnover not needed",
			"month_key", current,
			"last_processed_month", res.Previous)
		return out, res
	}

	if res.Previous == "" {
		slog.InfoContext(ctx, "First month turnover, watermark set",
			"month_key", current)
		return out, res
	}

	slog.InfoContext(ctx, "Month turnover complete",
		"from_month", res.Previous,
		"month_key", current,
		"fixed_costs_settled", res.Counts[SettleFixedCosts],
		"installments_settled", res.Counts[SettleInstallments],
		"settled_count", res.Settled())

	return out, res
}
