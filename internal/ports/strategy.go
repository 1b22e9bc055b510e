package ports

import (
	"hotRankBacktest/internal/domain"
)

// UniverseFilter narrows signal-day bars to a ranked candidate list.
// signalDay is the day whose closed data justifies the trade; today is the
// execution day; twoPrior may be nil when the table does not reach back far
// enough. The result is ordered by preference (best candidate first).
type UniverseFilter interface {
	Filter(today, signalDay, twoPrior map[string]*domain.Bar) []*domain.Bar
	// Stats exposes per-filter reject counts accumulated across the run.
	Stats() map[string]int
}

// EntryEvaluator decides whether a buy would have filled on the execution
// day, and at what theoretical price.
type EntryEvaluator interface {
	// Evaluate returns the trigger price and condition tag when the entry
	// fires; fired is false otherwise.
	Evaluate(today, signal *domain.Bar) (price float64, condition domain.EntryCondition, fired bool)
}

// ExitEvaluator decides whether an open position must be closed on the
// execution day. Suspended/missing bars are handled by the simulation loop,
// never passed here.
type ExitEvaluator interface {
	Evaluate(position *domain.Position, today *domain.Bar) domain.ExitDecision
}

// SegmentFn classifies a stock code into the higher-volatility threshold
// tier (e.g. ChiNext/STAR boards). A configuration concern, pluggable so the
// engine carries no exchange-specific prefix knowledge.
type SegmentFn func(code string) bool
