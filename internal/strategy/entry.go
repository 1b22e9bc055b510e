package strategy

import (
	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/ports"
)

// Breakout fires when today's price action reaches a trigger above the
// signal-day close. Both sides of the check are required: High >= trigger
// proves the trigger was reached intraday, Low <= trigger proves it was
// reachable. Checking only Low <= trigger would accept fills at prices the
// market gapped past.
type Breakout struct {
	RiseTrigger    float64        // Base tier, e.g. 0.02
	RiseTriggerAlt float64        // Higher-volatility tier, e.g. 0.03
	Segment        ports.SegmentFn // Selects the alt tier; nil = base tier always
}

// Evaluate implements ports.EntryEvaluator.
func (b *Breakout) Evaluate(today, signal *domain.Bar) (float64, domain.EntryCondition, bool) {
	tier := b.RiseTrigger
	if b.Segment != nil && b.Segment(today.Code) {
		tier = b.RiseTriggerAlt
	}
	trigger := signal.Close * (1 + tier)
	fired := today.High >= trigger && today.Low <= trigger
	return trigger, domain.EntryBreakout, fired
}

// Breakdown fires when today's low touches a trigger below the signal-day
// close, optionally rejecting days that gapped down through a floor price
// (such a day is treated as unfillable and undesirable).
type Breakdown struct {
	DropTrigger    float64
	DropTriggerAlt float64
	MaxDropTrigger float64 // 0 disables the floor
	Segment        ports.SegmentFn
}

// Evaluate implements ports.EntryEvaluator.
func (b *Breakdown) Evaluate(today, signal *domain.Bar) (float64, domain.EntryCondition, bool) {
	tier := b.DropTrigger
	if b.Segment != nil && b.Segment(today.Code) {
		tier = b.DropTriggerAlt
	}
	trigger := signal.Close * (1 - tier)
	fired := today.Low <= trigger
	if fired && b.MaxDropTrigger > 0 {
		floor := signal.Close * (1 - b.MaxDropTrigger)
		fired = today.Low >= floor
	}
	return trigger, domain.EntryBreakdown, fired
}

// OpenOrBreakout fills at today's open on a gap-down day (open below the
// signal close), falling back to the breakout trigger otherwise. Used by the
// first-entry strategy family.
type OpenOrBreakout struct {
	BuyOnGapDown bool
	Breakout     Breakout
}

// Evaluate implements ports.EntryEvaluator.
func (o *OpenOrBreakout) Evaluate(today, signal *domain.Bar) (float64, domain.EntryCondition, bool) {
	if o.BuyOnGapDown && today.Open < signal.Close {
		return today.Open, domain.EntryGapDownOpen, true
	}
	return o.Breakout.Evaluate(today, signal)
}
