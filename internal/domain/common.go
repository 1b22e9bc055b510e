package domain

import "time"

// EntryCondition identifies which trigger produced a fill.
type EntryCondition string

const (
	EntryBreakout    EntryCondition = "rise_trigger"
	EntryBreakdown   EntryCondition = "drop_trigger"
	EntryGapDownOpen EntryCondition = "gap_down_open"
)

// ExitReason indicates why a position was closed. Enumerated, not free text.
type ExitReason string

const (
	ExitLimitDown ExitReason = "sell_limitdown"
	ExitDropStop  ExitReason = "sell_drop_stop"
	ExitMaxHold   ExitReason = "sell_max_hold_days"
	ExitRankDrop  ExitReason = "sell_rank_drop"
	ExitT1Close   ExitReason = "sell_t1_close"
)

// SellPriceMode selects the price basis a sell executes against.
type SellPriceMode int

const (
	SellAtClose SellPriceMode = iota
	SellAtOpen
	SellAtLimitDown
)

// ExitDecision is the outcome of evaluating the exit rules for one open
// position against one day's bar.
type ExitDecision struct {
	Fire      bool
	Reason    ExitReason
	PriceMode SellPriceMode
}

// NavPoint is one entry of the daily net-asset-value series.
type NavPoint struct {
	Date          time.Time
	Cash          float64
	PositionValue float64
	NAV           float64
	PositionCount int
}

// RunInfo is the run-level metadata stored alongside a run's outputs.
// InitialCash carries the true starting capital, so later analysis does not
// have to approximate it from the first NAV point (which already reflects
// any first-day fills and fees).
type RunInfo struct {
	Label       string
	Strategy    string
	InitialCash float64
	CreatedAt   time.Time
}
