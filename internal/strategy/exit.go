package strategy

import (
	"math"

	"hotRankBacktest/internal/domain"
)

// ExitConfig holds the exit-rule thresholds. Zero values disable the
// corresponding optional rules.
type ExitConfig struct {
	ExitOnLimitDown   bool    // Sell at the limit-down price on a limit-down day
	DropStopPct       float64 // Sell at close when the day's return <= -this (e.g. 0.07)
	MaxHoldDays       int     // Sell at close after holding this many days
	HoldOnLimitUp     bool    // Hold through limit-up days
	ExitRankThreshold int     // Sell when today's hot rank exceeds this
	RankExitAtOpen    bool    // Rank exit executes at open instead of close
	T1Close           bool    // Default close-out one trading day after entry
}

// Exit evaluates the exit rules for one position in strict priority order:
// limit-down, drop-stop, max holding period, limit-up hold-through,
// popularity-rank exit, default T+1 close-out. The limit-up hold only
// suppresses the lower-priority rules; it never overrides a drop-stop or a
// max-hold sell.
type Exit struct {
	cfg ExitConfig
}

// NewExit creates the evaluator.
func NewExit(cfg ExitConfig) *Exit {
	return &Exit{cfg: cfg}
}

// Evaluate implements ports.ExitEvaluator. The caller guarantees today is a
// tradable bar; position.DaysHeld already counts today.
func (e *Exit) Evaluate(position *domain.Position, today *domain.Bar) domain.ExitDecision {
	if e.cfg.ExitOnLimitDown && today.IsLimitDown {
		return domain.ExitDecision{Fire: true, Reason: domain.ExitLimitDown, PriceMode: domain.SellAtLimitDown}
	}

	if e.cfg.DropStopPct > 0 && today.ClosePrev > 0 && !math.IsNaN(today.ClosePrev) {
		ret := (today.Close - today.ClosePrev) / today.ClosePrev
		if ret <= -e.cfg.DropStopPct {
			return domain.ExitDecision{Fire: true, Reason: domain.ExitDropStop, PriceMode: domain.SellAtClose}
		}
	}

	if e.cfg.MaxHoldDays > 0 && position.DaysHeld >= e.cfg.MaxHoldDays {
		return domain.ExitDecision{Fire: true, Reason: domain.ExitMaxHold, PriceMode: domain.SellAtClose}
	}

	if e.cfg.HoldOnLimitUp && today.IsLimitUp {
		return domain.ExitDecision{}
	}

	if e.cfg.ExitRankThreshold > 0 && today.HasHotRank() && today.HotRank > e.cfg.ExitRankThreshold && !today.IsLimitUp {
		mode := domain.SellAtClose
		if e.cfg.RankExitAtOpen {
			mode = domain.SellAtOpen
		}
		return domain.ExitDecision{Fire: true, Reason: domain.ExitRankDrop, PriceMode: mode}
	}

	if e.cfg.T1Close && position.DaysHeld >= 1 {
		return domain.ExitDecision{Fire: true, Reason: domain.ExitT1Close, PriceMode: domain.SellAtClose}
	}

	return domain.ExitDecision{}
}
