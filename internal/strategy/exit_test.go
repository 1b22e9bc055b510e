package strategy

import (
	"testing"

	"hotRankBacktest/internal/domain"

	"github.com/stretchr/testify/assert"
)

func fullExitConfig() ExitConfig {
	return ExitConfig{
		ExitOnLimitDown:   true,
		DropStopPct:       0.07,
		MaxHoldDays:       5,
		HoldOnLimitUp:     true,
		ExitRankThreshold: 30,
		T1Close:           false,
	}
}

func heldPosition(daysHeld int) *domain.Position {
	return &domain.Position{
		Code: "000001", Shares: 900, DaysHeld: daysHeld,
		Trade: &domain.Trade{Code: "000001"},
	}
}

func exitBar(close, closePrev float64) *domain.Bar {
	return &domain.Bar{
		Code: "000001", Close: close, ClosePrev: closePrev,
		Open: closePrev, High: close + 0.1, Low: close - 0.1,
		HotRank: 5, IsTradable: true,
	}
}

func TestExit_NoRuleFires(t *testing.T) {
	e := NewExit(fullExitConfig())
	decision := e.Evaluate(heldPosition(1), exitBar(10.10, 10.00))
	assert.False(t, decision.Fire)
}

func TestExit_LimitDownOutranksEverything(t *testing.T) {
	e := NewExit(fullExitConfig())
	bar := exitBar(9.00, 10.00) // also a drop-stop day
	bar.IsLimitDown = true
	bar.LimitDownPrice = 9.00

	decision := e.Evaluate(heldPosition(5), bar)
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitLimitDown, decision.Reason)
	assert.Equal(t, domain.SellAtLimitDown, decision.PriceMode)
}

func TestExit_DropStop(t *testing.T) {
	e := NewExit(fullExitConfig())

	decision := e.Evaluate(heldPosition(1), exitBar(9.25, 10.00)) // -7.5%
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitDropStop, decision.Reason)
	assert.Equal(t, domain.SellAtClose, decision.PriceMode)

	decision = e.Evaluate(heldPosition(1), exitBar(9.31, 10.00)) // -6.9%
	assert.False(t, decision.Fire)
}

func TestExit_DropStopIgnoresMissingPrevClose(t *testing.T) {
	e := NewExit(fullExitConfig())
	bar := exitBar(9.00, 10.00)
	bar.ClosePrev = domain.MissingFloat()
	decision := e.Evaluate(heldPosition(1), bar)
	assert.False(t, decision.Fire, "no reference close, no drop-stop")
}

func TestExit_MaxHoldDays(t *testing.T) {
	e := NewExit(fullExitConfig())

	decision := e.Evaluate(heldPosition(4), exitBar(10.10, 10.00))
	assert.False(t, decision.Fire)

	decision = e.Evaluate(heldPosition(5), exitBar(10.10, 10.00))
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitMaxHold, decision.Reason)
}

func TestExit_DropStopBeatsMaxHold(t *testing.T) {
	e := NewExit(fullExitConfig())
	decision := e.Evaluate(heldPosition(5), exitBar(9.20, 10.00))
	assert.Equal(t, domain.ExitDropStop, decision.Reason)
}

func TestExit_LimitUpHoldSuppressesOnlyLowerRules(t *testing.T) {
	cfg := fullExitConfig()
	cfg.T1Close = true
	e := NewExit(cfg)

	// Limit-up day with a terrible rank: both the rank exit and the T+1
	// close are suppressed.
	bar := exitBar(11.00, 10.00)
	bar.IsLimitUp = true
	bar.HotRank = 99
	decision := e.Evaluate(heldPosition(1), bar)
	assert.False(t, decision.Fire)

	// The max-hold rule still outranks the limit-up hold.
	decision = e.Evaluate(heldPosition(5), bar)
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitMaxHold, decision.Reason)
}

func TestExit_RankDrop(t *testing.T) {
	e := NewExit(fullExitConfig())

	bar := exitBar(10.10, 10.00)
	bar.HotRank = 31
	decision := e.Evaluate(heldPosition(1), bar)
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitRankDrop, decision.Reason)
	assert.Equal(t, domain.SellAtClose, decision.PriceMode)

	// Exactly at the threshold holds.
	bar.HotRank = 30
	assert.False(t, e.Evaluate(heldPosition(1), bar).Fire)

	// An unranked bar cannot prove the rank fell.
	bar.HotRank = 0
	assert.False(t, e.Evaluate(heldPosition(1), bar).Fire)
}

func TestExit_RankDropAtOpen(t *testing.T) {
	cfg := fullExitConfig()
	cfg.RankExitAtOpen = true
	e := NewExit(cfg)

	bar := exitBar(10.10, 10.00)
	bar.HotRank = 31
	decision := e.Evaluate(heldPosition(1), bar)
	assert.Equal(t, domain.SellAtOpen, decision.PriceMode)
}

func TestExit_T1Close(t *testing.T) {
	e := NewExit(ExitConfig{T1Close: true})

	assert.False(t, e.Evaluate(heldPosition(0), exitBar(10.10, 10.00)).Fire, "entry day itself never closes out")

	decision := e.Evaluate(heldPosition(1), exitBar(10.10, 10.00))
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitT1Close, decision.Reason)
	assert.Equal(t, domain.SellAtClose, decision.PriceMode)
}

func TestExit_RankOnlyConfigHoldsUntilRankDrop(t *testing.T) {
	// Rank-exit-only variant: no drop stop, no max hold, no T+1 close-out.
	// A position rides losses and long holding periods alike until the
	// ticker falls out of the popularity range.
	e := NewExit(ExitConfig{ExitRankThreshold: 30, RankExitAtOpen: true})

	assert.False(t, e.Evaluate(heldPosition(1), exitBar(9.20, 10.00)).Fire, "an 8%% drop alone is not an exit")
	assert.False(t, e.Evaluate(heldPosition(20), exitBar(10.10, 10.00)).Fire, "no timed close-out")

	bar := exitBar(10.10, 10.00)
	bar.HotRank = 45
	decision := e.Evaluate(heldPosition(20), bar)
	assert.True(t, decision.Fire)
	assert.Equal(t, domain.ExitRankDrop, decision.Reason)
	assert.Equal(t, domain.SellAtOpen, decision.PriceMode)
}

func TestExit_AllRulesDisabledNeverFires(t *testing.T) {
	e := NewExit(ExitConfig{})
	decision := e.Evaluate(heldPosition(100), exitBar(5.00, 10.00))
	assert.False(t, decision.Fire)
}
