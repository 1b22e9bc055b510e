package strategy

import (
	"testing"

	"hotRankBacktest/internal/domain"

	"github.com/stretchr/testify/assert"
)

func sigBar(close float64) *domain.Bar {
	return &domain.Bar{Code: "000001", Close: close}
}

func dayBar(code string, open, high, low, close float64) *domain.Bar {
	return &domain.Bar{Code: code, Open: open, High: high, Low: low, Close: close}
}

func TestBreakout_Evaluate(t *testing.T) {
	b := &Breakout{RiseTrigger: 0.02}
	signal := sigBar(10.00) // trigger 10.20

	cases := []struct {
		name  string
		today *domain.Bar
		fired bool
	}{
		{"trigger crossed intraday", dayBar("000001", 10.05, 10.50, 10.00, 10.40), true},
		{"trigger exactly touched by high", dayBar("000001", 10.00, 10.20, 9.95, 10.10), true},
		{"never reached the trigger", dayBar("000001", 10.00, 10.19, 9.95, 10.10), false},
		{"gapped above the trigger", dayBar("000001", 10.50, 11.00, 10.30, 10.80), false},
		{"opened exactly at the trigger", dayBar("000001", 10.20, 10.60, 10.20, 10.50), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, condition, fired := b.Evaluate(tc.today, signal)
			assert.Equal(t, tc.fired, fired)
			assert.InDelta(t, 10.20, price, 1e-9, "trigger price reported either way")
			assert.Equal(t, domain.EntryBreakout, condition)
		})
	}
}

func TestBreakout_SegmentTier(t *testing.T) {
	b := &Breakout{
		RiseTrigger:    0.02,
		RiseTriggerAlt: 0.03,
		Segment:        PrefixSegment([]string{"30", "688"}),
	}
	signal := sigBar(10.00)

	// Main-board code uses the base tier.
	price, _, _ := b.Evaluate(dayBar("000001", 10.0, 10.5, 10.0, 10.3), signal)
	assert.InDelta(t, 10.20, price, 1e-9)

	// Growth-board codes use the wider tier.
	price, _, _ = b.Evaluate(dayBar("300750", 10.0, 10.5, 10.0, 10.3), signal)
	assert.InDelta(t, 10.30, price, 1e-9)
	price, _, _ = b.Evaluate(dayBar("688981", 10.0, 10.5, 10.0, 10.3), signal)
	assert.InDelta(t, 10.30, price, 1e-9)
}

func TestBreakdown_Evaluate(t *testing.T) {
	b := &Breakdown{DropTrigger: 0.03, MaxDropTrigger: 0.08}
	signal := sigBar(10.00) // trigger 9.70, floor 9.20

	cases := []struct {
		name  string
		today *domain.Bar
		fired bool
	}{
		{"dipped to the trigger", dayBar("000001", 9.90, 10.00, 9.65, 9.80), true},
		{"held above the trigger", dayBar("000001", 9.90, 10.00, 9.71, 9.80), false},
		{"low exactly at the trigger", dayBar("000001", 9.90, 10.00, 9.70, 9.80), true},
		{"crashed through the floor", dayBar("000001", 9.30, 9.40, 9.10, 9.15), false},
		{"low exactly at the floor", dayBar("000001", 9.40, 9.50, 9.20, 9.30), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, condition, fired := b.Evaluate(tc.today, signal)
			assert.Equal(t, tc.fired, fired)
			assert.InDelta(t, 9.70, price, 1e-9)
			assert.Equal(t, domain.EntryBreakdown, condition)
		})
	}
}

func TestBreakdown_FloorDisabledWhenZero(t *testing.T) {
	b := &Breakdown{DropTrigger: 0.03}
	_, _, fired := b.Evaluate(dayBar("000001", 9.00, 9.10, 8.50, 8.80), sigBar(10.00))
	assert.True(t, fired, "no floor: any depth below the trigger fills")
}

func TestOpenOrBreakout_Evaluate(t *testing.T) {
	o := &OpenOrBreakout{
		BuyOnGapDown: true,
		Breakout:     Breakout{RiseTrigger: 0.02},
	}
	signal := sigBar(10.00)

	// Gap-down day fills at the open.
	price, condition, fired := o.Evaluate(dayBar("000001", 9.80, 10.10, 9.70, 10.00), signal)
	assert.True(t, fired)
	assert.Equal(t, 9.80, price)
	assert.Equal(t, domain.EntryGapDownOpen, condition)

	// Open at or above the signal close falls back to the breakout trigger.
	price, condition, fired = o.Evaluate(dayBar("000001", 10.00, 10.50, 10.00, 10.40), signal)
	assert.True(t, fired)
	assert.InDelta(t, 10.20, price, 1e-9)
	assert.Equal(t, domain.EntryBreakout, condition)

	// With the gap-down fill disabled the open is ignored.
	o.BuyOnGapDown = false
	_, condition, fired = o.Evaluate(dayBar("000001", 9.80, 9.90, 9.70, 9.85), signal)
	assert.False(t, fired)
	assert.Equal(t, domain.EntryBreakout, condition)
}

func TestPrefixSegment(t *testing.T) {
	seg := PrefixSegment([]string{"30", "688"})
	assert.True(t, seg("300750"))
	assert.True(t, seg("688981"))
	assert.False(t, seg("000001"))
	assert.False(t, seg("600519"))
	assert.False(t, seg("683000"), "68 alone is not a listed prefix")
}
