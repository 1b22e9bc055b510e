package domain

import "time"

// Trade represents one round trip through a position. Identity fields are
// set when the entry fills; exit fields are filled exactly once on close.
type Trade struct {
	ID   int64  // Unique identifier (usually from DB)
	Code string // Stock code
	Name string // Stock display name

	SignalDate time.Time // Day whose closed data justified the entry
	EntryDate  time.Time // Day the fill occurred

	// Context captured at signal time.
	SignalRank   int     // Signal-day hot rank (0 = unranked)
	SignalClose  float64 // Signal-day close the trigger was derived from
	AmountSignal float64 // Signal-day traded value
	TriggerHigh  float64 // Entry-day high
	TriggerLow   float64 // Entry-day low

	EntryCondition EntryCondition // Which trigger fired

	BuyPrice     float64 // Theoretical trigger price
	BuyExec      float64 // Slippage-adjusted executed price
	BuyShares    int64
	BuyCost      float64 // Shares*exec + commission
	CashAfterBuy float64

	ExitDate      time.Time
	ExitReason    ExitReason
	ExitRank      int // Hot rank on the exit day (0 = unranked)
	SellPrice     float64
	SellExec      float64
	SellProceeds  float64 // Net of commission and stamp tax
	CashAfterSell float64

	HoldDays  int
	NetPNL    float64 // SellProceeds - BuyCost
	NetPNLPct float64 // NetPNL / BuyCost (0 when BuyCost is 0)
}
