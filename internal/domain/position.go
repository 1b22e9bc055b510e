package domain

// Position is the live counterpart of an open Trade, owned by the portfolio
// ledger and keyed by code. At most one open Position per code at any time.
type Position struct {
	Code     string
	Shares   int64
	DaysHeld int // Incremented once per simulated day while open
	Trade    *Trade
}
