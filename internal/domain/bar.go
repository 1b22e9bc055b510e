package domain

import (
	"math"
	"time"
)

// Bar represents one day's feature row for one stock: OHLCV plus the derived
// features produced by the upstream feature pipeline. Every "prev"/rolling
// field on a bar dated T is computed from bars strictly before T.
type Bar struct {
	Code string    // Stock code (e.g., "600519")
	Name string    // Display name (may be empty)
	Date time.Time // Trading day (UTC midnight)

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Amount float64 // Traded value in yuan

	ClosePrev float64 // Prior bar's close (NaN if no prior bar)

	HotRank          int  // Popularity rank, smaller = more popular; 0 = not ranked
	IsTradable       bool // False on suspended/zero-volume days
	IsST             bool // Special-treatment (distressed) flag
	DaysSinceListing int

	// Rolling risk features, percent units, NaN when the lookback window is
	// not covered.
	AmplitudePrev float64 // Prior day (high-low)/close_prev * 100
	PctChangePrev float64 // Prior day close-over-close return * 100
	IntradayDrop  float64 // (low-close_prev)/close_prev * 100 for the signal day
	MaxDrop5D     float64 // Worst intraday drop over the prior 5 days
	CumReturn2D   float64 // Trailing 2-day compounded return * 100

	OneWordBoard5D int // Count of one-word-board days in the prior 5 days

	LimitUpPrice   float64
	LimitDownPrice float64
	IsLimitUp      bool
	IsLimitDown    bool
}

// HasHotRank reports whether the bar carries a popularity rank.
func (b *Bar) HasHotRank() bool {
	return b.HotRank > 0
}

// IsOneWordBoard reports whether the day traded flat at the limit-up price
// (open = high = low = close at the cap), i.e. mechanically unfillable.
func (b *Bar) IsOneWordBoard() bool {
	flat := b.Open == b.High && b.High == b.Low && b.Low == b.Close
	if !flat {
		return false
	}
	if b.IsLimitUp {
		return true
	}
	// Tolerate rounding of the cap price.
	return b.LimitUpPrice > 0 && b.Open >= b.LimitUpPrice-0.01
}

// MissingFloat is the canonical "feature not available" value for rolling
// features. Loaders should use it for empty cells.
func MissingFloat() float64 { return math.NaN() }
