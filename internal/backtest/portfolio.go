package backtest

import (
	"sort"
	"time"

	"hotRankBacktest/internal/domain"
)

// Portfolio is the single mutable ledger of a run: cash, open positions,
// the append-only closed-trade list and the daily NAV series. It is owned by
// the engine and mutated only through the Executor's buy/sell calls.
type Portfolio struct {
	InitialCash float64
	Cash        float64
	Positions   map[string]*domain.Position
	Trades      []*domain.Trade
	NavSeries   []domain.NavPoint
}

// NewPortfolio creates an empty portfolio funded with initialCash.
func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{
		InitialCash: initialCash,
		Cash:        initialCash,
		Positions:   make(map[string]*domain.Position),
	}
}

// OpenCodes returns the codes of all open positions in sorted order, so the
// per-day phases visit positions deterministically.
func (p *Portfolio) OpenCodes() []string {
	codes := make([]string, 0, len(p.Positions))
	for code := range p.Positions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Snapshot marks all open positions at today's close and appends a NAV
// point. A position whose ticker has no bar today contributes 0 to the
// position value (documented approximation, not an error).
func (p *Portfolio) Snapshot(date time.Time, today map[string]*domain.Bar) domain.NavPoint {
	var positionValue float64
	for code, pos := range p.Positions {
		if bar, ok := today[code]; ok {
			positionValue += bar.Close * float64(pos.Shares)
		}
	}
	point := domain.NavPoint{
		Date:          date,
		Cash:          p.Cash,
		PositionValue: positionValue,
		NAV:           p.Cash + positionValue,
		PositionCount: len(p.Positions),
	}
	p.NavSeries = append(p.NavSeries, point)
	return point
}
