package analytics

import (
	"sort"

	"hotRankBacktest/internal/domain"
)

// PerformanceMetrics holds performance metrics for a completed run,
// computed from the closed-trade ledger and the daily NAV series.
type PerformanceMetrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPNL      float64
	AverageWin    float64
	AverageLoss   float64
	ProfitFactor  float64
	Expectancy    float64

	CumulativeReturn float64 // Final NAV over initial cash, minus one
	MaxDrawdown      float64 // Worst peak-to-trough NAV decline, fraction
	FinalNAV         float64
}

// Analyze computes metrics from a run's outputs. The NAV series drives
// return and drawdown; the trade ledger drives the per-trade statistics.
func Analyze(trades []*domain.Trade, navSeries []domain.NavPoint, initialCash float64) *PerformanceMetrics {
	m := &PerformanceMetrics{FinalNAV: initialCash}

	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EntryDate.Equal(sorted[j].EntryDate) {
			return sorted[i].EntryDate.Before(sorted[j].EntryDate)
		}
		return sorted[i].Code < sorted[j].Code
	})

	var grossWin, grossLoss float64
	for _, t := range sorted {
		m.TotalTrades++
		m.TotalPNL += t.NetPNL
		if t.NetPNL > 0 {
			m.WinningTrades++
			grossWin += t.NetPNL
			m.AverageWin = (m.AverageWin*float64(m.WinningTrades-1) + t.NetPNL) / float64(m.WinningTrades)
		} else {
			m.LosingTrades++
			grossLoss += -t.NetPNL
			m.AverageLoss = (m.AverageLoss*float64(m.LosingTrades-1) + t.NetPNL) / float64(m.LosingTrades)
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
		m.Expectancy = m.TotalPNL / float64(m.TotalTrades)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossWin / grossLoss
	}

	peak := initialCash
	for _, p := range navSeries {
		if p.NAV > peak {
			peak = p.NAV
		}
		if peak > 0 {
			if dd := (peak - p.NAV) / peak; dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}
		m.FinalNAV = p.NAV
	}
	if initialCash > 0 {
		m.CumulativeReturn = m.FinalNAV/initialCash - 1
	}
	return m
}
