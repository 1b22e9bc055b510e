package backtest

import (
	"math"
	"sort"

	"hotRankBacktest/internal/domain"
)

// UniverseConfig holds the thresholds of the candidate filter chain.
// Zero values disable the corresponding optional filters where noted.
type UniverseConfig struct {
	HotTopN         int     // Popularity-rank ceiling on the signal day
	MinSignalAmount float64 // Minimum signal-day traded value, yuan
	FilterST        bool    // Exclude special-treatment tickers
	MinListingDays  int     // Exclude tickers listed fewer days than this

	// Signal-day volatility bounds, percent units. A candidate with a
	// missing amplitude/pct-change feature FAILS these bounds (conservative:
	// we cannot prove the day was calm).
	MaxAmplitudePrev float64
	MinPctChangePrev float64

	// Rolling-window filters. Missing features PASS these (the window is
	// not covered, so there is no evidence against the candidate).
	MaxDrop5DFloor float64 // Exclude when max_drop_5d or intraday_drop <= floor (e.g. -7)
	MaxCumReturn2D float64 // Exclude when trailing 2-day return exceeds this (e.g. 40)

	MaxOneWordBoard5D int // Exclude when prior-5d one-word-board count exceeds this

	// Dynamic 2-day popularity floor: max(rank T-1, rank T-2) must be at or
	// below this. Missing ranks pass.
	MaxHotRank2D int

	RequireSignalLimitUp bool // Optionally require the signal day to be limit-up
}

// Universe applies the ordered predicate chain over signal-day bars and
// returns candidates ranked by signal-day hot rank. Reject counts per filter
// are kept in Stats.
type Universe struct {
	cfg   UniverseConfig
	stats RunStats
}

// NewUniverse creates a filter sharing the run's stats counters.
func NewUniverse(cfg UniverseConfig, stats RunStats) *Universe {
	return &Universe{cfg: cfg, stats: stats}
}

// Stats returns the accumulated per-filter reject counts.
func (u *Universe) Stats() map[string]int { return u.stats }

// Filter narrows the signal-day bars to a ranked candidate list. twoPrior
// may be nil when no T-2 day exists. Only already-closed-bar information
// (signal day and earlier) feeds the predicates; today's bar is consulted
// solely for existence and tradability.
func (u *Universe) Filter(today, signalDay, twoPrior map[string]*domain.Bar) []*domain.Bar {
	candidates := make([]*domain.Bar, 0)
	for _, bar := range signalDay {
		if !bar.HasHotRank() || bar.HotRank > u.cfg.HotTopN {
			continue
		}
		candidates = append(candidates, bar)
	}
	u.stats.Add("signal_hot_rank", len(candidates))

	candidates = u.reject(candidates, "filter_amount", func(b *domain.Bar) bool {
		return b.Amount < u.cfg.MinSignalAmount
	})

	if u.cfg.FilterST {
		candidates = u.reject(candidates, "filter_st", func(b *domain.Bar) bool {
			return b.IsST
		})
	}

	candidates = u.reject(candidates, "filter_new_ipo", func(b *domain.Bar) bool {
		return b.DaysSinceListing <= u.cfg.MinListingDays
	})

	// Missing volatility features fail: candidate cannot be shown calm.
	candidates = u.reject(candidates, "filter_volatility", func(b *domain.Bar) bool {
		if math.IsNaN(b.AmplitudePrev) || math.IsNaN(b.PctChangePrev) {
			return true
		}
		return b.AmplitudePrev > u.cfg.MaxAmplitudePrev || b.PctChangePrev < u.cfg.MinPctChangePrev
	})

	// Missing rolling drawdown features pass.
	candidates = u.reject(candidates, "filter_max_drop_5d", func(b *domain.Bar) bool {
		if !math.IsNaN(b.MaxDrop5D) && b.MaxDrop5D <= u.cfg.MaxDrop5DFloor {
			return true
		}
		return !math.IsNaN(b.IntradayDrop) && b.IntradayDrop <= u.cfg.MaxDrop5DFloor
	})

	candidates = u.reject(candidates, "filter_2d_surge", func(b *domain.Bar) bool {
		return !math.IsNaN(b.CumReturn2D) && b.CumReturn2D > u.cfg.MaxCumReturn2D
	})

	candidates = u.reject(candidates, "filter_one_word_board", func(b *domain.Bar) bool {
		return b.OneWordBoard5D > u.cfg.MaxOneWordBoard5D
	})

	if u.cfg.MaxHotRank2D > 0 {
		candidates = u.reject(candidates, "filter_low_popularity", func(b *domain.Bar) bool {
			maxRank := b.HotRank
			if twoPrior != nil {
				if prev2, ok := twoPrior[b.Code]; ok && prev2.HasHotRank() && prev2.HotRank > maxRank {
					maxRank = prev2.HotRank
				}
			}
			return maxRank > u.cfg.MaxHotRank2D
		})
	}

	if u.cfg.RequireSignalLimitUp {
		candidates = u.reject(candidates, "filter_not_limit_up", func(b *domain.Bar) bool {
			return !b.IsLimitUp
		})
	}

	candidates = u.reject(candidates, "filter_untradable_today", func(b *domain.Bar) bool {
		bar, ok := today[b.Code]
		return !ok || !bar.IsTradable
	})

	// Smaller rank wins when capital or position slots bind; ties by code
	// for a fully deterministic order.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].HotRank != candidates[j].HotRank {
			return candidates[i].HotRank < candidates[j].HotRank
		}
		return candidates[i].Code < candidates[j].Code
	})
	return candidates
}

func (u *Universe) reject(in []*domain.Bar, counter string, bad func(*domain.Bar) bool) []*domain.Bar {
	out := in[:0]
	for _, b := range in {
		if bad(b) {
			u.stats.Inc(counter)
			continue
		}
		out = append(out, b)
	}
	return out
}
