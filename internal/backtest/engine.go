package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/ports"
)

// Mode selects how entries are generated.
type Mode int

const (
	// ModeSameDay filters on signal-day (T-1) data and fills against
	// today's bar in the same loop iteration (breakout/breakdown families).
	ModeSameDay Mode = iota
	// ModeFirstEntry queues "first time entering the top-N" signals on day T
	// for resolution against day T+1's bar. Unfilled signals are discarded.
	ModeFirstEntry
)

// Config holds the engine-level parameters of a run.
type Config struct {
	RunLabel     string
	InitialCash  float64
	MaxPositions int
	StartDate    time.Time // Zero = from the table's first day
	EndDate      time.Time // Zero = to the table's last day
	Mode         Mode

	// ModeFirstEntry signal-scan parameters.
	HotTopN        int
	FilterSTSignal bool
}

// Result is the complete output of one run.
type Result struct {
	Trades    []*domain.Trade
	NavSeries []domain.NavPoint
	FinalCash float64
	OpenCount int
	Stats     map[string]int
}

// Engine replays the feature table day by day, in a fixed phase order:
// sell check, pending-buy execution, signal generation, NAV snapshot. It is
// single-threaded and deterministic; instantiate one engine per run.
type Engine struct {
	cfg      Config
	universe ports.UniverseFilter
	entry    ports.EntryEvaluator
	exit     ports.ExitEvaluator
	exec     *Executor
	logger   ports.Logger

	portfolio *Portfolio
	pending   map[string]*domain.Bar // signal-day bars awaiting next-day resolution
	stats     RunStats
}

// New validates the configuration and assembles an engine. The stats map is
// shared with the executor (and, by the caller's choice, the universe
// filter) so all counters of one run land in one place.
func New(cfg Config, universe ports.UniverseFilter, entry ports.EntryEvaluator, exit ports.ExitEvaluator, exec *Executor, stats RunStats, logger ports.Logger) (*Engine, error) {
	if cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("%w: initial cash must be positive", ports.ErrConfigurationError)
	}
	if cfg.MaxPositions <= 0 {
		return nil, fmt.Errorf("%w: max positions must be positive", ports.ErrConfigurationError)
	}
	if cfg.Mode == ModeSameDay && universe == nil {
		return nil, fmt.Errorf("%w: same-day mode requires a universe filter", ports.ErrConfigurationError)
	}
	if cfg.Mode == ModeFirstEntry && cfg.HotTopN <= 0 {
		return nil, fmt.Errorf("%w: first-entry mode requires a positive hot_top_n", ports.ErrConfigurationError)
	}
	if entry == nil || exit == nil || exec == nil || logger == nil {
		return nil, fmt.Errorf("%w: entry/exit evaluators, executor and logger are required", ports.ErrConfigurationError)
	}
	return &Engine{
		cfg:       cfg,
		universe:  universe,
		entry:     entry,
		exit:      exit,
		exec:      exec,
		logger:    logger,
		portfolio: NewPortfolio(cfg.InitialCash),
		pending:   make(map[string]*domain.Bar),
		stats:     stats,
	}, nil
}

// Run replays the date range. A decision at day T may read bars up to and
// including T but never beyond; each day is fully resolved before the next
// begins.
func (e *Engine) Run(ctx context.Context, table *domain.FeatureTable) (*Result, error) {
	dates := table.Slice(e.cfg.StartDate, e.cfg.EndDate)
	if len(dates) < 2 {
		return nil, fmt.Errorf("%w: %d trading day(s) in range", ports.ErrInsufficientData, len(dates))
	}

	e.logger.Info(ctx, "backtest started", map[string]interface{}{
		"run":   e.cfg.RunLabel,
		"from":  dates[0].Format("2006-01-02"),
		"to":    dates[len(dates)-1].Format("2006-01-02"),
		"days":  len(dates),
		"cash":  e.cfg.InitialCash,
		"slots": e.cfg.MaxPositions,
	})

	for i, date := range dates {
		if i == 0 {
			continue // no signal-day data for the first date in range
		}
		today := table.Day(date)
		signalDay := table.Day(dates[i-1])
		var twoPrior map[string]*domain.Bar
		if i >= 2 {
			twoPrior = table.Day(dates[i-2])
		}

		e.sellCheck(ctx, date, today)
		e.executePending(ctx, today)
		e.generateSignals(ctx, today, signalDay, twoPrior)
		point := e.portfolio.Snapshot(date, today)

		e.logger.Debug(ctx, "day closed", map[string]interface{}{
			"date": date.Format("2006-01-02"), "cash": point.Cash,
			"positionValue": point.PositionValue, "nav": point.NAV,
			"positions": point.PositionCount,
		})
	}

	e.logger.Info(ctx, "backtest finished", map[string]interface{}{
		"run": e.cfg.RunLabel, "trades": len(e.portfolio.Trades),
		"openPositions": len(e.portfolio.Positions), "finalCash": e.portfolio.Cash,
	})

	return &Result{
		Trades:    e.portfolio.Trades,
		NavSeries: e.portfolio.NavSeries,
		FinalCash: e.portfolio.Cash,
		OpenCount: len(e.portfolio.Positions),
		Stats:     e.stats,
	}, nil
}

type firingExit struct {
	pos      *domain.Position
	bar      *domain.Bar
	decision domain.ExitDecision
}

// sellCheck evaluates exits for every open position and executes all firing
// sells before any buy is considered, freeing cash and position slots for
// the same day. Suspended tickers are held unconditionally; their holding
// counter still advances.
func (e *Engine) sellCheck(ctx context.Context, date time.Time, today map[string]*domain.Bar) {
	var firing []firingExit
	for _, code := range e.portfolio.OpenCodes() {
		pos := e.portfolio.Positions[code]
		pos.DaysHeld++

		bar, ok := today[code]
		if !ok || !bar.IsTradable {
			e.stats.Inc("hold_suspended")
			e.logger.Debug(ctx, "position held: suspended or missing bar", map[string]interface{}{
				"date": date.Format("2006-01-02"), "code": code,
			})
			continue
		}

		decision := e.exit.Evaluate(pos, bar)
		if decision.Fire {
			firing = append(firing, firingExit{pos: pos, bar: bar, decision: decision})
		}
	}
	for _, f := range firing {
		e.exec.Sell(ctx, e.portfolio, f.pos, f.bar, f.decision)
	}
}

// executePending resolves signals queued on a prior day against today's
// bars. Every pending signal is consumed this day, filled or not.
func (e *Engine) executePending(ctx context.Context, today map[string]*domain.Bar) {
	if len(e.pending) == 0 {
		return
	}

	signals := make([]*domain.Bar, 0, len(e.pending))
	for _, sig := range e.pending {
		signals = append(signals, sig)
	}
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].HotRank != signals[j].HotRank {
			return signals[i].HotRank < signals[j].HotRank
		}
		return signals[i].Code < signals[j].Code
	})
	e.pending = make(map[string]*domain.Bar)

	for _, sig := range signals {
		if len(e.portfolio.Positions) >= e.cfg.MaxPositions {
			e.stats.Inc("pending_dropped_capacity")
			continue
		}
		if _, held := e.portfolio.Positions[sig.Code]; held {
			continue
		}
		bar, ok := today[sig.Code]
		if !ok || !bar.IsTradable {
			e.stats.Inc("pending_dropped_untradable")
			continue
		}
		price, condition, fired := e.entry.Evaluate(bar, sig)
		if !fired {
			e.stats.Inc("pending_no_fill")
			continue
		}
		e.exec.Buy(ctx, e.portfolio, bar, sig, price, condition)
	}
}

// generateSignals runs the mode-specific third phase. Same-day mode filters
// the universe on signal-day data and fills immediately; first-entry mode
// queues today's fresh top-N entrants for next-day resolution.
func (e *Engine) generateSignals(ctx context.Context, today, signalDay, twoPrior map[string]*domain.Bar) {
	switch e.cfg.Mode {
	case ModeFirstEntry:
		e.queueFirstEntries(today, signalDay)
	default:
		e.enterSameDay(ctx, today, signalDay, twoPrior)
	}
}

func (e *Engine) enterSameDay(ctx context.Context, today, signalDay, twoPrior map[string]*domain.Bar) {
	if len(e.portfolio.Positions) >= e.cfg.MaxPositions {
		return
	}
	candidates := e.universe.Filter(today, signalDay, twoPrior)
	for _, sig := range candidates {
		if len(e.portfolio.Positions) >= e.cfg.MaxPositions {
			break
		}
		if _, held := e.portfolio.Positions[sig.Code]; held {
			continue
		}
		bar, ok := today[sig.Code]
		if !ok {
			continue
		}
		price, condition, fired := e.entry.Evaluate(bar, sig)
		if !fired {
			continue
		}
		if _, skip := e.exec.Buy(ctx, e.portfolio, bar, sig, price, condition); skip == SkipInsufficientCash {
			// Lower-ranked candidates need at least as much cash.
			break
		}
	}
}

func (e *Engine) queueFirstEntries(today, signalDay map[string]*domain.Bar) {
	codes := make([]string, 0, len(today))
	for code := range today {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		bar := today[code]
		if _, held := e.portfolio.Positions[code]; held {
			continue
		}
		if _, queued := e.pending[code]; queued {
			continue
		}
		if !bar.IsTradable {
			continue
		}
		if e.cfg.FilterSTSignal && bar.IsST {
			continue
		}
		if !bar.HasHotRank() || bar.HotRank > e.cfg.HotTopN {
			continue
		}
		if prev, ok := signalDay[code]; ok && prev.HasHotRank() && prev.HotRank <= e.cfg.HotTopN {
			continue // already inside the top-N yesterday, not a first entry
		}
		e.pending[code] = bar
		e.stats.Inc("first_entry_count")
	}
}
