package backtest

import (
	"context"
	"math"

	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/ports"
)

// Per-candidate skip reasons recorded by the executor. Non-fatal: the
// affected candidate is dropped and the simulation continues.
const (
	SkipOneWordBoard     = "skip_one_word_board"
	SkipLotSize          = "skip_lot_size"
	SkipInsufficientCash = "skip_insufficient_cash"
)

// ExecConfig holds the broker mechanics of the fill model.
type ExecConfig struct {
	FeeBuy           float64 // Buy commission rate
	FeeSell          float64 // Sell commission rate
	StampTaxSell     float64 // Stamp tax rate, sell side only
	SlippageBps      float64 // Fixed basis-point deviation from the trigger price
	MinCommission    float64 // Commission floor per fill
	MinLotSize       int64   // Board lot (minimum tradable share increment)
	PerTradeCashFrac float64 // Fraction of INITIAL capital allocated per trade
}

// Executor converts trigger prices into fills against the portfolio ledger.
// It is the only component that mutates portfolio state.
type Executor struct {
	cfg    ExecConfig
	logger ports.Logger
	stats  RunStats
}

// NewExecutor creates an executor sharing the run's stats counters.
func NewExecutor(cfg ExecConfig, logger ports.Logger, stats RunStats) *Executor {
	return &Executor{cfg: cfg, logger: logger, stats: stats}
}

// Buy attempts to fill an entry at the theoretical trigger price. It returns
// the opened trade, or an empty trade with a skip reason when the fill is
// rejected. The nominal allocation is a fixed fraction of initial capital,
// not of current equity; this deliberately changes compounding behaviour and
// must not be "fixed" to use current NAV.
func (e *Executor) Buy(ctx context.Context, pf *Portfolio, today, signal *domain.Bar, price float64, condition domain.EntryCondition) (*domain.Trade, string) {
	if today.IsOneWordBoard() {
		// Flat at the cap: no two-sided trading happened, mechanically unfillable.
		e.stats.Inc(SkipOneWordBoard)
		e.logger.Debug(ctx, "buy skipped: one-word limit board", map[string]interface{}{
			"date": today.Date.Format("2006-01-02"), "code": today.Code,
		})
		return nil, SkipOneWordBoard
	}

	buyExec := price * (1 + e.cfg.SlippageBps/10000)
	nominalCash := pf.InitialCash * e.cfg.PerTradeCashFrac

	lot := float64(e.cfg.MinLotSize)
	shares := int64(math.Floor(nominalCash/buyExec/lot)) * e.cfg.MinLotSize
	if shares == 0 {
		e.stats.Inc(SkipLotSize)
		e.logger.Debug(ctx, "buy skipped: allocation below one lot", map[string]interface{}{
			"date": today.Date.Format("2006-01-02"), "code": today.Code, "nominalCash": nominalCash,
		})
		return nil, SkipLotSize
	}

	notional := float64(shares) * buyExec
	commission := math.Max(notional*e.cfg.FeeBuy, e.cfg.MinCommission)
	totalCost := notional + commission
	if totalCost > pf.Cash {
		e.stats.Inc(SkipInsufficientCash)
		e.logger.Debug(ctx, "buy skipped: insufficient cash", map[string]interface{}{
			"date": today.Date.Format("2006-01-02"), "code": today.Code,
			"required": totalCost, "available": pf.Cash,
		})
		return nil, SkipInsufficientCash
	}

	pf.Cash -= totalCost

	trade := &domain.Trade{
		Code:           today.Code,
		Name:           today.Name,
		SignalDate:     signal.Date,
		EntryDate:      today.Date,
		SignalRank:     signal.HotRank,
		SignalClose:    signal.Close,
		AmountSignal:   signal.Amount,
		TriggerHigh:    today.High,
		TriggerLow:     today.Low,
		EntryCondition: condition,
		BuyPrice:       price,
		BuyExec:        buyExec,
		BuyShares:      shares,
		BuyCost:        totalCost,
		CashAfterBuy:   pf.Cash,
	}
	pf.Positions[today.Code] = &domain.Position{
		Code:   today.Code,
		Shares: shares,
		Trade:  trade,
	}

	e.stats.Inc("buy_success")
	e.logger.Info(ctx, "buy filled", map[string]interface{}{
		"date": today.Date.Format("2006-01-02"), "code": today.Code,
		"exec": buyExec, "shares": shares, "cost": totalCost, "cashAfter": pf.Cash,
		"condition": string(condition),
	})
	return trade, ""
}

// Sell closes an open position, credits the net proceeds and moves the
// trade to the closed ledger.
func (e *Executor) Sell(ctx context.Context, pf *Portfolio, pos *domain.Position, today *domain.Bar, decision domain.ExitDecision) *domain.Trade {
	trade := pos.Trade

	var sellPrice float64
	switch decision.PriceMode {
	case domain.SellAtOpen:
		sellPrice = today.Open
	case domain.SellAtLimitDown:
		sellPrice = today.LimitDownPrice
	default:
		sellPrice = today.Close
	}

	sellExec := sellPrice * (1 - e.cfg.SlippageBps/10000)
	notional := float64(pos.Shares) * sellExec
	commission := math.Max(notional*e.cfg.FeeSell, e.cfg.MinCommission)
	stamp := notional * e.cfg.StampTaxSell
	proceeds := notional - commission - stamp

	pf.Cash += proceeds

	trade.ExitDate = today.Date
	trade.ExitReason = decision.Reason
	trade.ExitRank = today.HotRank
	trade.SellPrice = sellPrice
	trade.SellExec = sellExec
	trade.SellProceeds = proceeds
	trade.CashAfterSell = pf.Cash
	trade.HoldDays = pos.DaysHeld + 1
	trade.NetPNL = proceeds - trade.BuyCost
	if trade.BuyCost != 0 {
		trade.NetPNLPct = trade.NetPNL / trade.BuyCost
	}

	delete(pf.Positions, pos.Code)
	pf.Trades = append(pf.Trades, trade)

	e.stats.Inc("sell_success")
	e.logger.Info(ctx, "sell filled", map[string]interface{}{
		"date": today.Date.Format("2006-01-02"), "code": pos.Code,
		"exec": sellExec, "shares": pos.Shares, "proceeds": proceeds,
		"pnl": trade.NetPNL, "reason": string(decision.Reason), "cashAfter": pf.Cash,
	})
	return trade
}
