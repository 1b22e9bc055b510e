package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"hotRankBacktest/internal/domain"
)

const dateLayout = "2006-01-02"

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

// WriteTradesToCSV exports the closed-trade ledger to a CSV file.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{
		"code", "name", "signal_date", "entry_date", "signal_rank", "signal_close",
		"entry_condition", "buy_price", "buy_exec", "buy_shares", "buy_cost",
		"exit_date", "exit_reason", "exit_rank", "sell_price", "sell_exec",
		"sell_proceeds", "hold_days", "net_pnl", "net_pnl_pct",
	})

	for _, t := range trades {
		writer.Write([]string{
			t.Code,
			t.Name,
			t.SignalDate.Format(dateLayout),
			t.EntryDate.Format(dateLayout),
			strconv.Itoa(t.SignalRank),
			f2(t.SignalClose),
			string(t.EntryCondition),
			f2(t.BuyPrice),
			f2(t.BuyExec),
			strconv.FormatInt(t.BuyShares, 10),
			f2(t.BuyCost),
			t.ExitDate.Format(dateLayout),
			string(t.ExitReason),
			strconv.Itoa(t.ExitRank),
			f2(t.SellPrice),
			f2(t.SellExec),
			f2(t.SellProceeds),
			strconv.Itoa(t.HoldDays),
			f2(t.NetPNL),
			f4(t.NetPNLPct),
		})
	}
	return writer.Error()
}

// WriteNavSeriesToCSV exports the daily NAV series to a CSV file.
func WriteNavSeriesToCSV(series []domain.NavPoint, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"date", "cash", "position_value", "nav", "n_positions"})
	for _, p := range series {
		writer.Write([]string{
			p.Date.Format(dateLayout),
			f2(p.Cash),
			f2(p.PositionValue),
			f2(p.NAV),
			strconv.Itoa(p.PositionCount),
		})
	}
	return writer.Error()
}

// WriteTradesTable renders the ledger in a human-readable aligned table.
func WriteTradesTable(w io.Writer, trades []*domain.Trade) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "code\tentry\texit\treason\trank\tshares\tbuy\tsell\tpnl\tpnl%\thold\t")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f%%\t%d\t\n",
			t.Code,
			t.EntryDate.Format(dateLayout),
			t.ExitDate.Format(dateLayout),
			t.ExitReason,
			t.SignalRank,
			t.BuyShares,
			t.BuyExec,
			t.SellExec,
			t.NetPNL,
			t.NetPNLPct*100,
			t.HoldDays,
		)
	}
	return tw.Flush()
}
