package utils

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotRankBacktest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func ledger() []*domain.Trade {
	return []*domain.Trade{
		{
			Code: "000001", Name: "平安银行",
			SignalDate: day("2024-03-04"), EntryDate: day("2024-03-05"),
			SignalRank: 3, SignalClose: 10.00,
			EntryCondition: domain.EntryBreakout,
			BuyPrice:       10.20, BuyExec: 10.2102, BuyShares: 900, BuyCost: 9194.18,
			ExitDate: day("2024-03-06"), ExitReason: domain.ExitT1Close, ExitRank: 15,
			SellPrice: 10.60, SellExec: 10.5894, SellProceeds: 9518.14,
			HoldDays: 2, NetPNL: 323.96, NetPNLPct: 0.035236,
		},
	}
}

func TestWriteTradesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, WriteTradesToCSV(ledger(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "code", rows[0][0])
	row := rows[1]
	assert.Equal(t, "000001", row[0])
	assert.Equal(t, "2024-03-05", row[3])
	assert.Equal(t, "rise_trigger", row[6])
	assert.Equal(t, "10.21", row[8], "prices at two decimals")
	assert.Equal(t, "900", row[9])
	assert.Equal(t, "sell_t1_close", row[12])
	assert.Equal(t, "0.0352", row[19], "return fraction at four decimals")
}

func TestWriteNavSeriesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.csv")
	series := []domain.NavPoint{
		{Date: day("2024-03-05"), Cash: 90805.82, PositionValue: 9360, NAV: 100165.82, PositionCount: 1},
	}
	require.NoError(t, WriteNavSeriesToCSV(series, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"date", "cash", "position_value", "nav", "n_positions"}, rows[0])
	assert.Equal(t, []string{"2024-03-05", "90805.82", "9360.00", "100165.82", "1"}, rows[1])
}

func TestWriteTradesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesTable(&buf, ledger()))

	out := buf.String()
	assert.Contains(t, out, "000001")
	assert.Contains(t, out, "sell_t1_close")
	assert.Contains(t, out, "3.52%")
}
