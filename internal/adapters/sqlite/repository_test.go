package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hotRankBacktest/internal/adapters/logger"
	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewRepository(Config{DBPath: dbPath, Logger: logger.NewStdLogger(logger.LevelError)})
	require.NoError(t, err, "failed to create test repository")
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func sampleTrade(code string, entry string) *domain.Trade {
	return &domain.Trade{
		Code:           code,
		Name:           "测试股份",
		SignalDate:     day(entry).AddDate(0, 0, -1),
		EntryDate:      day(entry),
		SignalRank:     3,
		SignalClose:    10.00,
		AmountSignal:   2.5e9,
		EntryCondition: domain.EntryBreakout,
		BuyPrice:       10.30,
		BuyExec:        10.3103,
		BuyShares:      900,
		BuyCost:        9284.27,
		ExitDate:       day(entry).AddDate(0, 0, 1),
		ExitReason:     domain.ExitT1Close,
		ExitRank:       15,
		SellPrice:      10.80,
		SellExec:       10.7892,
		SellProceeds:   9690.57,
		HoldDays:       2,
		NetPNL:         406.30,
		NetPNLPct:      0.0438,
	}
}

func TestRepository_CreateAndFindTrades(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t1 := sampleTrade("000001", "2024-03-05")
	t2 := sampleTrade("600519", "2024-03-04")

	id1, err := repo.CreateTrade(ctx, "runA", t1)
	require.NoError(t, err)
	assert.Greater(t, id1, int64(0))
	assert.Equal(t, id1, t1.ID, "ID should be written back onto the trade")

	_, err = repo.CreateTrade(ctx, "runA", t2)
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, "runB", sampleTrade("300750", "2024-03-06"))
	require.NoError(t, err)

	trades, err := repo.FindByRun(ctx, "runA")
	require.NoError(t, err)
	require.Len(t, trades, 2, "runB trades must not leak into runA")
	assert.Equal(t, "600519", trades[0].Code, "trades should come back in entry date order")
	assert.Equal(t, "000001", trades[1].Code)

	got := trades[1]
	assert.Equal(t, domain.EntryBreakout, got.EntryCondition)
	assert.Equal(t, domain.ExitT1Close, got.ExitReason)
	assert.Equal(t, int64(900), got.BuyShares)
	assert.InDelta(t, 0.0438, got.NetPNLPct, 1e-9)
	assert.True(t, got.EntryDate.Equal(day("2024-03-05")))
}

func TestRepository_FindByRun_Empty(t *testing.T) {
	repo := setupTestRepo(t)
	trades, err := repo.FindByRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestRepository_RunLabels(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateTrade(ctx, "rise2_v1", sampleTrade("000001", "2024-03-05"))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, "drop_v1", sampleTrade("000002", "2024-03-05"))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, "rise2_v1", sampleTrade("000003", "2024-03-06"))
	require.NoError(t, err)

	labels, err := repo.RunLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"drop_v1", "rise2_v1"}, labels)
}

func TestRepository_NavSeriesRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	series := []domain.NavPoint{
		{Date: day("2024-03-04"), Cash: 100000, PositionValue: 0, NAV: 100000, PositionCount: 0},
		{Date: day("2024-03-05"), Cash: 90715.73, PositionValue: 9270, NAV: 99985.73, PositionCount: 1},
	}
	require.NoError(t, repo.SaveNavSeries(ctx, "runA", series))

	got, err := repo.FindNavSeries(ctx, "runA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(day("2024-03-04")))
	assert.InDelta(t, 99985.73, got[1].NAV, 1e-9)
	assert.Equal(t, 1, got[1].PositionCount)

	other, err := repo.FindNavSeries(ctx, "runB")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepository_RunInfoRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	info := &domain.RunInfo{
		Label:       "rise2_ab12_20240305_093000",
		Strategy:    "rise2",
		InitialCash: 100000,
		CreatedAt:   day("2024-03-05"),
	}
	require.NoError(t, repo.SaveRun(ctx, info))

	got, err := repo.FindRun(ctx, info.Label)
	require.NoError(t, err)
	assert.Equal(t, "rise2", got.Strategy)
	assert.InDelta(t, 100000, got.InitialCash, 1e-9, "true starting capital, not the first NAV point")
	assert.True(t, got.CreatedAt.Equal(day("2024-03-05")))

	// Re-saving the same label overwrites.
	info.InitialCash = 200000
	require.NoError(t, repo.SaveRun(ctx, info))
	got, err = repo.FindRun(ctx, info.Label)
	require.NoError(t, err)
	assert.InDelta(t, 200000, got.InitialCash, 1e-9)
}

func TestRepository_FindRunUnknownLabel(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindRun(context.Background(), "never_saved")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}
