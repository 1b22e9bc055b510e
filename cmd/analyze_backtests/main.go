package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"hotRankBacktest/config"
	"hotRankBacktest/internal/adapters/logger"
	"hotRankBacktest/internal/adapters/sqlite"
	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/strategy/analytics"
	"hotRankBacktest/internal/utils"
)

// Compares all runs stored in the results database side by side, or dumps
// one run's trade ledger when -run is given.
func main() {
	runLabel := flag.String("run", "", "Show the trade ledger of a single run label")
	flag.Parse()

	env := config.LoadEnv()
	appLogger := logger.NewStdLogger(logger.ParseLevel(env.LogLevel))
	ctx := context.Background()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: env.DBPath, Logger: appLogger})
	if err != nil {
		appLogger.Error(ctx, err, "Failed to open results store", map[string]interface{}{"path": env.DBPath})
		os.Exit(1)
	}
	defer repo.Close()

	if *runLabel != "" {
		if err := showRun(ctx, repo, *runLabel); err != nil {
			appLogger.Error(ctx, err, "Failed to load run", map[string]interface{}{"run": *runLabel})
			os.Exit(1)
		}
		return
	}

	if err := compareRuns(ctx, repo); err != nil {
		appLogger.Error(ctx, err, "Failed to compare runs")
		os.Exit(1)
	}
}

func showRun(ctx context.Context, repo *sqlite.Repository, label string) error {
	trades, err := repo.FindByRun(ctx, label)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Printf("No trades stored for run %q.\n", label)
		return nil
	}
	fmt.Printf("=== Trade ledger: %s (%d trades) ===\n\n", label, len(trades))
	return utils.WriteTradesTable(os.Stdout, trades)
}

func compareRuns(ctx context.Context, repo *sqlite.Repository) error {
	labels, err := repo.RunLabels(ctx)
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		fmt.Println("No runs stored yet. Execute backtest_runner first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTRADES\tWIN%\tPNL\tPF\tRETURN%\tMAXDD%\tFINAL NAV")
	for _, label := range labels {
		trades, err := repo.FindByRun(ctx, label)
		if err != nil {
			return err
		}
		nav, err := repo.FindNavSeries(ctx, label)
		if err != nil {
			return err
		}
		initialCash := initialCashForRun(ctx, repo, label, nav)
		m := analytics.Analyze(trades, nav, initialCash)
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			label, m.TotalTrades, m.WinRate*100, m.TotalPNL, m.ProfitFactor,
			m.CumulativeReturn*100, m.MaxDrawdown*100, m.FinalNAV)
	}
	return w.Flush()
}

// initialCashForRun prefers the stored run metadata. Runs saved without it
// fall back to the first NAV point, which understates the base by any
// first-day fees.
func initialCashForRun(ctx context.Context, repo *sqlite.Repository, label string, nav []domain.NavPoint) float64 {
	if run, err := repo.FindRun(ctx, label); err == nil {
		return run.InitialCash
	}
	if len(nav) > 0 {
		return nav[0].NAV
	}
	return 0
}
