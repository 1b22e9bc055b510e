package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"hotRankBacktest/config"
	"hotRankBacktest/internal/adapters/featurecsv"
	"hotRankBacktest/internal/adapters/logger"
	"hotRankBacktest/internal/backtest"
	"hotRankBacktest/internal/strategy"
	"hotRankBacktest/internal/strategy/sweep"
)

// Runs a base strategy across a grid of hot_top_n and max_hold_days values
// and prints the combinations ranked by cumulative return.
func main() {
	configPath := flag.String("config", "", "Path to the base strategy YAML file (required)")
	topNList := flag.String("top-n", "5,10,20", "Comma-separated hot_top_n values")
	holdList := flag.String("hold-days", "", "Comma-separated max_hold_days values (empty = base value only)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sweep_runner -config strategies/rise2.yaml [-top-n 5,10,20] [-hold-days 3,5]")
		os.Exit(2)
	}

	env := config.LoadEnv()
	appLogger := logger.NewStdLogger(logger.LevelWarn) // per-run chatter would drown the table
	ctx := context.Background()

	base, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load strategy config")
		os.Exit(1)
	}
	table, err := featurecsv.NewLoader(appLogger).Load(ctx, env.FeaturesPath)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load feature table", map[string]interface{}{"path": env.FeaturesPath})
		os.Exit(1)
	}

	topNs, err := parseInts(*topNList)
	if err != nil {
		appLogger.Error(ctx, err, "Bad -top-n list")
		os.Exit(1)
	}
	holds := []int{base.Exit.MaxHoldDays}
	if *holdList != "" {
		if holds, err = parseInts(*holdList); err != nil {
			appLogger.Error(ctx, err, "Bad -hold-days list")
			os.Exit(1)
		}
	}

	var specs []sweep.RunSpec
	for _, topN := range topNs {
		for _, hold := range holds {
			cfg := *base // sections are value types, so this copy is independent
			cfg.Universe.HotTopN = topN
			cfg.Exit.MaxHoldDays = hold
			label := fmt.Sprintf("%s_topn%d_hold%d", base.Name, topN, hold)
			specs = append(specs, sweep.RunSpec{
				Label:       label,
				InitialCash: cfg.Engine.InitialCash,
				NewEngine:   engineBuilder(cfg, label, appLogger),
			})
		}
	}

	results := sweep.Run(ctx, table, specs)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMBINATION\tTRADES\tWIN%\tPNL\tRETURN%\tMAXDD%")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\tFAILED: %v\n", r.Label, r.Err)
			continue
		}
		m := r.Metrics
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.2f\t%.2f\t%.2f\n",
			r.Label, m.TotalTrades, m.WinRate*100, m.TotalPNL,
			m.CumulativeReturn*100, m.MaxDrawdown*100)
	}
	w.Flush()
}

// engineBuilder captures one parameter combination by value. Each call
// yields a fresh engine with its own portfolio and counters.
func engineBuilder(cfg config.Config, label string, log *logger.StdLogger) func() (*backtest.Engine, error) {
	return func() (*backtest.Engine, error) {
		stats := make(backtest.RunStats)
		entry, err := cfg.BuildEntry()
		if err != nil {
			return nil, err
		}
		engineCfg, err := cfg.EngineConfig(label)
		if err != nil {
			return nil, err
		}
		return backtest.New(
			engineCfg,
			backtest.NewUniverse(cfg.UniverseConfig(), stats),
			entry,
			strategy.NewExit(cfg.ExitConfig()),
			backtest.NewExecutor(cfg.ExecConfig(), log, stats),
			stats,
			log,
		)
	}
}

func parseInts(list string) ([]int, error) {
	parts := strings.Split(list, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", p)
		}
		out = append(out, n)
	}
	return out, nil
}
