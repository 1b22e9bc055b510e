package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"hotRankBacktest/config"
	"hotRankBacktest/internal/adapters/featurecsv"
	"hotRankBacktest/internal/adapters/logger"
	"hotRankBacktest/internal/adapters/sqlite"
	"hotRankBacktest/internal/backtest"
	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/strategy"
	"hotRankBacktest/internal/strategy/analytics"
	"hotRankBacktest/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to the strategy YAML file (required)")
	featuresPath := flag.String("features", "", "Feature table CSV (overrides FEATURES_PATH)")
	noDB := flag.Bool("no-db", false, "Skip persisting results to the SQLite store")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: backtest_runner -config strategies/rise2.yaml [-features data/features.csv]")
		os.Exit(2)
	}

	env := config.LoadEnv()
	if *featuresPath != "" {
		env.FeaturesPath = *featuresPath
	}
	appLogger := logger.NewStdLogger(logger.ParseLevel(env.LogLevel))
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load strategy config")
		os.Exit(1)
	}
	runLabel := cfg.RunLabel(time.Now())

	table, err := featurecsv.NewLoader(appLogger).Load(ctx, env.FeaturesPath)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load feature table", map[string]interface{}{"path": env.FeaturesPath})
		os.Exit(1)
	}

	stats := make(backtest.RunStats)
	universe := backtest.NewUniverse(cfg.UniverseConfig(), stats)
	entry, err := cfg.BuildEntry()
	if err != nil {
		appLogger.Error(ctx, err, "Failed to build entry evaluator")
		os.Exit(1)
	}
	exit := strategy.NewExit(cfg.ExitConfig())
	exec := backtest.NewExecutor(cfg.ExecConfig(), appLogger, stats)

	engineCfg, err := cfg.EngineConfig(runLabel)
	if err != nil {
		appLogger.Error(ctx, err, "Invalid engine configuration")
		os.Exit(1)
	}
	engine, err := backtest.New(engineCfg, universe, entry, exit, exec, stats, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to assemble engine")
		os.Exit(1)
	}

	result, err := engine.Run(ctx, table)
	if err != nil {
		appLogger.Error(ctx, err, "Backtest run failed", map[string]interface{}{"run": runLabel})
		os.Exit(1)
	}

	if err := os.MkdirAll(env.OutputDir, 0755); err != nil {
		appLogger.Error(ctx, err, "Failed to create output directory", map[string]interface{}{"dir": env.OutputDir})
		os.Exit(1)
	}
	tradesPath := filepath.Join(env.OutputDir, runLabel+"_trades.csv")
	navPath := filepath.Join(env.OutputDir, runLabel+"_nav.csv")
	if err := utils.WriteTradesToCSV(result.Trades, tradesPath); err != nil {
		appLogger.Error(ctx, err, "Failed to write trade ledger CSV")
		os.Exit(1)
	}
	if err := utils.WriteNavSeriesToCSV(result.NavSeries, navPath); err != nil {
		appLogger.Error(ctx, err, "Failed to write NAV series CSV")
		os.Exit(1)
	}

	if !*noDB {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: env.DBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "Failed to open results store")
			os.Exit(1)
		}
		defer repo.Close()
		runInfo := &domain.RunInfo{
			Label:       runLabel,
			Strategy:    cfg.Name,
			InitialCash: cfg.Engine.InitialCash,
			CreatedAt:   time.Now(),
		}
		if err := repo.SaveRun(ctx, runInfo); err != nil {
			appLogger.Error(ctx, err, "Failed to persist run metadata", map[string]interface{}{"run": runLabel})
			os.Exit(1)
		}
		for _, trade := range result.Trades {
			if _, err := repo.CreateTrade(ctx, runLabel, trade); err != nil {
				appLogger.Error(ctx, err, "Failed to persist trade", map[string]interface{}{"code": trade.Code})
				os.Exit(1)
			}
		}
		if err := repo.SaveNavSeries(ctx, runLabel, result.NavSeries); err != nil {
			appLogger.Error(ctx, err, "Failed to persist NAV series")
			os.Exit(1)
		}
	}

	metrics := analytics.Analyze(result.Trades, result.NavSeries, cfg.Engine.InitialCash)
	printReport(runLabel, cfg.Name, result, metrics, tradesPath, navPath)
}

func printReport(runLabel, name string, result *backtest.Result, m *analytics.PerformanceMetrics, tradesPath, navPath string) {
	fmt.Printf("\n=== Backtest Report: %s ===\n", name)
	fmt.Printf("Run label:         %s\n", runLabel)
	fmt.Printf("Trades:            %d (open at end: %d)\n", m.TotalTrades, result.OpenCount)
	fmt.Printf("Win rate:          %.2f%% (%d W / %d L)\n", m.WinRate*100, m.WinningTrades, m.LosingTrades)
	fmt.Printf("Total PnL:         %.2f\n", m.TotalPNL)
	fmt.Printf("Avg win / loss:    %.2f / %.2f\n", m.AverageWin, m.AverageLoss)
	fmt.Printf("Profit factor:     %.2f\n", m.ProfitFactor)
	fmt.Printf("Expectancy:        %.2f\n", m.Expectancy)
	fmt.Printf("Cumulative return: %.2f%%\n", m.CumulativeReturn*100)
	fmt.Printf("Max drawdown:      %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("Final NAV:         %.2f (cash %.2f)\n", m.FinalNAV, result.FinalCash)

	fmt.Println("\nFilter and execution counters:")
	keys := make([]string, 0, len(result.Stats))
	for k := range result.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-28s %d\n", k, result.Stats[k])
	}

	fmt.Printf("\nOutputs:\n  %s\n  %s\n", tradesPath, navPath)

	if len(result.Trades) > 0 {
		fmt.Println()
		_ = utils.WriteTradesTable(os.Stdout, result.Trades)
	}
}
