package sweep

import (
	"context"
	"sort"
	"sync"

	"hotRankBacktest/internal/backtest"
	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/strategy/analytics"
)

// RunSpec names one parameter combination and builds a fresh engine for it.
// Engines share nothing, so a sweep can run its combinations concurrently
// while each individual run stays strictly sequential.
type RunSpec struct {
	Label       string
	InitialCash float64
	NewEngine   func() (*backtest.Engine, error)
}

// Result pairs a spec label with its metrics, or the error that stopped it.
type Result struct {
	Label   string
	Metrics *analytics.PerformanceMetrics
	Err     error
}

// Run executes every spec against the same feature table and returns
// results sorted by cumulative return, best first. Failed runs sort last.
func Run(ctx context.Context, table *domain.FeatureTable, specs []RunSpec) []Result {
	results := make([]Result, len(specs))
	var wg sync.WaitGroup

	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec RunSpec) {
			defer wg.Done()
			engine, err := spec.NewEngine()
			if err != nil {
				results[i] = Result{Label: spec.Label, Err: err}
				return
			}
			res, err := engine.Run(ctx, table)
			if err != nil {
				results[i] = Result{Label: spec.Label, Err: err}
				return
			}
			results[i] = Result{
				Label:   spec.Label,
				Metrics: analytics.Analyze(res.Trades, res.NavSeries, spec.InitialCash),
			}
		}(i, spec)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		if results[i].Err != nil {
			return false
		}
		return results[i].Metrics.CumulativeReturn > results[j].Metrics.CumulativeReturn
	})
	return results
}
