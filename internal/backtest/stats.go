package backtest

// RunStats accumulates named event counters across a run (fills, skips,
// filter rejects). Exposed as diagnostic output, never consulted for
// trading decisions.
type RunStats map[string]int

// Inc increments a counter by one.
func (s RunStats) Inc(key string) { s[key]++ }

// Add increments a counter by n.
func (s RunStats) Add(key string, n int) { s[key] += n }
