package config

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hotRankBacktest/internal/backtest"
	"hotRankBacktest/internal/ports"
	"hotRankBacktest/internal/strategy"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is a fully merged strategy configuration. Strategy files may name a
// parent via `extends`; the child is deep-merged over the parent, so variant
// files only carry the parameters they change.
type Config struct {
	Name    string `yaml:"name"`
	Extends string `yaml:"extends,omitempty"`

	Engine    EngineSection    `yaml:"engine"`
	Universe  UniverseSection  `yaml:"universe"`
	Entry     EntrySection     `yaml:"entry"`
	Exit      ExitSection      `yaml:"exit"`
	Execution ExecutionSection `yaml:"execution"`
}

type EngineSection struct {
	InitialCash  float64 `yaml:"initial_cash"`
	MaxPositions int     `yaml:"max_positions"`
	StartDate    string  `yaml:"start_date,omitempty"` // YYYY-MM-DD, empty = table start
	EndDate      string  `yaml:"end_date,omitempty"`   // YYYY-MM-DD, empty = table end
	EntryMode    string  `yaml:"entry_mode"`           // rise_trigger | drop_trigger | first_entry
}

type UniverseSection struct {
	HotTopN              int     `yaml:"hot_top_n"`
	MinSignalAmount      float64 `yaml:"min_signal_amount"`
	FilterST             bool    `yaml:"filter_st"`
	MinListingDays       int     `yaml:"min_listing_days"`
	MaxAmplitudePrev     float64 `yaml:"max_amplitude_prev"`
	MinPctChangePrev     float64 `yaml:"min_pct_change_prev"`
	MaxDrop5DFloor       float64 `yaml:"max_drop_5d_floor"`
	MaxCumReturn2D       float64 `yaml:"max_cum_return_2d"`
	MaxOneWordBoard5D    int     `yaml:"max_one_word_board_5d"`
	MaxHotRank2D         int     `yaml:"max_hot_rank_2d"`
	RequireSignalLimitUp bool    `yaml:"require_signal_limit_up"`
}

type EntrySection struct {
	RiseTrigger    float64  `yaml:"rise_trigger"`
	RiseTriggerAlt float64  `yaml:"rise_trigger_alt"`
	DropTrigger    float64  `yaml:"drop_trigger"`
	DropTriggerAlt float64  `yaml:"drop_trigger_alt"`
	MaxDropTrigger float64  `yaml:"max_drop_trigger"`
	AltPrefixes    []string `yaml:"alt_prefixes"` // Code prefixes using the alt trigger tier
	BuyOnGapDown   bool     `yaml:"buy_on_gap_down"`
}

type ExitSection struct {
	ExitOnLimitDown   bool    `yaml:"exit_on_limit_down"`
	DropStopPct       float64 `yaml:"drop_stop_pct"`
	MaxHoldDays       int     `yaml:"max_hold_days"`
	HoldOnLimitUp     bool    `yaml:"hold_on_limit_up"`
	ExitRankThreshold int     `yaml:"exit_rank_threshold"`
	RankExitAtOpen    bool    `yaml:"rank_exit_at_open"`
	T1Close           bool    `yaml:"t1_close"`
}

type ExecutionSection struct {
	FeeBuy           float64 `yaml:"fee_buy"`
	FeeSell          float64 `yaml:"fee_sell"`
	StampTaxSell     float64 `yaml:"stamp_tax_sell"`
	SlippageBps      float64 `yaml:"slippage_bps"`
	MinCommission    float64 `yaml:"min_commission"`
	MinLotSize       int64   `yaml:"min_lot_size"`
	PerTradeCashFrac float64 `yaml:"per_trade_cash_frac"`
}

// Env holds process-level settings that do not belong in strategy files.
// They come from the environment, with .env as a convenience source.
type Env struct {
	FeaturesPath string
	DBPath       string
	OutputDir    string
	LogLevel     string
}

// LoadEnv reads process settings, loading .env first if present.
func LoadEnv() Env {
	_ = godotenv.Load() // .env is optional

	return Env{
		FeaturesPath: getEnv("FEATURES_PATH", "./data/features.csv"),
		DBPath:       getEnv("DB_PATH", "./data/backtest.db"),
		OutputDir:    getEnv("OUTPUT_DIR", "./output"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

const maxExtendsDepth = 8

// Load reads a strategy YAML file, resolves its `extends` chain and
// validates the merged result.
func Load(path string) (*Config, error) {
	merged, err := loadMerged(path, 0)
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode merged config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(out, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode merged config %s: %w", path, err)
	}
	cfg.Extends = "" // resolved, not meaningful on the merged result

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadMerged returns the file's mapping with its parent chain merged in.
// Parent paths are resolved relative to the child file's directory.
func loadMerged(path string, depth int) (map[string]interface{}, error) {
	if depth > maxExtendsDepth {
		return nil, fmt.Errorf("%w: extends chain deeper than %d at %s", ports.ErrConfigurationError, maxExtendsDepth, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	doc := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	parentRef, _ := doc["extends"].(string)
	if parentRef == "" {
		return doc, nil
	}
	delete(doc, "extends")

	parentPath := parentRef
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(filepath.Dir(path), parentRef)
	}
	parent, err := loadMerged(parentPath, depth+1)
	if err != nil {
		return nil, err
	}
	return deepMerge(parent, doc), nil
}

// deepMerge overlays child onto parent. Nested mappings merge key by key;
// any other value in the child replaces the parent's wholesale.
func deepMerge(parent, child map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, cv := range child {
		if cm, ok := cv.(map[string]interface{}); ok {
			if pm, ok := out[k].(map[string]interface{}); ok {
				out[k] = deepMerge(pm, cm)
				continue
			}
		}
		out[k] = cv
	}
	return out
}

// Validate checks the merged configuration and reports every problem at
// once rather than stopping at the first.
func (c *Config) Validate() error {
	var problems []string

	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	if c.Engine.InitialCash <= 0 {
		problems = append(problems, "engine.initial_cash must be positive")
	}
	if c.Engine.MaxPositions <= 0 {
		problems = append(problems, "engine.max_positions must be positive")
	}
	switch c.Engine.EntryMode {
	case "rise_trigger", "drop_trigger", "first_entry":
	case "":
		problems = append(problems, "engine.entry_mode is required")
	default:
		problems = append(problems, fmt.Sprintf("engine.entry_mode %q is not one of rise_trigger, drop_trigger, first_entry", c.Engine.EntryMode))
	}
	if _, err := c.dateOrZero(c.Engine.StartDate); err != nil {
		problems = append(problems, fmt.Sprintf("engine.start_date: %v", err))
	}
	if _, err := c.dateOrZero(c.Engine.EndDate); err != nil {
		problems = append(problems, fmt.Sprintf("engine.end_date: %v", err))
	}

	if c.Universe.HotTopN <= 0 {
		problems = append(problems, "universe.hot_top_n must be positive")
	}
	if c.Universe.MinSignalAmount < 0 {
		problems = append(problems, "universe.min_signal_amount must not be negative")
	}

	switch c.Engine.EntryMode {
	case "rise_trigger", "first_entry":
		if c.Entry.RiseTrigger <= 0 {
			problems = append(problems, "entry.rise_trigger must be positive for this entry mode")
		}
	case "drop_trigger":
		if c.Entry.DropTrigger <= 0 {
			problems = append(problems, "entry.drop_trigger must be positive for this entry mode")
		}
		if c.Entry.MaxDropTrigger > 0 && c.Entry.MaxDropTrigger <= c.Entry.DropTrigger {
			problems = append(problems, "entry.max_drop_trigger must exceed entry.drop_trigger")
		}
	}

	if c.Exit.DropStopPct < 0 {
		problems = append(problems, "exit.drop_stop_pct must not be negative")
	}
	if c.Exit.MaxHoldDays < 0 {
		problems = append(problems, "exit.max_hold_days must not be negative")
	}

	if c.Execution.FeeBuy < 0 || c.Execution.FeeSell < 0 || c.Execution.StampTaxSell < 0 {
		problems = append(problems, "execution fee rates must not be negative")
	}
	if c.Execution.MinLotSize <= 0 {
		problems = append(problems, "execution.min_lot_size must be positive")
	}
	if c.Execution.PerTradeCashFrac <= 0 || c.Execution.PerTradeCashFrac > 1 {
		problems = append(problems, "execution.per_trade_cash_frac must be in (0, 1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ports.ErrConfigurationError, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) dateOrZero(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return d, nil
}

// RunLabel derives a label unique to this parameter set and moment:
// name, a short parameter hash, and a timestamp. Results of repeated runs
// stay distinguishable in the store.
func (c *Config) RunLabel(now time.Time) string {
	out, _ := yaml.Marshal(c)
	sum := md5.Sum(out)
	return fmt.Sprintf("%s_%x_%s", c.Name, sum[:4], now.Format("20060102_150405"))
}

// EngineConfig maps the merged file onto the engine parameters.
func (c *Config) EngineConfig(runLabel string) (backtest.Config, error) {
	start, err := c.dateOrZero(c.Engine.StartDate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("%w: engine.start_date: %v", ports.ErrConfigurationError, err)
	}
	end, err := c.dateOrZero(c.Engine.EndDate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("%w: engine.end_date: %v", ports.ErrConfigurationError, err)
	}

	mode := backtest.ModeSameDay
	if c.Engine.EntryMode == "first_entry" {
		mode = backtest.ModeFirstEntry
	}
	return backtest.Config{
		RunLabel:       runLabel,
		InitialCash:    c.Engine.InitialCash,
		MaxPositions:   c.Engine.MaxPositions,
		StartDate:      start,
		EndDate:        end,
		Mode:           mode,
		HotTopN:        c.Universe.HotTopN,
		FilterSTSignal: c.Universe.FilterST,
	}, nil
}

// UniverseConfig maps the universe section onto the filter chain thresholds.
func (c *Config) UniverseConfig() backtest.UniverseConfig {
	return backtest.UniverseConfig{
		HotTopN:              c.Universe.HotTopN,
		MinSignalAmount:      c.Universe.MinSignalAmount,
		FilterST:             c.Universe.FilterST,
		MinListingDays:       c.Universe.MinListingDays,
		MaxAmplitudePrev:     c.Universe.MaxAmplitudePrev,
		MinPctChangePrev:     c.Universe.MinPctChangePrev,
		MaxDrop5DFloor:       c.Universe.MaxDrop5DFloor,
		MaxCumReturn2D:       c.Universe.MaxCumReturn2D,
		MaxOneWordBoard5D:    c.Universe.MaxOneWordBoard5D,
		MaxHotRank2D:         c.Universe.MaxHotRank2D,
		RequireSignalLimitUp: c.Universe.RequireSignalLimitUp,
	}
}

// ExecConfig maps the execution section onto the fill model.
func (c *Config) ExecConfig() backtest.ExecConfig {
	return backtest.ExecConfig{
		FeeBuy:           c.Execution.FeeBuy,
		FeeSell:          c.Execution.FeeSell,
		StampTaxSell:     c.Execution.StampTaxSell,
		SlippageBps:      c.Execution.SlippageBps,
		MinCommission:    c.Execution.MinCommission,
		MinLotSize:       c.Execution.MinLotSize,
		PerTradeCashFrac: c.Execution.PerTradeCashFrac,
	}
}

// ExitConfig maps the exit section onto the exit-rule thresholds.
func (c *Config) ExitConfig() strategy.ExitConfig {
	return strategy.ExitConfig{
		ExitOnLimitDown:   c.Exit.ExitOnLimitDown,
		DropStopPct:       c.Exit.DropStopPct,
		MaxHoldDays:       c.Exit.MaxHoldDays,
		HoldOnLimitUp:     c.Exit.HoldOnLimitUp,
		ExitRankThreshold: c.Exit.ExitRankThreshold,
		RankExitAtOpen:    c.Exit.RankExitAtOpen,
		T1Close:           c.Exit.T1Close,
	}
}

// BuildEntry assembles the entry evaluator for the configured mode.
func (c *Config) BuildEntry() (ports.EntryEvaluator, error) {
	var segment ports.SegmentFn
	if len(c.Entry.AltPrefixes) > 0 {
		segment = strategy.PrefixSegment(c.Entry.AltPrefixes)
	}

	switch c.Engine.EntryMode {
	case "rise_trigger":
		return &strategy.Breakout{
			RiseTrigger:    c.Entry.RiseTrigger,
			RiseTriggerAlt: c.Entry.RiseTriggerAlt,
			Segment:        segment,
		}, nil
	case "drop_trigger":
		return &strategy.Breakdown{
			DropTrigger:    c.Entry.DropTrigger,
			DropTriggerAlt: c.Entry.DropTriggerAlt,
			MaxDropTrigger: c.Entry.MaxDropTrigger,
			Segment:        segment,
		}, nil
	case "first_entry":
		return &strategy.OpenOrBreakout{
			BuyOnGapDown: c.Entry.BuyOnGapDown,
			Breakout: strategy.Breakout{
				RiseTrigger:    c.Entry.RiseTrigger,
				RiseTriggerAlt: c.Entry.RiseTriggerAlt,
				Segment:        segment,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown entry mode %q", ports.ErrConfigurationError, c.Engine.EntryMode)
	}
}
