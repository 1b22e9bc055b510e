// Package featurecsv loads the daily feature table from its CSV export.
// The loader enforces the input contract up front: a run either starts with
// a fully parsed table or fails with a descriptive error before any output
// is written.
package featurecsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/ports"
)

var requiredColumns = []string{
	"date", "code", "open", "high", "low", "close", "volume", "amount",
	"close_prev", "hot_rank", "is_tradable", "is_st", "days_since_listing",
	"amplitude_prev", "pct_change_prev", "intraday_drop", "max_drop_5d",
	"cum_return_2d", "one_word_board_5d", "limit_up_price",
	"limit_down_price", "is_limit_up", "is_limit_down",
}

// Loader reads feature-table CSV files.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load parses the file into a validated FeatureTable.
func (l *Loader) Load(ctx context.Context, path string) (*domain.FeatureTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature table '%s': %w", path, err)
	}
	defer file.Close()

	table, err := l.Read(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("feature table '%s': %w", path, err)
	}
	return table, nil
}

// Read parses feature rows from r.
func (l *Loader) Read(ctx context.Context, r io.Reader) (*domain.FeatureTable, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ports.ErrMissingColumns, strings.Join(missing, ", "))
	}
	nameIdx, hasName := col["name"]

	var bars []*domain.Bar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line+1, err)
		}
		line++

		bar, err := parseBar(record, col)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ports.ErrMalformedFeatures, line, err)
		}
		if hasName {
			bar.Name = record[nameIdx]
		}
		bars = append(bars, bar)
	}

	table, err := domain.NewFeatureTable(bars)
	if err != nil {
		return nil, err
	}
	l.logger.Info(ctx, "feature table loaded", map[string]interface{}{
		"rows": len(bars), "days": len(table.Dates()),
	})
	return table, nil
}

func parseBar(record []string, col map[string]int) (*domain.Bar, error) {
	get := func(name string) string { return strings.TrimSpace(record[col[name]]) }

	date, err := time.Parse("2006-01-02", get("date"))
	if err != nil {
		return nil, fmt.Errorf("invalid date '%s'", get("date"))
	}

	reqFloat := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(get(name), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s '%s'", name, get(name))
		}
		return v, nil
	}
	// Optional rolling features degrade to missing rather than failing the row.
	optFloat := func(name string) float64 {
		s := get(name)
		if s == "" || strings.EqualFold(s, "nan") {
			return domain.MissingFloat()
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.MissingFloat()
		}
		return v
	}
	optInt := func(name string) int {
		s := get(name)
		if s == "" {
			return 0
		}
		// Ranks and counts may arrive as "5.0" from float-typed exports.
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return int(v)
	}
	parseBool := func(name string) bool {
		s := strings.ToLower(get(name))
		return s == "true" || s == "1" || s == "t"
	}

	bar := &domain.Bar{
		Code: get("code"),
		Date: date,

		HotRank:          optInt("hot_rank"),
		IsTradable:       parseBool("is_tradable"),
		IsST:             parseBool("is_st"),
		DaysSinceListing: optInt("days_since_listing"),

		ClosePrev:     optFloat("close_prev"),
		AmplitudePrev: optFloat("amplitude_prev"),
		PctChangePrev: optFloat("pct_change_prev"),
		IntradayDrop:  optFloat("intraday_drop"),
		MaxDrop5D:     optFloat("max_drop_5d"),
		CumReturn2D:   optFloat("cum_return_2d"),

		OneWordBoard5D: optInt("one_word_board_5d"),

		LimitUpPrice:   optFloat("limit_up_price"),
		LimitDownPrice: optFloat("limit_down_price"),
		IsLimitUp:      parseBool("is_limit_up"),
		IsLimitDown:    parseBool("is_limit_down"),
	}

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
		{"volume", &bar.Volume},
		{"amount", &bar.Amount},
	} {
		v, err := reqFloat(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	if bar.Code == "" {
		return nil, fmt.Errorf("empty code")
	}
	if bar.IsTradable && (bar.Open <= 0 || bar.Close <= 0) {
		return nil, fmt.Errorf("non-positive price on tradable day for %s", bar.Code)
	}
	return bar, nil
}
