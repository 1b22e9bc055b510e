package ports

import (
	"context"

	"hotRankBacktest/internal/domain"
)

// TradeRepository defines the interface for persisting the closed-trade ledger.
type TradeRepository interface {
	// CreateTrade saves a closed trade under a run label and returns its ID.
	CreateTrade(ctx context.Context, runLabel string, trade *domain.Trade) (int64, error)
	// FindByRun retrieves all trades for a run label, ordered by entry date.
	FindByRun(ctx context.Context, runLabel string) ([]*domain.Trade, error)
	// RunLabels lists all run labels present in the store.
	RunLabels(ctx context.Context) ([]string, error)
}

// RunRepository defines the interface for persisting run-level metadata.
type RunRepository interface {
	// SaveRun stores the metadata of a run under its label.
	SaveRun(ctx context.Context, run *domain.RunInfo) error
	// FindRun retrieves the metadata for a run label. Returns ErrNotFound
	// when the label is unknown.
	FindRun(ctx context.Context, runLabel string) (*domain.RunInfo, error)
}

// NavRepository defines the interface for persisting the daily NAV series.
type NavRepository interface {
	// SaveNavSeries stores the full series for a run label in date order.
	SaveNavSeries(ctx context.Context, runLabel string, series []domain.NavPoint) error
	// FindNavSeries retrieves the series for a run label, in date order.
	FindNavSeries(ctx context.Context, runLabel string) ([]domain.NavPoint, error)
}
