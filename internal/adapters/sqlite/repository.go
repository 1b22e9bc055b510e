package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hotRankBacktest/internal/domain"
	"hotRankBacktest/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.TradeRepository, ports.RunRepository and
// ports.NavRepository using SQLite. Results of multiple runs live side by
// side, keyed by run label.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/backtest.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_label TEXT NOT NULL,
		code TEXT NOT NULL,
		name TEXT,
		signal_date TIMESTAMP NOT NULL,
		entry_date TIMESTAMP NOT NULL,
		signal_rank INTEGER NOT NULL,
		signal_close REAL NOT NULL,
		amount_signal REAL NOT NULL,
		entry_condition TEXT NOT NULL,
		buy_price REAL NOT NULL,
		buy_exec REAL NOT NULL,
		buy_shares INTEGER NOT NULL,
		buy_cost REAL NOT NULL,
		exit_date TIMESTAMP NOT NULL,
		exit_reason TEXT NOT NULL,
		exit_rank INTEGER NOT NULL,
		sell_price REAL NOT NULL,
		sell_exec REAL NOT NULL,
		sell_proceeds REAL NOT NULL,
		hold_days INTEGER NOT NULL,
		net_pnl REAL NOT NULL,
		net_pnl_pct REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_label TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		initial_cash REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nav_series (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_label TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		cash REAL NOT NULL,
		position_value REAL NOT NULL,
		nav REAL NOT NULL,
		n_positions INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_run_entry ON trades (run_label, entry_date);
	CREATE INDEX IF NOT EXISTS idx_nav_run_date ON nav_series (run_label, date);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- TradeRepository Implementation ---

// CreateTrade saves a closed trade under a run label and returns its ID.
func (r *Repository) CreateTrade(ctx context.Context, runLabel string, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (run_label, code, name, signal_date, entry_date, signal_rank,
	                    signal_close, amount_signal, entry_condition, buy_price, buy_exec,
	                    buy_shares, buy_cost, exit_date, exit_reason, exit_rank,
	                    sell_price, sell_exec, sell_proceeds, hold_days, net_pnl, net_pnl_pct)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		runLabel, trade.Code, trade.Name, trade.SignalDate, trade.EntryDate, trade.SignalRank,
		trade.SignalClose, trade.AmountSignal, trade.EntryCondition, trade.BuyPrice, trade.BuyExec,
		trade.BuyShares, trade.BuyCost, trade.ExitDate, trade.ExitReason, trade.ExitRank,
		trade.SellPrice, trade.SellExec, trade.SellProceeds, trade.HoldDays, trade.NetPNL, trade.NetPNLPct)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for %s: %w", trade.Code, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Code, err)
	}
	trade.ID = id
	return id, nil
}

// FindByRun retrieves all trades for a run label, ordered by entry date.
func (r *Repository) FindByRun(ctx context.Context, runLabel string) ([]*domain.Trade, error) {
	const query = `
	SELECT id, code, name, signal_date, entry_date, signal_rank, signal_close,
	       amount_signal, entry_condition, buy_price, buy_exec, buy_shares, buy_cost,
	       exit_date, exit_reason, exit_rank, sell_price, sell_exec, sell_proceeds,
	       hold_days, net_pnl, net_pnl_pct
	FROM trades
	WHERE run_label = ? ORDER BY entry_date, code`

	rows, err := r.db.QueryContext(ctx, query, runLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: trades for run %s: %v", ports.ErrQueryFailed, runLabel, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		t := &domain.Trade{}
		var entryCondition, exitReason string
		err := rows.Scan(
			&t.ID, &t.Code, &t.Name, &t.SignalDate, &t.EntryDate, &t.SignalRank, &t.SignalClose,
			&t.AmountSignal, &entryCondition, &t.BuyPrice, &t.BuyExec, &t.BuyShares, &t.BuyCost,
			&t.ExitDate, &exitReason, &t.ExitRank, &t.SellPrice, &t.SellExec, &t.SellProceeds,
			&t.HoldDays, &t.NetPNL, &t.NetPNLPct)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindByRun: %w", err)
		}
		t.EntryCondition = domain.EntryCondition(entryCondition)
		t.ExitReason = domain.ExitReason(exitReason)
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// RunLabels lists all run labels present in the store.
func (r *Repository) RunLabels(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT run_label FROM trades ORDER BY run_label`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: run labels: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	labels := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan run label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// --- RunRepository Implementation ---

// SaveRun stores the metadata of a run under its label. Re-saving the same
// label overwrites the earlier row.
func (r *Repository) SaveRun(ctx context.Context, run *domain.RunInfo) error {
	const query = `
	INSERT OR REPLACE INTO runs (run_label, strategy, initial_cash, created_at)
	VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, run.Label, run.Strategy, run.InitialCash, run.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.Label, err)
	}
	return nil
}

// FindRun retrieves the metadata for a run label.
func (r *Repository) FindRun(ctx context.Context, runLabel string) (*domain.RunInfo, error) {
	const query = `SELECT run_label, strategy, initial_cash, created_at FROM runs WHERE run_label = ?`
	run := &domain.RunInfo{}
	err := r.db.QueryRowContext(ctx, query, runLabel).
		Scan(&run.Label, &run.Strategy, &run.InitialCash, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: run %s", ports.ErrNotFound, runLabel)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ports.ErrQueryFailed, runLabel, err)
	}
	return run, nil
}

// --- NavRepository Implementation ---

// SaveNavSeries stores the full series for a run label in date order.
func (r *Repository) SaveNavSeries(ctx context.Context, runLabel string, series []domain.NavPoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin nav series transaction: %w", err)
	}
	const query = `
	INSERT INTO nav_series (run_label, date, cash, position_value, nav, n_positions)
	VALUES (?, ?, ?, ?, ?, ?)`
	for _, p := range series {
		if _, err := tx.ExecContext(ctx, query, runLabel, p.Date, p.Cash, p.PositionValue, p.NAV, p.PositionCount); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert nav point %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// FindNavSeries retrieves the series for a run label, in date order.
func (r *Repository) FindNavSeries(ctx context.Context, runLabel string) ([]domain.NavPoint, error) {
	const query = `
	SELECT date, cash, position_value, nav, n_positions
	FROM nav_series
	WHERE run_label = ? ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, runLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: nav series for run %s: %v", ports.ErrQueryFailed, runLabel, err)
	}
	defer rows.Close()

	series := make([]domain.NavPoint, 0)
	for rows.Next() {
		var p domain.NavPoint
		if err := rows.Scan(&p.Date, &p.Cash, &p.PositionValue, &p.NAV, &p.PositionCount); err != nil {
			return nil, fmt.Errorf("failed to scan nav point: %w", err)
		}
		series = append(series, p)
	}
	return series, rows.Err()
}
