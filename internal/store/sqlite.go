package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-backtester/internal/models"
)

// Compile-time interface check.
var _ LedgerStore = (*SQLiteLedger)(nil)

// SQLiteLedger persists backtest results in SQLite. Runs are identified by
// a caller-chosen name so several strategy runs can share one ledger file.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (and if needed creates) the ledger database.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ledger := &SQLiteLedger{db: db}
	if err := ledger.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return ledger, nil
}

func (s *SQLiteLedger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run TEXT NOT NULL,
		day DATE NOT NULL,
		entry_timestamp DATETIME NOT NULL,
		exit_timestamp DATETIME NOT NULL,
		margin_used REAL NOT NULL,
		entry_premium REAL NOT NULL,
		exit_premium REAL NOT NULL,
		strategy_type TEXT NOT NULL,
		exit_reason TEXT NOT NULL,
		pnl REAL NOT NULL,
		transaction_cost REAL NOT NULL,
		legs TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS day_summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run TEXT NOT NULL,
		day DATE NOT NULL,
		trades INTEGER NOT NULL,
		uncounted INTEGER NOT NULL,
		net_pnl REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run, day)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_run_day ON trades(run, day);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_reason ON trades(exit_reason);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTrades inserts one day's closed trades for a run inside a single
// transaction.
func (s *SQLiteLedger) SaveTrades(ctx context.Context, run string, day time.Time, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run, day, entry_timestamp, exit_timestamp, margin_used,
			entry_premium, exit_premium, strategy_type, exit_reason, pnl,
			transaction_cost, legs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		legsJSON, err := json.Marshal(t.Legs)
		if err != nil {
			return fmt.Errorf("marshaling legs: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			run, day.Format("2006-01-02"),
			t.EntryTimestamp, t.ExitTimestamp,
			t.MarginUsed, t.EntryPremium, t.ExitPremium,
			string(t.StrategyType), string(t.ExitReason),
			t.PnL, t.TransactionCost, string(legsJSON))
		if err != nil {
			return fmt.Errorf("inserting trade: %w", err)
		}
	}

	return tx.Commit()
}

// GetTrades returns trades matching the filter, ordered by entry time.
func (s *SQLiteLedger) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT entry_timestamp, exit_timestamp, margin_used, entry_premium,
		exit_premium, strategy_type, exit_reason, pnl, transaction_cost, legs
		FROM trades WHERE 1=1`
	var args []interface{}

	if filter.Run != "" {
		query += " AND run = ?"
		args = append(args, filter.Run)
	}
	if !filter.StartDate.IsZero() {
		query += " AND day >= ?"
		args = append(args, filter.StartDate.Format("2006-01-02"))
	}
	if !filter.EndDate.IsZero() {
		query += " AND day <= ?"
		args = append(args, filter.EndDate.Format("2006-01-02"))
	}
	if filter.Reason != "" {
		query += " AND exit_reason = ?"
		args = append(args, string(filter.Reason))
	}
	query += " ORDER BY entry_timestamp"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var strategyType, exitReason, legsJSON string
		if err := rows.Scan(&t.EntryTimestamp, &t.ExitTimestamp, &t.MarginUsed,
			&t.EntryPremium, &t.ExitPremium, &strategyType, &exitReason,
			&t.PnL, &t.TransactionCost, &legsJSON); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.StrategyType = models.PremiumKind(strategyType)
		t.ExitReason = models.ExitReason(exitReason)
		if err := json.Unmarshal([]byte(legsJSON), &t.Legs); err != nil {
			return nil, fmt.Errorf("unmarshaling legs: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveDaySummary upserts the per-day rollup for a run.
func (s *SQLiteLedger) SaveDaySummary(ctx context.Context, run string, day time.Time, trades, uncounted int, netPnL float64) error {
	_, err := s.db.ExecContext(ctx, strings.TrimSpace(`
		INSERT INTO day_summaries (run, day, trades, uncounted, net_pnl)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run, day) DO UPDATE SET
			trades = excluded.trades,
			uncounted = excluded.uncounted,
			net_pnl = excluded.net_pnl`),
		run, day.Format("2006-01-02"), trades, uncounted, netPnL)
	if err != nil {
		return fmt.Errorf("saving day summary: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
