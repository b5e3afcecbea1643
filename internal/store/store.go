// Package store provides data persistence: parquet tables for market data
// and a sqlite ledger for backtest results.
package store

import (
	"context"
	"time"

	"options-backtester/internal/models"
	"options-backtester/internal/signals"
)

// QuoteStore reads and writes per-session market data.
type QuoteStore interface {
	// Options
	WriteQuotes(ctx context.Context, ticker string, day time.Time, quotes []models.Quote) error
	ReadQuotes(ctx context.Context, ticker string, day time.Time) ([]models.Quote, error)

	// Futures
	WriteFutures(ctx context.Context, ticker string, day time.Time, ticks []models.FuturesTick) error
	ReadFutures(ctx context.Context, ticker string, day time.Time) ([]models.FuturesTick, error)

	// Precomputed signals, optional per day
	WriteSignals(ctx context.Context, ticker string, day time.Time, recs []signals.Record) error
	ReadSignals(ctx context.Context, ticker string, day time.Time) ([]signals.Record, error)

	// Days lists the session dates with options data for a ticker.
	Days(ticker string) ([]time.Time, error)
}

// LedgerStore persists closed trades and per-day summaries.
type LedgerStore interface {
	SaveTrades(ctx context.Context, run string, day time.Time, trades []models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	SaveDaySummary(ctx context.Context, run string, day time.Time, trades, uncounted int, netPnL float64) error
	Close() error
}

// TradeFilter narrows ledger queries.
type TradeFilter struct {
	Run       string
	StartDate time.Time
	EndDate   time.Time
	Reason    models.ExitReason
	Limit     int
}
