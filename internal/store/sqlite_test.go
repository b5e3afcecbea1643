package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"options-backtester/internal/models"
)

func testLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	ledger, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteLedger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func sampleTrade(day time.Time, reason models.ExitReason, pnl float64) models.Trade {
	return models.Trade{
		EntryTimestamp:  day.Add(10 * time.Hour),
		ExitTimestamp:   day.Add(11 * time.Hour),
		MarginUsed:      -200000,
		EntryPremium:    -220,
		ExitPremium:     -170,
		StrategyType:    models.Credit,
		ExitReason:      reason,
		PnL:             pnl,
		TransactionCost: 0.39,
		Legs: []models.Leg{
			{StrikePrice: 43000, OptionType: models.Call, Action: models.Sell, LotSize: 1, EntryPrice: -120, ExitPrice: -100},
			{StrikePrice: 43000, OptionType: models.Put, Action: models.Sell, LotSize: 1, EntryPrice: -100, ExitPrice: -70},
		},
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	day := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		sampleTrade(day, models.ExitTargetProfit, 50),
		sampleTrade(day, models.ExitStopLoss, -42),
	}
	if err := ledger.SaveTrades(ctx, "BANKNIFTY-short_straddle", day, trades); err != nil {
		t.Fatalf("SaveTrades: %v", err)
	}

	got, err := ledger.GetTrades(ctx, TradeFilter{Run: "BANKNIFTY-short_straddle"})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trades, want 2", len(got))
	}

	first := got[0]
	if first.EntryPremium != -220 || first.StrategyType != models.Credit {
		t.Errorf("trade fields lost: %+v", first)
	}
	if len(first.Legs) != 2 || first.Legs[0].StrikePrice != 43000 {
		t.Errorf("legs lost in round trip: %+v", first.Legs)
	}
}

func TestLedgerReasonFilter(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	day := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		sampleTrade(day, models.ExitTargetProfit, 50),
		sampleTrade(day, models.ExitStopLoss, -42),
		sampleTrade(day, models.ExitTimeBreach, 3),
	}
	if err := ledger.SaveTrades(ctx, "run1", day, trades); err != nil {
		t.Fatalf("SaveTrades: %v", err)
	}

	got, err := ledger.GetTrades(ctx, TradeFilter{Run: "run1", Reason: models.ExitStopLoss})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(got) != 1 || got[0].ExitReason != models.ExitStopLoss {
		t.Errorf("reason filter returned %d trades", len(got))
	}
}

func TestDaySummaryUpsert(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	day := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)

	if err := ledger.SaveDaySummary(ctx, "run1", day, 2, 0, 8); err != nil {
		t.Fatalf("SaveDaySummary: %v", err)
	}
	// Re-running the same day replaces, not duplicates.
	if err := ledger.SaveDaySummary(ctx, "run1", day, 3, 1, 12); err != nil {
		t.Fatalf("SaveDaySummary (second): %v", err)
	}

	var count int
	var netPnL float64
	err := ledger.db.QueryRow(
		`SELECT COUNT(*), MAX(net_pnl) FROM day_summaries WHERE run = ?`, "run1").
		Scan(&count, &netPnL)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 || netPnL != 12 {
		t.Errorf("summary rows = %d net = %v, want 1 row net 12", count, netPnL)
	}
}
