package backtest

import (
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"options-backtester/internal/chain"
	"options-backtester/internal/legs"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/signals"
	"options-backtester/pkg/utils"
)

var day = time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)

const cutoff = 15*time.Hour + 15*time.Minute

func at(clock string) time.Time {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		panic(err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}

func quoteAt(ts time.Time, strike float64, opt models.OptionType, price, spot float64) models.Quote {
	return models.Quote{
		Timestamp:   ts,
		StrikePrice: strike,
		OptionType:  opt,
		OptionPrice: price,
		Delta:       0.5,
		Gamma:       0.001,
		Theta:       -5,
		IV:          20,
		SpotPrice:   spot,
	}
}

func shortStraddle() Strategy {
	return Strategy{
		Kind: models.Spread,
		Spread: []models.InstrumentSpec{
			{StrikeOffset: 0, OptionType: models.Call, Action: models.Sell, Lots: 1},
			{StrikeOffset: 0, OptionType: models.Put, Action: models.Sell, Lots: 1},
		},
		Thresholds: position.ThresholdInputs{
			StopLoss: 1.1, TargetProfit: 0.8,
			SLPercentage: true, TPPercentage: true,
		},
	}
}

func newEngine(s Strategy) *Backtester {
	cfg := legs.BuilderConfig{
		MarginPerLot: 100000,
		LotUnits:     15,
		Probe:        utils.ProbeConfig{MaxAttempts: 10, Step: time.Second},
	}
	return New(s, cfg, cutoff, 0.001, zerolog.Nop())
}

func entryRow(ts time.Time) signals.Classified {
	return signals.Classified{Timestamp: ts, Entry: true, Side: signals.CategoryNothing}
}

func TestRunShortStraddleTargetProfit(t *testing.T) {
	entry := at("10:00:00")
	table := chain.New([]models.Quote{
		quoteAt(entry, 43000, models.Call, 120, 43010),
		quoteAt(entry, 43000, models.Put, 100, 43010),
		quoteAt(entry.Add(time.Second), 43000, models.Call, 100, 43005),
		quoteAt(entry.Add(time.Second), 43000, models.Put, 70, 43005),
	})

	result := newEngine(shortStraddle()).Run(day, table, []signals.Classified{entryRow(entry)})

	if len(result.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(result.Trades))
	}
	trade := result.Trades[0]

	if trade.StrategyType != models.Credit {
		t.Errorf("StrategyType = %s, want credit", trade.StrategyType)
	}
	if trade.EntryPremium != -220 {
		t.Errorf("EntryPremium = %v, want -220", trade.EntryPremium)
	}
	// Refresh at 10:00:01 marks -170, inside the 176 target.
	if trade.ExitPremium != -170 {
		t.Errorf("ExitPremium = %v, want -170", trade.ExitPremium)
	}
	if trade.ExitReason != models.ExitTargetProfit {
		t.Errorf("ExitReason = %s, want %s", trade.ExitReason, models.ExitTargetProfit)
	}
	if !trade.ExitTimestamp.Equal(entry.Add(time.Second)) {
		t.Errorf("ExitTimestamp = %v, want %v", trade.ExitTimestamp, entry.Add(time.Second))
	}
	if trade.PnL != 50 {
		t.Errorf("PnL = %v, want 50", trade.PnL)
	}
	if trade.MarginUsed != -200000 {
		t.Errorf("MarginUsed = %v, want -200000", trade.MarginUsed)
	}
}

func TestRunAbandonsOnQuoteGap(t *testing.T) {
	entry := at("10:00:00")
	// Quotes exist only at the entry second; every exit refresh will
	// exhaust its probe budget.
	table := chain.New([]models.Quote{
		quoteAt(entry, 43000, models.Call, 120, 43010),
		quoteAt(entry, 43000, models.Put, 100, 43010),
	})

	result := newEngine(shortStraddle()).Run(day, table, []signals.Classified{entryRow(entry)})

	if len(result.Trades) != 0 {
		t.Errorf("got %d trades, want 0", len(result.Trades))
	}
	if result.Uncounted != 1 {
		t.Errorf("Uncounted = %d, want 1", result.Uncounted)
	}
}

func TestRunNoSignals(t *testing.T) {
	entry := at("10:00:00")
	table := chain.New([]models.Quote{
		quoteAt(entry, 43000, models.Call, 120, 43010),
	})

	result := newEngine(shortStraddle()).Run(day, table, nil)

	if len(result.Trades) != 0 || result.Uncounted != 0 {
		t.Errorf("expected empty result, got %d trades %d uncounted", len(result.Trades), result.Uncounted)
	}
}

func TestRunTimeBreachClosesAtCutoff(t *testing.T) {
	entry := at("15:14:58")
	var quotes []models.Quote
	// Flat prices around the cutoff so neither threshold can fire.
	for i := 0; i <= 3; i++ {
		ts := entry.Add(time.Duration(i) * time.Second)
		quotes = append(quotes,
			quoteAt(ts, 43000, models.Call, 120, 43010),
			quoteAt(ts, 43000, models.Put, 100, 43010),
		)
	}
	table := chain.New(quotes)

	result := newEngine(shortStraddle()).Run(day, table, []signals.Classified{entryRow(entry)})

	if len(result.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(result.Trades))
	}
	trade := result.Trades[0]

	if trade.ExitReason != models.ExitTimeBreach {
		t.Errorf("ExitReason = %s, want %s", trade.ExitReason, models.ExitTimeBreach)
	}
	if !trade.ExitTimestamp.Equal(at("15:15:00")) {
		t.Errorf("ExitTimestamp = %v, want 15:15:00", trade.ExitTimestamp)
	}
	if trade.PnL != 0 {
		t.Errorf("PnL = %v, want 0", trade.PnL)
	}
}

func TestRunDropsUnpriceableEntry(t *testing.T) {
	first := at("10:00:00")
	second := at("10:30:00")

	// No rows at the first signal second; entry fails there and the second
	// signal succeeds.
	table := chain.New([]models.Quote{
		quoteAt(second, 43000, models.Call, 120, 43010),
		quoteAt(second, 43000, models.Put, 100, 43010),
		quoteAt(second.Add(time.Second), 43000, models.Call, 100, 43005),
		quoteAt(second.Add(time.Second), 43000, models.Put, 70, 43005),
	})

	result := newEngine(shortStraddle()).Run(day, table,
		[]signals.Classified{entryRow(first), entryRow(second)})

	if len(result.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(result.Trades))
	}
	if !result.Trades[0].EntryTimestamp.Equal(second) {
		t.Errorf("EntryTimestamp = %v, want %v", result.Trades[0].EntryTimestamp, second)
	}
}

func TestRunSkipsSignalsWhilePositionOpen(t *testing.T) {
	entry := at("10:00:00")
	exitTS := entry.Add(2 * time.Second)

	table := chain.New([]models.Quote{
		quoteAt(entry, 43000, models.Call, 120, 43010),
		quoteAt(entry, 43000, models.Put, 100, 43010),
		quoteAt(entry.Add(time.Second), 43000, models.Call, 115, 43008),
		quoteAt(entry.Add(time.Second), 43000, models.Put, 95, 43008),
		quoteAt(exitTS, 43000, models.Call, 100, 43005),
		quoteAt(exitTS, 43000, models.Put, 70, 43005),
	})

	// The second signal fires while the first position is still open and
	// must not produce a second trade.
	rows := []signals.Classified{
		entryRow(entry),
		entryRow(entry.Add(time.Second)),
	}

	result := newEngine(shortStraddle()).Run(day, table, rows)

	if len(result.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(result.Trades))
	}
}

func TestRunIdenticalInputsIdenticalTrades(t *testing.T) {
	first := at("10:00:00")
	second := at("11:00:00")

	// Two independent entries: the first exits on target, the second on stop.
	table := chain.New([]models.Quote{
		quoteAt(first, 43000, models.Call, 120, 43010),
		quoteAt(first, 43000, models.Put, 100, 43010),
		quoteAt(first.Add(time.Second), 43000, models.Call, 100, 43005),
		quoteAt(first.Add(time.Second), 43000, models.Put, 70, 43005),
		quoteAt(second, 43100, models.Call, 110, 43110),
		quoteAt(second, 43100, models.Put, 90, 43110),
		quoteAt(second.Add(time.Second), 43100, models.Call, 130, 43150),
		quoteAt(second.Add(time.Second), 43100, models.Put, 95, 43150),
	})
	rows := []signals.Classified{entryRow(first), entryRow(second)}

	engine := newEngine(shortStraddle())
	one := engine.Run(day, table, rows)
	two := engine.Run(day, table, rows)

	if len(one.Trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(one.Trades))
	}
	if one.Trades[0].ExitReason != models.ExitTargetProfit || one.Trades[1].ExitReason != models.ExitStopLoss {
		t.Errorf("exit reasons = %s, %s", one.Trades[0].ExitReason, one.Trades[1].ExitReason)
	}
	if !reflect.DeepEqual(one, two) {
		t.Errorf("repeated run diverged:\nfirst  %+v\nsecond %+v", one, two)
	}
}

func TestDirectionalSideSelection(t *testing.T) {
	s := Strategy{
		Kind: models.Directional,
		Long: []models.InstrumentSpec{
			{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
		},
	}

	if got := s.instrumentsFor(signals.CategoryLong); len(got) != 1 {
		t.Errorf("long side returned %d specs, want 1", len(got))
	}
	// No short mapping configured; a short signal enters nothing.
	if got := s.instrumentsFor(signals.CategoryShort); got != nil {
		t.Errorf("short side returned %v, want nil", got)
	}
}
