// Package backtest runs the per-session execution core: it walks classified
// signal rows against an options chain, opens multi-leg positions, marks
// them to market second by second, and emits frozen trade records.
package backtest

import (
	"time"

	"github.com/rs/zerolog"

	"options-backtester/internal/chain"
	errs "options-backtester/internal/errors"
	"options-backtester/internal/legs"
	"options-backtester/internal/logging"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/signals"
	"options-backtester/pkg/utils"
)

// Strategy is the immutable per-run strategy definition. Directional
// strategies pick the Long or Short instrument list from the signal side;
// spread strategies always enter Spread.
type Strategy struct {
	Kind       models.StrategyKind
	Long       []models.InstrumentSpec
	Short      []models.InstrumentSpec
	Spread     []models.InstrumentSpec
	Thresholds position.ThresholdInputs
}

// instrumentsFor maps a classified signal side to the instrument list that
// should be entered, or nil when the side has no mapping.
func (s Strategy) instrumentsFor(side signals.Category) []models.InstrumentSpec {
	if s.Kind == models.Spread {
		return s.Spread
	}
	switch side {
	case signals.CategoryLong:
		return s.Long
	case signals.CategoryShort:
		return s.Short
	}
	return nil
}

// Result is the outcome of one session run.
type Result struct {
	Day       time.Time
	Trades    []models.Trade
	Uncounted int
	Metrics   models.PortfolioMetrics
}

// Backtester executes one strategy over single-session chains. At most one
// position is open at any moment; a new entry is considered only after the
// previous position has closed or been abandoned.
type Backtester struct {
	strategy Strategy
	resolver *legs.Resolver
	probe    utils.ProbeConfig
	cutoff   time.Duration // time of day when open positions are force-closed
	feeRate  float64
	logger   zerolog.Logger
}

// New creates a Backtester.
func New(strategy Strategy, builderCfg legs.BuilderConfig, cutoff time.Duration, feeRate float64, logger zerolog.Logger) *Backtester {
	return &Backtester{
		strategy: strategy,
		resolver: legs.NewResolver(legs.NewBuilder(builderCfg)),
		probe:    builderCfg.Probe,
		cutoff:   cutoff,
		feeRate:  feeRate,
		logger:   logger,
	}
}

// Run walks the classified signal rows for one session against its quote
// table. Signal rows consumed while a position was being managed are
// skipped; the cursor only moves forward. An entry attempt that cannot
// price every leg is dropped and the walk resumes at the next signal row.
func (b *Backtester) Run(day time.Time, table *chain.Table, rows []signals.Classified) Result {
	started := time.Now()
	result := Result{Day: day}
	if table == nil || table.Empty() || len(rows) == 0 {
		return result
	}

	cutoffTS := utils.AtTimeOfDay(day, b.cutoff)
	var cursor time.Time

	for _, row := range rows {
		if row.Timestamp.Before(cursor) {
			continue
		}
		if !row.Timestamp.Before(cutoffTS) {
			break
		}
		if !row.Entry {
			continue
		}

		specs := b.strategy.instrumentsFor(row.Side)
		if len(specs) == 0 {
			continue
		}

		pos, view, err := b.enterWith(table, row.Timestamp, specs)
		if err != nil {
			evt := b.logger.Debug().Time("timestamp", row.Timestamp).Err(err)
			var qe *errs.QuoteError
			if errs.As(err, &qe) {
				evt = evt.Float64("strike", qe.StrikePrice).Int("attempts", qe.Attempts)
			}
			evt.Msg("Entry attempt dropped")
			cursor = row.Timestamp.Add(time.Second)
			continue
		}

		logging.LogEntry(b.logger, pos.EntryTimestamp, pos.EntryPremium, pos.MarginUsed, pos.StrategyType, len(pos.Legs))

		trade, lastTS, ok := b.manage(pos, view, row.Timestamp.Add(time.Second), cutoffTS)
		if !ok {
			result.Uncounted++
			logging.LogAbandoned(b.logger, lastTS)
			cursor = lastTS
			continue
		}

		result.Trades = append(result.Trades, trade)
		result.Metrics.Accumulate(trade)
		logging.LogExit(b.logger, trade)
		cursor = trade.ExitTimestamp
	}

	logging.LogDay(b.logger, day, len(result.Trades), result.Uncounted, time.Since(started))
	return result
}

// enterWith opens a position at ts: the ATM strike is taken from the rows
// quoted at exactly ts, each spec is built around it, and the chain is
// narrowed to the position's instruments for exit polling.
func (b *Backtester) enterWith(table *chain.Table, ts time.Time, specs []models.InstrumentSpec) (*position.Position, *chain.Table, error) {
	atm, err := table.ATMStrike(ts)
	if err != nil {
		return nil, nil, err
	}

	built, view, err := b.resolver.Resolve(table, ts, atm, specs)
	if err != nil {
		return nil, nil, err
	}

	return position.New(ts, built, b.strategy.Thresholds), view, nil
}

// manage marks the open position forward from startTS until a threshold
// hits, the session cutoff arrives, or the quote stream dies. The bool
// result is false when the position had to be abandoned unpriced; lastTS is
// then the timestamp the failed refresh started from.
func (b *Backtester) manage(pos *position.Position, view *chain.Table, startTS, cutoffTS time.Time) (models.Trade, time.Time, bool) {
	ts := startTS
	for {
		markTS, forceClose := pos.RefreshAt(view, ts, b.probe)
		if forceClose {
			return models.Trade{}, ts, false
		}

		pos.ComputeExitPremium()

		if reason, hit := pos.CheckThresholds(); hit {
			return pos.Close(markTS, reason, b.feeRate), markTS, true
		}

		if !markTS.Before(cutoffTS) {
			// The session is over for this position regardless of where the
			// last quote landed; the record shows the cutoff itself.
			return pos.Close(cutoffTS, models.ExitTimeBreach, b.feeRate), markTS, true
		}

		ts = markTS.Add(time.Second)
	}
}
