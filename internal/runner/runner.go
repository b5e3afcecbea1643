// Package runner orchestrates a backtest over a date range: per-day data
// loading, signal generation, engine execution in parallel across days, and
// result persistence.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"options-backtester/internal/backtest"
	"options-backtester/internal/chain"
	"options-backtester/internal/config"
	errs "options-backtester/internal/errors"
	"options-backtester/internal/indicators"
	"options-backtester/internal/legs"
	"options-backtester/internal/logging"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/signals"
	"options-backtester/internal/store"
	"options-backtester/pkg/utils"
)

// Runner wires a quote store, a strategy, and the execution core into a
// multi-day backtest. Days are independent sessions and run in parallel.
type Runner struct {
	cfg      *config.Config
	quotes   store.QuoteStore
	ledger   store.LedgerStore
	strategy backtest.Strategy
	cutoff   time.Duration
	logger   zerolog.Logger
}

// New builds a Runner from configuration. Spread strategies referring to a
// named template are expanded here; the ledger may be nil when persistence
// is not wanted.
func New(cfg *config.Config, quotes store.QuoteStore, ledger store.LedgerStore, logger zerolog.Logger) (*Runner, error) {
	strategy, err := strategyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	cutoff, err := config.ParseSessionTime(cfg.Backtest.SessionCutoff)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		quotes:   quotes,
		ledger:   ledger,
		strategy: strategy,
		cutoff:   cutoff,
		logger:   logging.WithTicker(logger, cfg.Backtest.Ticker),
	}, nil
}

func strategyFromConfig(cfg *config.Config) (backtest.Strategy, error) {
	s := backtest.Strategy{
		Kind:   cfg.Strategy.Kind,
		Long:   cfg.Strategy.Long,
		Short:  cfg.Strategy.Short,
		Spread: cfg.Strategy.Spread,
		Thresholds: position.ThresholdInputs{
			StopLoss:     cfg.Thresholds.StopLoss,
			TargetProfit: cfg.Thresholds.TargetProfit,
			SLPercentage: cfg.Thresholds.SLPercentageBase,
			TPPercentage: cfg.Thresholds.TPPercentageBase,
		},
	}

	if s.Kind == models.Spread && len(s.Spread) == 0 {
		specs, err := legs.Template(cfg.Strategy.Template)
		if err != nil {
			return backtest.Strategy{}, err
		}
		s.Spread = specs
	}
	return s, nil
}

// Days resolves the session dates to run: the configured date range when
// set, otherwise every day the store has options data for.
func (r *Runner) Days() ([]time.Time, error) {
	stored, err := r.quotes.Days(r.cfg.Backtest.Ticker)
	if err != nil {
		return nil, errs.Wrap(err, "listing sessions")
	}
	if r.cfg.Backtest.StartDate == "" {
		return stored, nil
	}

	start, err := time.ParseInLocation("2006-01-02", r.cfg.Backtest.StartDate, utils.IndiaLocation)
	if err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	end := start
	if r.cfg.Backtest.EndDate != "" {
		end, err = time.ParseInLocation("2006-01-02", r.cfg.Backtest.EndDate, utils.IndiaLocation)
		if err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
	}

	var days []time.Time
	for _, d := range stored {
		if !d.Before(start) && !d.After(end) {
			days = append(days, d)
		}
	}
	return days, nil
}

// Run executes the backtest over the given days in parallel and persists
// results when a ledger is attached. Result order follows completion, not
// the input; callers that need day order sort on Result.Day.
func (r *Runner) Run(ctx context.Context, days []time.Time) ([]backtest.Result, error) {
	if len(days) == 0 {
		return nil, errs.ErrNoData
	}

	p := pool.NewWithResults[backtest.Result]().
		WithMaxGoroutines(r.cfg.Backtest.Workers).
		WithContext(ctx)

	for _, day := range days {
		day := day
		p.Go(func(ctx context.Context) (backtest.Result, error) {
			return r.RunDay(ctx, day)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	if r.ledger != nil {
		run := r.runName()
		for _, res := range results {
			if err := r.ledger.SaveTrades(ctx, run, res.Day, res.Trades); err != nil {
				return nil, err
			}
			var net float64
			for _, t := range res.Trades {
				net += t.NetPnL()
			}
			if err := r.ledger.SaveDaySummary(ctx, run, res.Day, len(res.Trades), res.Uncounted, net); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// RunDay executes one session. A day with no options data is an ordinary
// empty result, not an error.
func (r *Runner) RunDay(ctx context.Context, day time.Time) (backtest.Result, error) {
	logger := logging.WithDay(r.logger, day)

	quotes, err := r.quotes.ReadQuotes(ctx, r.cfg.Backtest.Ticker, day)
	if err != nil {
		return backtest.Result{}, err
	}
	if len(quotes) == 0 {
		logger.Debug().Msg("No options data, skipping session")
		return backtest.Result{Day: day}, nil
	}

	rows, err := r.signalRows(ctx, day)
	if errs.Is(err, errs.ErrNoSignals) {
		logger.Debug().Msg("No signals for session")
		return backtest.Result{Day: day}, nil
	}
	if err != nil {
		return backtest.Result{}, err
	}

	table := chain.New(quotes)
	builderCfg := legs.BuilderConfig{
		MarginPerLot: r.cfg.Margin.PerLot,
		LotUnits:     r.cfg.Margin.LotUnits,
		Probe: utils.ProbeConfig{
			MaxAttempts: r.cfg.Backtest.RetryBudget,
			Step:        time.Second,
		},
	}

	engine := backtest.New(r.strategy, builderCfg, r.cutoff, r.cfg.Backtest.FeeRate, logger)
	return engine.Run(day, table, rows), nil
}

// signalRows produces the classified entry stream for one day. Precomputed
// signal files win; otherwise the configured builder runs over futures
// candles. A day with neither reports ErrNoSignals.
func (r *Runner) signalRows(ctx context.Context, day time.Time) ([]signals.Classified, error) {
	if recs, err := r.quotes.ReadSignals(ctx, r.cfg.Backtest.Ticker, day); err != nil {
		return nil, err
	} else if len(recs) > 0 {
		return signals.Entries(signals.Classify(signals.FromRecords(recs), r.strategy.Kind)), nil
	}

	ticks, err := r.quotes.ReadFutures(ctx, r.cfg.Backtest.Ticker, day)
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, errs.ErrNoSignals
	}

	candles := indicators.BuildCandles(ticks, time.Minute)
	frame, err := r.buildFrame(candles)
	if err != nil {
		return nil, err
	}
	return signals.Entries(signals.Classify(frame, r.strategy.Kind)), nil
}

func (r *Runner) buildFrame(candles []models.Candle) (signals.Frame, error) {
	sc := r.cfg.Signals
	switch sc.Builder {
	case "sma":
		return signals.FromSMA(candles, sc.Window), nil
	case "rsi":
		return signals.FromRSI(candles, sc.Window, sc.LowerLimit, sc.UpperLimit), nil
	case "tags":
		return r.tagFrame(candles)
	default:
		return signals.Frame{}, fmt.Errorf("unknown signal builder %q", sc.Builder)
	}
}

// tagFrame evaluates every configured indicator tag against the band limits
// at once; an entry fires only when all tags agree.
func (r *Runner) tagFrame(candles []models.Candle) (signals.Frame, error) {
	closes := indicators.Closes(candles)
	timestamps := make([]time.Time, len(candles))
	for i, c := range candles {
		timestamps[i] = c.Timestamp
	}

	tags := make(map[string][]float64, len(r.cfg.Signals.Tags))
	for _, name := range r.cfg.Signals.Tags {
		switch name {
		case "rsi":
			tags[name] = indicators.RSI(closes, r.cfg.Signals.Window)
		case "sma":
			tags[name] = indicators.SMA(closes, r.cfg.Signals.Window)
		default:
			return signals.Frame{}, fmt.Errorf("unknown signal tag %q", name)
		}
	}
	return signals.FromTags(timestamps, tags, r.cfg.Signals.LowerLimit, r.cfg.Signals.UpperLimit), nil
}

func (r *Runner) runName() string {
	if r.strategy.Kind == models.Spread && r.cfg.Strategy.Template != "" {
		return fmt.Sprintf("%s-%s", r.cfg.Backtest.Ticker, r.cfg.Strategy.Template)
	}
	return fmt.Sprintf("%s-%s", r.cfg.Backtest.Ticker, r.strategy.Kind)
}
