// Package legs builds option legs and expands strategy instrument specs
// into concrete positions against a quote chain.
package legs

import (
	"fmt"
	"time"

	"options-backtester/internal/chain"
	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

// BuilderConfig holds the margin conventions and probe budget applied when
// materializing legs.
type BuilderConfig struct {
	MarginPerLot float64 // fixed block reserved per sold lot
	LotUnits     float64 // contract units per lot, prices bought-leg margin
	Probe        utils.ProbeConfig
}

// DefaultBuilderConfig returns the standard BANKNIFTY conventions.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		MarginPerLot: 100000,
		LotUnits:     15,
		Probe:        utils.DefaultProbeConfig(),
	}
}

// Builder materializes immutable leg entry records from a quote chain.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build resolves the first quote at or after ts for the exact (strike, type)
// pair and materializes a leg with sign-adjusted entry price and Greeks.
// The forward search is bounded: if the instrument never quotes inside the
// probe budget the leg is unavailable and the entry attempt must be
// abandoned by the caller.
func (b *Builder) Build(view *chain.Table, ts time.Time, strike float64, action models.Action, optType models.OptionType, lots int) (models.Leg, error) {
	key := chain.Key{StrikePrice: strike, OptionType: optType}
	quote, _, err := view.ResolveForward(ts, b.cfg.Probe, key)
	if err != nil {
		return models.Leg{}, fmt.Errorf("%w: %w", errs.ErrLegUnavailable, err)
	}

	leg := models.Leg{
		StrikePrice: strike,
		OptionType:  optType,
		Action:      action,
		LotSize:     lots,
		MarginUsed:  b.margin(action, quote.OptionPrice, lots),
	}
	leg.ApplyEntry(quote)
	return leg, nil
}

// margin prices the capital a leg ties up. Sold legs reserve a fixed block
// per lot regardless of premium; bought legs cost the premium paid.
func (b *Builder) margin(action models.Action, price float64, lots int) float64 {
	if action == models.Sell {
		return -b.cfg.MarginPerLot * float64(lots)
	}
	return price * b.cfg.LotUnits * float64(lots)
}
