// Package models defines the core domain types shared across the backtester.
package models

import "time"

// OptionType identifies the option contract type.
type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// Action identifies the trade direction of a leg.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "SL_hit"
	ExitTargetProfit ExitReason = "TP_hit"
	ExitTimeBreach   ExitReason = "time_breach"
)

// StrategyKind separates directional strategies (long/short instrument
// mappings keyed by signal direction) from spread strategies (one flat
// instrument list entered on any qualifying signal).
type StrategyKind string

const (
	Directional StrategyKind = "directional"
	Spread      StrategyKind = "spread"
)

// PremiumKind classifies a position by its net entry premium.
// Credit positions receive premium at entry (negative signed sum),
// debit positions pay it.
type PremiumKind string

const (
	Credit PremiumKind = "credit"
	Debit  PremiumKind = "debit"
)

// Quote is one row of the per-second options table: a single instrument's
// price and Greeks at one timestamp. The Greeks model upstream is a black
// box; quotes arrive fully populated.
type Quote struct {
	Timestamp   time.Time
	StrikePrice float64
	OptionType  OptionType
	OptionPrice float64
	Delta       float64
	Gamma       float64
	Theta       float64
	IV          float64
	SpotPrice   float64
}

// FuturesTick is one tick of the underlying's futures series, used to build
// OHLC candles for signal generation.
type FuturesTick struct {
	Timestamp time.Time
	Close     float64
	Volume    int64
	OI        int64
}

// Candle is an aggregated OHLC bar over futures ticks.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	OI        int64
}

// InstrumentSpec describes one leg of a strategy relative to the ATM strike.
// Specs are immutable strategy configuration.
type InstrumentSpec struct {
	StrikeOffset float64    `mapstructure:"strike_offset"`
	OptionType   OptionType `mapstructure:"option_type"`
	Action       Action     `mapstructure:"action"`
	Lots         int        `mapstructure:"lots"`
}
