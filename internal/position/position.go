// Package position owns a live multi-leg position: its entry economics,
// resolved exit thresholds, and the per-second mark-to-market refresh.
package position

import (
	"math"
	"time"

	"options-backtester/internal/chain"
	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

// ThresholdInputs carries the raw stop-loss / target-profit configuration
// before resolution against a concrete entry premium.
type ThresholdInputs struct {
	StopLoss     float64
	TargetProfit float64
	SLPercentage bool
	TPPercentage bool
}

// Position is one open multi-leg position. A position is created in the open
// state, refreshed leg-by-leg while open, and closed exactly once.
type Position struct {
	EntryTimestamp time.Time
	Legs           []models.Leg
	EntryPremium   float64
	MarginUsed     float64
	StrategyType   models.PremiumKind
	StopLoss       float64
	TargetProfit   float64

	ExitPremium   float64
	ExitTimestamp time.Time
	PnL           float64
}

// New creates an open position from built legs, computing the entry premium
// and margin, classifying credit/debit, and resolving the exit thresholds
// once at entry.
func New(entryTS time.Time, built []models.Leg, inputs ThresholdInputs) *Position {
	var premium, margin float64
	for _, leg := range built {
		premium += leg.EntryPrice * float64(leg.LotSize)
		margin += leg.MarginUsed
	}

	kind := models.Debit
	if premium < 0 {
		kind = models.Credit
	}

	sl, tp := ResolveThresholds(premium, inputs)

	return &Position{
		EntryTimestamp: entryTS,
		Legs:           built,
		EntryPremium:   premium,
		MarginUsed:     margin,
		StrategyType:   kind,
		StopLoss:       sl,
		TargetProfit:   tp,
	}
}

// ResolveThresholds converts raw stop-loss / target-profit inputs into
// absolute premium thresholds for the given signed entry premium.
//
// Percentage values are multipliers centered at 1.0. For a credit position
// they apply directly to |premium|; for a debit position they are mirrored
// around breakeven (a 1.1 stop becomes 0.9 of |premium|), since a debit
// position loses when its premium shrinks and wins when it grows.
func ResolveThresholds(premium float64, in ThresholdInputs) (stopLoss, targetProfit float64) {
	abs := math.Abs(premium)
	credit := premium < 0

	if in.SLPercentage {
		if credit {
			stopLoss = abs * in.StopLoss
		} else {
			stopLoss = abs * (1 - (in.StopLoss - 1))
		}
	} else {
		if credit {
			stopLoss = abs + in.StopLoss
		} else {
			stopLoss = abs - in.StopLoss
		}
	}

	if in.TPPercentage {
		if credit {
			targetProfit = abs * in.TargetProfit
		} else {
			targetProfit = abs * (1 + (1 - in.TargetProfit))
		}
	} else {
		if credit {
			targetProfit = abs - in.TargetProfit
		} else {
			targetProfit = abs + in.TargetProfit
		}
	}

	return stopLoss, targetProfit
}

// RefreshAt re-marks every leg from the filtered chain, searching forward
// from ts within the probe budget. Legs may resolve at different timestamps
// when their gaps differ; the maximum timestamp seen is returned so the
// caller's clock never runs backwards. If any leg has no quote inside the
// budget the position cannot be priced and must be abandoned: forceClose is
// true and the remaining legs are left untouched.
func (p *Position) RefreshAt(view *chain.Table, ts time.Time, probe utils.ProbeConfig) (maxTS time.Time, forceClose bool) {
	maxTS = ts
	for i := range p.Legs {
		leg := &p.Legs[i]
		key := chain.Key{StrikePrice: leg.StrikePrice, OptionType: leg.OptionType}

		quote, seenAt, err := view.ResolveForward(ts, probe, key)
		if err != nil {
			return maxTS, true
		}

		leg.ApplyExit(quote)
		if seenAt.After(maxTS) {
			maxTS = seenAt
		}
	}
	return maxTS, false
}

// ComputeExitPremium sums the current sign-adjusted leg exit prices and
// records the result on the position.
func (p *Position) ComputeExitPremium() float64 {
	var premium float64
	for _, leg := range p.Legs {
		premium += leg.ExitPrice * float64(leg.LotSize)
	}
	p.ExitPremium = premium
	return premium
}

// CheckThresholds evaluates the strategy-dependent exit conditions against
// the current exit premium. A credit position profits as |premium| shrinks
// toward zero; a debit position profits as it grows. Stop-loss is evaluated
// before target-profit, so stop-loss wins ties.
func (p *Position) CheckThresholds() (models.ExitReason, bool) {
	abs := math.Abs(p.ExitPremium)

	switch p.StrategyType {
	case models.Credit:
		if abs >= p.StopLoss {
			return models.ExitStopLoss, true
		}
		if abs <= p.TargetProfit {
			return models.ExitTargetProfit, true
		}
	case models.Debit:
		if abs <= p.StopLoss {
			return models.ExitStopLoss, true
		}
		if abs >= p.TargetProfit {
			return models.ExitTargetProfit, true
		}
	}
	return "", false
}

// Close freezes the position and returns its trade record. The transaction
// cost approximates round-trip brokerage as a flat fraction of each leg's
// combined entry and exit value. The returned trade owns a copy of the legs,
// so the snapshot never aliases the position.
func (p *Position) Close(ts time.Time, reason models.ExitReason, feeRate float64) models.Trade {
	p.ExitTimestamp = ts
	p.PnL = p.ExitPremium - p.EntryPremium

	var cost float64
	for _, leg := range p.Legs {
		cost += math.Abs(leg.EntryPrice+leg.ExitPrice) * float64(leg.LotSize) * feeRate
	}

	frozen := make([]models.Leg, len(p.Legs))
	copy(frozen, p.Legs)

	return models.Trade{
		EntryTimestamp:  p.EntryTimestamp,
		ExitTimestamp:   ts,
		MarginUsed:      p.MarginUsed,
		EntryPremium:    p.EntryPremium,
		ExitPremium:     p.ExitPremium,
		StrategyType:    p.StrategyType,
		ExitReason:      reason,
		PnL:             p.PnL,
		TransactionCost: cost,
		Legs:            frozen,
	}
}
