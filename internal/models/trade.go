package models

import "time"

// Trade is the flattened snapshot of a closed position: the sole output the
// execution core produces. Legs inside a Trade are frozen copies, never
// aliased to a live position.
type Trade struct {
	EntryTimestamp  time.Time
	ExitTimestamp   time.Time
	MarginUsed      float64
	EntryPremium    float64
	ExitPremium     float64
	StrategyType    PremiumKind
	ExitReason      ExitReason
	PnL             float64
	TransactionCost float64
	Legs            []Leg
}

// NetPnL is the trade's profit after the flat transaction fee.
func (t Trade) NetPnL() float64 {
	return t.PnL - t.TransactionCost
}

// PortfolioMetrics accumulates net exposure over closed positions. Leg values
// already carry their direction sign, so plain sums give portfolio Greeks.
type PortfolioMetrics struct {
	CurrentTimestamp time.Time
	NetPnL           float64
	Delta            float64
	Gamma            float64
	Theta            float64
	IV               float64
}

// Accumulate folds one closed trade into the running metrics.
func (m *PortfolioMetrics) Accumulate(t Trade) {
	for _, leg := range t.Legs {
		lots := float64(leg.LotSize)
		m.Delta += leg.ExitDelta * lots
		m.Gamma += leg.ExitGamma * lots
		m.Theta += leg.ExitTheta * lots
		m.IV += leg.ExitIV * lots
	}
	m.CurrentTimestamp = t.ExitTimestamp
	m.NetPnL += t.NetPnL()
}
