package models

import "time"

// Leg is one option contract inside a multi-leg position. Entry fields are
// set once when the leg is built and never change; exit fields are rewritten
// on every refresh while the position is open and freeze when it closes.
//
// Entry price and Greeks carry the leg's direction sign (see DeltaMultiplier
// and GreeksMultiplier) so that summing across legs yields net portfolio
// exposure directly.
type Leg struct {
	EntryTime   time.Time
	StrikePrice float64
	OptionType  OptionType
	Action      Action
	LotSize     int
	MarginUsed  float64

	EntryPrice float64
	EntryDelta float64
	EntryTheta float64
	EntryGamma float64
	EntryIV    float64

	ExitTime  time.Time
	ExitPrice float64
	ExitDelta float64
	ExitTheta float64
	ExitGamma float64
	ExitIV    float64
}

// DeltaMultiplier returns the sign applied to a leg's delta. Bought calls and
// sold puts add positive directional exposure; the other two combinations
// subtract it.
func DeltaMultiplier(action Action, optType OptionType) float64 {
	if (action == Buy && optType == Call) || (action == Sell && optType == Put) {
		return 1
	}
	return -1
}

// GreeksMultiplier returns the sign applied to a leg's price, theta, gamma
// and IV. Money paid is positive, money received is negative; unlike delta
// these do not depend on the option type.
func GreeksMultiplier(action Action) float64 {
	if action == Buy {
		return 1
	}
	return -1
}

// ApplyEntry stamps the leg's entry fields from a raw quote, applying the
// direction sign conventions.
func (l *Leg) ApplyEntry(q Quote) {
	gm := GreeksMultiplier(l.Action)
	dm := DeltaMultiplier(l.Action, l.OptionType)

	l.EntryTime = q.Timestamp
	l.EntryPrice = q.OptionPrice * gm
	l.EntryDelta = q.Delta * dm
	l.EntryTheta = q.Theta * gm
	l.EntryGamma = q.Gamma * gm
	l.EntryIV = q.IV * gm
}

// ApplyExit overwrites the leg's exit fields from a raw quote with the same
// sign conventions as entry.
func (l *Leg) ApplyExit(q Quote) {
	gm := GreeksMultiplier(l.Action)
	dm := DeltaMultiplier(l.Action, l.OptionType)

	l.ExitTime = q.Timestamp
	l.ExitPrice = q.OptionPrice * gm
	l.ExitDelta = q.Delta * dm
	l.ExitTheta = q.Theta * gm
	l.ExitGamma = q.Gamma * gm
	l.ExitIV = q.IV * gm
}
