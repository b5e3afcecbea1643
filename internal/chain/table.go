// Package chain holds the per-session options quote table and the bounded
// forward-scan lookups the execution core performs against it.
package chain

import (
	"math"
	"sort"
	"time"

	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

// Key identifies one instrument within the chain.
type Key struct {
	StrikePrice float64
	OptionType  models.OptionType
}

// Table is an immutable view over one session's option quotes, indexed by
// second. The index is irregular: not every second has a row, and a second
// may carry any subset of instruments.
type Table struct {
	bySecond map[int64][]models.Quote
	first    time.Time
	last     time.Time
}

// New builds a table from raw quote rows.
func New(quotes []models.Quote) *Table {
	t := &Table{bySecond: make(map[int64][]models.Quote, len(quotes))}
	for _, q := range quotes {
		sec := q.Timestamp.Unix()
		t.bySecond[sec] = append(t.bySecond[sec], q)
		if t.first.IsZero() || q.Timestamp.Before(t.first) {
			t.first = q.Timestamp
		}
		if q.Timestamp.After(t.last) {
			t.last = q.Timestamp
		}
	}
	return t
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.bySecond) == 0
}

// First returns the earliest quoted timestamp.
func (t *Table) First() time.Time {
	return t.first
}

// Last returns the latest quoted timestamp.
func (t *Table) Last() time.Time {
	return t.last
}

// At returns all quote rows at exactly ts, or nil.
func (t *Table) At(ts time.Time) []models.Quote {
	return t.bySecond[ts.Unix()]
}

// QuoteAt returns the quote for one instrument at exactly ts.
func (t *Table) QuoteAt(ts time.Time, key Key) (models.Quote, bool) {
	for _, q := range t.bySecond[ts.Unix()] {
		if q.StrikePrice == key.StrikePrice && q.OptionType == key.OptionType {
			return q, true
		}
	}
	return models.Quote{}, false
}

// ATMStrike returns the strike closest to the spot price among the rows
// quoted at exactly ts. Entry attempts fail when the entry second has no
// rows at all; the caller advances its cursor instead of searching forward.
func (t *Table) ATMStrike(ts time.Time) (float64, error) {
	rows := t.At(ts)
	if len(rows) == 0 {
		return 0, errs.Wrapf(errs.ErrMissingQuote, "no rows at %s", ts.Format("15:04:05"))
	}

	best := rows[0].StrikePrice
	bestDiff := math.Abs(rows[0].SpotPrice - rows[0].StrikePrice)
	for _, q := range rows[1:] {
		diff := math.Abs(q.SpotPrice - q.StrikePrice)
		if diff < bestDiff {
			bestDiff = diff
			best = q.StrikePrice
		}
	}
	return best, nil
}

// ResolveForward scans forward from start for the first quote matching key,
// bounded by the probe budget.
func (t *Table) ResolveForward(start time.Time, cfg utils.ProbeConfig, key Key) (models.Quote, time.Time, error) {
	q, ts, err := utils.ProbeForward(start, cfg, func(probe time.Time) (models.Quote, bool) {
		return t.QuoteAt(probe, key)
	})
	if err != nil {
		return models.Quote{}, ts, errs.NewQuoteError(key.StrikePrice, string(key.OptionType), start, cfg.MaxAttempts, errs.ErrMissingQuote)
	}
	return q, ts, nil
}

// Filter returns a new table restricted to the given instruments.
func (t *Table) Filter(keys []Key) *Table {
	want := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}

	out := &Table{bySecond: make(map[int64][]models.Quote)}
	for sec, rows := range t.bySecond {
		for _, q := range rows {
			if _, ok := want[Key{q.StrikePrice, q.OptionType}]; ok {
				out.bySecond[sec] = append(out.bySecond[sec], q)
				if out.first.IsZero() || q.Timestamp.Before(out.first) {
					out.first = q.Timestamp
				}
				if q.Timestamp.After(out.last) {
					out.last = q.Timestamp
				}
			}
		}
	}
	return out
}

// Truncate returns a new table containing only rows at or after from.
func (t *Table) Truncate(from time.Time) *Table {
	out := &Table{bySecond: make(map[int64][]models.Quote)}
	cut := from.Unix()
	for sec, rows := range t.bySecond {
		if sec < cut {
			continue
		}
		out.bySecond[sec] = rows
		ts := rows[0].Timestamp
		if out.first.IsZero() || ts.Before(out.first) {
			out.first = ts
		}
		if ts.After(out.last) {
			out.last = ts
		}
	}
	return out
}

// Timestamps returns the sorted quoted seconds, mostly for tests and
// diagnostics.
func (t *Table) Timestamps() []time.Time {
	secs := make([]int64, 0, len(t.bySecond))
	for sec := range t.bySecond {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })

	out := make([]time.Time, len(secs))
	for i, sec := range secs {
		out[i] = t.bySecond[sec][0].Timestamp
	}
	return out
}
