// Package signals turns raw signal records and futures candles into the
// classified entry stream the backtest engine walks.
package signals

import (
	"math"
	"sort"
	"time"

	"options-backtester/internal/indicators"
	"options-backtester/internal/models"
)

// Record is a raw signal row as loaded from storage. Boolean columns are
// pointers so that missing values survive the round trip and can be
// normalized here.
type Record struct {
	Timestamp  time.Time
	LongEntry  *bool
	ShortEntry *bool
	Entry      *bool
	LongExit   *bool
	ShortExit  *bool
	Exit       *bool
}

// Row is a cleaned signal row. Missing booleans are false.
type Row struct {
	Timestamp  time.Time
	LongEntry  bool
	ShortEntry bool
	Entry      bool
	LongExit   bool
	ShortExit  bool
	Exit       bool
}

// Frame holds signal rows sorted by timestamp.
type Frame struct {
	Rows []Row
}

func deref(b *bool) bool {
	return b != nil && *b
}

// FromRecords cleans raw records into a Frame. Null booleans become false
// and rows are sorted by timestamp.
func FromRecords(recs []Record) Frame {
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row{
			Timestamp:  r.Timestamp,
			LongEntry:  deref(r.LongEntry),
			ShortEntry: deref(r.ShortEntry),
			Entry:      deref(r.Entry),
			LongExit:   deref(r.LongExit),
			ShortExit:  deref(r.ShortExit),
			Exit:       deref(r.Exit),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return Frame{Rows: rows}
}

// Category labels a classified row for directional strategies.
type Category string

const (
	CategoryLong    Category = "long"
	CategoryShort   Category = "short"
	CategoryNothing Category = "nothing"
)

// Classified is a signal row reduced to what the engine consumes: whether
// an entry or exit fires at this timestamp, and for directional strategies
// which side.
type Classified struct {
	Timestamp time.Time
	Entry     bool
	Exit      bool
	Side      Category
}

// Classify reduces a frame for the given strategy kind. Directional rows
// resolve a side with long taking precedence over short when both fire.
// Spread rows treat any entry flag as an entry and any exit flag as an
// exit; side is not meaningful and stays CategoryNothing.
func Classify(f Frame, kind models.StrategyKind) []Classified {
	out := make([]Classified, 0, len(f.Rows))
	for _, r := range f.Rows {
		c := Classified{Timestamp: r.Timestamp, Side: CategoryNothing}
		switch kind {
		case models.Directional:
			switch {
			case r.LongEntry:
				c.Side = CategoryLong
				c.Entry = true
			case r.ShortEntry:
				c.Side = CategoryShort
				c.Entry = true
			}
			c.Exit = r.LongExit || r.ShortExit || r.Exit
		default:
			c.Entry = r.LongEntry || r.ShortEntry || r.Entry
			c.Exit = r.LongExit || r.ShortExit || r.Exit
		}
		out = append(out, c)
	}
	return out
}

// Entries filters a classified stream down to rows where an entry fires.
func Entries(rows []Classified) []Classified {
	out := make([]Classified, 0, len(rows))
	for _, r := range rows {
		if r.Entry {
			out = append(out, r)
		}
	}
	return out
}

// FromSMA builds a frame from candles using a simple moving average
// crossover: close above the average raises the entry flag, close below
// raises the exit flag. Rows before the window fills carry no signal.
func FromSMA(candles []models.Candle, window int) Frame {
	closes := indicators.Closes(candles)
	sma := indicators.SMA(closes, window)

	rows := make([]Row, 0, len(candles))
	for i, c := range candles {
		row := Row{Timestamp: c.Timestamp}
		if !math.IsNaN(sma[i]) {
			row.Entry = c.Close > sma[i]
			row.Exit = c.Close < sma[i]
		}
		rows = append(rows, row)
	}
	return Frame{Rows: rows}
}

// FromRSI builds a frame from candles using RSI bands: long entry below
// the lower band, short entry above the upper band.
func FromRSI(candles []models.Candle, window int, lower, upper float64) Frame {
	closes := indicators.Closes(candles)
	rsi := indicators.RSI(closes, window)

	rows := make([]Row, 0, len(candles))
	for i, c := range candles {
		row := Row{Timestamp: c.Timestamp}
		if !math.IsNaN(rsi[i]) {
			row.LongEntry = rsi[i] < lower
			row.ShortEntry = rsi[i] > upper
			row.LongExit = rsi[i] > upper
			row.ShortExit = rsi[i] < lower
		}
		rows = append(rows, row)
	}
	return Frame{Rows: rows}
}

// FromTags builds a frame from named indicator series keyed by timestamp.
// A long entry fires when every tag is below the lower limit; a short
// entry fires when every tag is above the upper limit. Timestamps must be
// the same length as every tag series.
func FromTags(timestamps []time.Time, tags map[string][]float64, lower, upper float64) Frame {
	rows := make([]Row, 0, len(timestamps))
	for i, ts := range timestamps {
		allBelow := len(tags) > 0
		allAbove := len(tags) > 0
		for _, series := range tags {
			if i >= len(series) || math.IsNaN(series[i]) {
				allBelow = false
				allAbove = false
				break
			}
			if series[i] >= lower {
				allBelow = false
			}
			if series[i] <= upper {
				allAbove = false
			}
		}
		rows = append(rows, Row{
			Timestamp:  ts,
			LongEntry:  allBelow,
			ShortEntry: allAbove,
		})
	}
	return Frame{Rows: rows}
}
