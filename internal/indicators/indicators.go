// Package indicators provides the OHLC aggregation and indicator series the
// signal layer computes over futures data. The options pricing/Greeks model
// is external; nothing here touches option quotes.
package indicators

import (
	"math"
	"sort"
	"time"

	"options-backtester/internal/models"
)

// BuildCandles aggregates futures ticks into OHLC candles of the given
// interval. Ticks need not be sorted; candles come out in time order and
// empty intervals produce no candle.
func BuildCandles(ticks []models.FuturesTick, interval time.Duration) []models.Candle {
	if len(ticks) == 0 {
		return nil
	}

	sorted := make([]models.FuturesTick, len(ticks))
	copy(sorted, ticks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var candles []models.Candle
	var cur *models.Candle
	var bucket time.Time

	for _, tick := range sorted {
		b := tick.Timestamp.Truncate(interval)
		if cur == nil || !b.Equal(bucket) {
			if cur != nil {
				candles = append(candles, *cur)
			}
			bucket = b
			cur = &models.Candle{
				Timestamp: b,
				Open:      tick.Close,
				High:      tick.Close,
				Low:       tick.Close,
				Close:     tick.Close,
			}
		}
		if tick.Close > cur.High {
			cur.High = tick.Close
		}
		if tick.Close < cur.Low {
			cur.Low = tick.Close
		}
		cur.Close = tick.Close
		cur.Volume += tick.Volume
		cur.OI += tick.OI
	}
	if cur != nil {
		candles = append(candles, *cur)
	}
	return candles
}

// Closes extracts the close series from candles.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SMA computes a simple moving average. Positions before the window fills
// are NaN.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RSI computes the relative strength index over rolling average gains and
// losses. The first value is NaN; a zero average loss saturates at 100.
func RSI(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	out[0] = math.NaN()

	for i := 1; i < len(closes); i++ {
		lo := i - window + 1
		if lo < 1 {
			lo = 1
		}

		var gains, losses float64
		for j := lo; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}

		n := float64(i - lo + 1)
		avgGain := gains / n
		avgLoss := losses / n

		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - (100 / (1 + rs))
	}
	return out
}
