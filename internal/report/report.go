// Package report flattens backtest results into a trade ledger and the
// summary statistics shown after a run.
package report

import (
	"io"
	"math"
	"sort"

	"github.com/gocarina/gocsv"

	"options-backtester/internal/backtest"
	"options-backtester/internal/models"
)

// Row is one ledger line per closed trade. Cumulative columns are computed
// over the whole run in entry order.
type Row struct {
	Day             string  `csv:"day"`
	EntryTime       string  `csv:"entry_time"`
	ExitTime        string  `csv:"exit_time"`
	StrategyType    string  `csv:"strategy_type"`
	ExitReason      string  `csv:"exit_reason"`
	EntryPremium    float64 `csv:"entry_premium"`
	ExitPremium     float64 `csv:"exit_premium"`
	MarginUsed      float64 `csv:"margin_used"`
	PnL             float64 `csv:"pnl"`
	TransactionCost float64 `csv:"transaction_cost"`
	NetPnL          float64 `csv:"net_pnl"`
	PctReturn       float64 `csv:"pct_return"`
	CumulativePnL   float64 `csv:"cumulative_pnl"`
}

// Summary aggregates a whole run.
type Summary struct {
	Days        int
	Trades      int
	Uncounted   int
	Wins        int
	Accuracy    float64 // winning fraction of counted trades
	NetPnL      float64
	MaxDrawdown float64 // largest peak-to-trough fall of cumulative net pnl
}

// Build flattens day results into ledger rows in entry order and computes
// the run summary. Percentage return is net profit over the capital the
// trade tied up.
func Build(results []backtest.Result) ([]Row, Summary) {
	sort.Slice(results, func(i, j int) bool { return results[i].Day.Before(results[j].Day) })

	var rows []Row
	summary := Summary{}

	var cumulative, peak float64
	for _, res := range results {
		summary.Days++
		summary.Uncounted += res.Uncounted

		for _, t := range res.Trades {
			net := t.NetPnL()
			cumulative += net
			if cumulative > peak {
				peak = cumulative
			}
			if dd := peak - cumulative; dd > summary.MaxDrawdown {
				summary.MaxDrawdown = dd
			}

			summary.Trades++
			summary.NetPnL += net
			if net > 0 {
				summary.Wins++
			}

			rows = append(rows, Row{
				Day:             res.Day.Format("2006-01-02"),
				EntryTime:       t.EntryTimestamp.Format("15:04:05"),
				ExitTime:        t.ExitTimestamp.Format("15:04:05"),
				StrategyType:    string(t.StrategyType),
				ExitReason:      string(t.ExitReason),
				EntryPremium:    t.EntryPremium,
				ExitPremium:     t.ExitPremium,
				MarginUsed:      t.MarginUsed,
				PnL:             t.PnL,
				TransactionCost: t.TransactionCost,
				NetPnL:          net,
				PctReturn:       pctReturn(net, t.MarginUsed),
				CumulativePnL:   cumulative,
			})
		}
	}

	if summary.Trades > 0 {
		summary.Accuracy = float64(summary.Wins) / float64(summary.Trades)
	}
	return rows, summary
}

// pctReturn is net profit over the absolute capital committed, as a
// percentage. Zero-margin trades report zero rather than dividing by zero.
func pctReturn(net, margin float64) float64 {
	abs := math.Abs(margin)
	if abs == 0 {
		return 0
	}
	return net / abs * 100
}

// WriteCSV writes ledger rows as CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	return gocsv.Marshal(rows, w)
}

// ReasonCounts tallies exit reasons across rows.
func ReasonCounts(rows []Row) map[models.ExitReason]int {
	counts := make(map[models.ExitReason]int)
	for _, r := range rows {
		counts[models.ExitReason(r.ExitReason)]++
	}
	return counts
}
