package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/store"
	"options-backtester/pkg/utils"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		runName   string
		startDate string
		endDate   string
		reason    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show ledger trades from previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Ledger == nil {
				return errs.ErrDatabaseError
			}

			filter := store.TradeFilter{
				Run:    runName,
				Reason: models.ExitReason(reason),
				Limit:  limit,
			}
			if startDate != "" {
				t, err := time.ParseInLocation("2006-01-02", startDate, utils.IndiaLocation)
				if err != nil {
					return fmt.Errorf("start: %w", err)
				}
				filter.StartDate = t
			}
			if endDate != "" {
				t, err := time.ParseInLocation("2006-01-02", endDate, utils.IndiaLocation)
				if err != nil {
					return fmt.Errorf("end: %w", err)
				}
				filter.EndDate = t
			}

			trades, err := app.Ledger.GetTrades(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Warning("No trades found")
				return nil
			}

			table := NewTable(output, "Day", "Entry", "Exit", "Type", "Reason", "Premium In", "Premium Out", "Net P&L")
			var total float64
			for _, t := range trades {
				net := t.NetPnL()
				total += net
				table.AddRow(
					FormatDate(t.EntryTimestamp),
					FormatTime(t.EntryTimestamp),
					FormatTime(t.ExitTimestamp),
					string(t.StrategyType),
					string(t.ExitReason),
					FormatPremium(t.EntryPremium),
					FormatPremium(t.ExitPremium),
					output.FormatPnL(net),
				)
			}
			table.Render()
			output.Printf("\n%d trades, net %s\n", len(trades), output.FormatPnL(total))
			return nil
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "run name to filter by")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reason, "reason", "", "exit reason filter (SL_hit, TP_hit, time_breach)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum trades to show")

	return cmd
}
