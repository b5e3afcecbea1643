package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"options-backtester/internal/report"
	"options-backtester/internal/runner"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		startDate string
		endDate   string
		ticker    string
		template  string
		csvPath   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the backtest over the configured date range",
		Long: `Run replays the configured strategy over every stored session in the
date range. Days execute in parallel; results are written to the ledger
and summarized here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			cfg := *app.Config
			if startDate != "" {
				cfg.Backtest.StartDate = startDate
			}
			if endDate != "" {
				cfg.Backtest.EndDate = endDate
			}
			if ticker != "" {
				cfg.Backtest.Ticker = ticker
			}
			if template != "" {
				cfg.Strategy.Template = template
				cfg.Strategy.Spread = nil
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			r, err := runner.New(&cfg, app.Quotes, app.Ledger, app.Logger)
			if err != nil {
				return err
			}

			days, err := r.Days()
			if err != nil {
				return err
			}
			if len(days) == 0 {
				output.Warning("No sessions found for %s in range", cfg.Backtest.Ticker)
				return nil
			}

			started := time.Now()
			results, err := r.Run(cmd.Context(), days)
			if err != nil {
				return err
			}

			rows, summary := report.Build(results)

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", csvPath, err)
				}
				defer f.Close()
				if err := report.WriteCSV(f, rows); err != nil {
					return fmt.Errorf("writing %s: %w", csvPath, err)
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"summary": summary,
					"trades":  rows,
				})
			}

			renderSummary(output, summary, time.Since(started))
			if csvPath != "" {
				output.Info("Trade ledger written to %s", csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&ticker, "ticker", "", "underlying ticker (default from config)")
	cmd.Flags().StringVar(&template, "template", "", "spread template to run (see 'strategies')")
	cmd.Flags().StringVar(&csvPath, "csv", "", "export the trade ledger to a CSV file")

	return cmd
}

func renderSummary(output *Output, s report.Summary, elapsed time.Duration) {
	output.Info("Backtest Summary")

	table := NewTable(output, "Metric", "Value")
	table.AddRow("Sessions", fmt.Sprintf("%d", s.Days))
	table.AddRow("Trades", fmt.Sprintf("%d", s.Trades))
	table.AddRow("Uncounted", fmt.Sprintf("%d", s.Uncounted))
	table.AddRow("Wins", fmt.Sprintf("%d", s.Wins))
	table.AddRow("Accuracy", FormatPercent(s.Accuracy*100))
	table.AddRow("Net P&L", output.FormatPnL(s.NetPnL))
	table.AddRow("Max Drawdown", FormatIndianCurrency(s.MaxDrawdown))
	table.AddRow("Elapsed", FormatDuration(elapsed))
	table.Render()
}
