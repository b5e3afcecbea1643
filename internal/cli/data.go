package cli

import (
	"github.com/spf13/cobra"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect stored market data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "days",
		Short: "List stored session dates for the configured ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			days, err := app.Quotes.Days(app.Config.Backtest.Ticker)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				dates := make([]string, 0, len(days))
				for _, d := range days {
					dates = append(dates, d.Format("2006-01-02"))
				}
				return output.JSON(map[string]interface{}{
					"ticker": app.Config.Backtest.Ticker,
					"days":   dates,
				})
			}

			if len(days) == 0 {
				output.Warning("No data stored for %s", app.Config.Backtest.Ticker)
				return nil
			}
			for _, d := range days {
				output.Println(d.Format("2006-01-02"))
			}
			output.Printf("\n%d sessions\n", len(days))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show data directory locations",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"data_dir": app.Config.Data.Dir,
					"ledger":   app.Config.Data.DB,
				})
				return
			}
			output.Printf("data:   %s\n", app.Config.Data.Dir)
			output.Printf("ledger: %s\n", app.Config.Data.DB)
		},
	})

	return cmd
}
