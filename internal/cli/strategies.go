package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-backtester/internal/legs"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List built-in spread strategy templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			names := legs.TemplateNames()

			if output.IsJSON() {
				all := make(map[string]interface{}, len(names))
				for _, name := range names {
					specs, _ := legs.Template(name)
					all[name] = specs
				}
				return output.JSON(all)
			}

			table := NewTable(output, "Template", "Legs")
			for _, name := range names {
				specs, err := legs.Template(name)
				if err != nil {
					continue
				}
				var desc string
				for i, s := range specs {
					if i > 0 {
						desc += ", "
					}
					desc += fmt.Sprintf("%s %dx %s ATM%+.0f", s.Action, s.Lots, s.OptionType, s.StrikeOffset)
				}
				table.AddRow(name, desc)
			}
			table.Render()
			return nil
		},
	}
}
