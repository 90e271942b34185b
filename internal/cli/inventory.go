package cli

import (
	"github.com/spf13/cobra"

	"github.com/rl1809/cash-dispenser/internal/app"
)

func NewInventoryCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Print the configured inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.NewEngine(root.Config, root.Logger)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			out.inventory(engine.Inventory())
			out.printf("Feasibility gate: %s\n", engine.Gate())
			return nil
		},
	}
}
