package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rl1809/cash-dispenser/internal/app"
)

// WithdrawOptions holds flags for the withdraw command.
type WithdrawOptions struct {
	ShowInventory bool
}

// NewWithdrawCommand runs one or more withdrawals, in order, against a fresh copy of the
// configured inventory.
func NewWithdrawCommand(root *RootOptions) *cobra.Command {
	opts := &WithdrawOptions{}

	cmd := &cobra.Command{
		Use:   "withdraw <amount> [amount...]",
		Short: "Withdraw amounts from the configured inventory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts := make([]int, len(args))
			for i, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("invalid amount %q: must be an integer", a)
				}
				if n <= 0 {
					return fmt.Errorf("invalid amount %q: must be positive", a)
				}
				amounts[i] = n
			}

			engine, err := app.NewEngine(root.Config, root.Logger)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			for _, amount := range amounts {
				out.printf("Withdrawing $%d\n", amount)
				dispensed, err := engine.Withdraw(amount)
				if err != nil {
					out.withdrawError(err)
					continue
				}
				out.dispensed(dispensed)
			}

			if opts.ShowInventory {
				out.inventory(engine.Inventory())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.ShowInventory, "show-inventory", true, "print the inventory left afterwards")

	return cmd
}
