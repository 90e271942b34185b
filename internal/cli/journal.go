package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rl1809/cash-dispenser/internal/adapter/storage"
	"github.com/rl1809/cash-dispenser/internal/app"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	Limit int
}

func NewJournalCommand(root *RootOptions) *cobra.Command {
	opts := &JournalOptions{}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent withdrawals from the MySQL journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.Config.MySQLDSN == "" {
				return errors.New("MYSQL_DSN is not set")
			}

			db, err := app.OpenMySQL(cmd.Context(), root.Config.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := storage.NewMySQLAdapter(db).ListWithdrawals(cmd.Context(), opts.Limit)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			for _, w := range list {
				out.printf("%s  %s  $%d  %s", w.CreatedAt.Format("2006-01-02 15:04:05"), w.ID, w.Amount, w.Status)
				if w.Reason != "" {
					out.printf(" (%s)", w.Reason)
				}
				for _, n := range w.Notes {
					out.printf("  %dx$%d", n.Count, int(n.Denomination))
				}
				out.printf("\n")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of entries to show")

	return cmd
}
