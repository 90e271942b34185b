package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/cash-dispenser/internal/config"
	"github.com/rl1809/cash-dispenser/internal/log"
)

// RootOptions holds global flags and the state they resolve to.
type RootOptions struct {
	EnvFile       string
	Notes         string
	InventoryFile string
	Gate          string
	LogLevel      string

	Config *config.Config
	Logger *log.Logger
}

// NewRootCommand creates the root command for the dispenser CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "dispenser",
		Short:         "Cash dispenser",
		Long:          "Pays out withdrawals from a fixed stock of notes, exactly or not at all.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVar(&opts.Notes, "notes", "", "inventory as denomination:count pairs, e.g. 20:10,50:20")
	cmd.PersistentFlags().StringVar(&opts.InventoryFile, "inventory", "", "YAML inventory file")
	cmd.PersistentFlags().StringVar(&opts.Gate, "gate", "", "feasibility gate (auto|legacy|exact)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWithdrawCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))

	return cmd
}

// resolve loads the configuration and applies flag overrides on top of it.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return err
	}

	if o.Notes != "" {
		notes, err := config.ParseNotes(o.Notes)
		if err != nil {
			return fmt.Errorf("--notes: %w", err)
		}
		cfg.Notes = notes
	}
	if o.InventoryFile != "" {
		if err := cfg.LoadInventoryFile(o.InventoryFile); err != nil {
			return err
		}
	}
	if o.Gate != "" {
		cfg.FeasibilityGate = o.Gate
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logCfg.Output = cmd.ErrOrStderr()

	o.Config = cfg
	o.Logger = log.New(logCfg)
	return nil
}

// Execute runs the CLI and reports a failure on stderr.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}
