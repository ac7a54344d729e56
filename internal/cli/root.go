package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the framebatch CLI.
// It loads configuration, wires up logging, and registers the run, monitor,
// serve, config, and history subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "framebatch",
		Short:         "Frame-budgeted batch job scheduler",
		Long:          "framebatch: Run categorized engine jobs within a fixed per-frame time budget",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "YAML overlay merged on top of ~/.framebatch/config.yaml")
	cmd.AddCommand(
		NewRunCmd(), NewMonitorCmd(), NewServeCmd(),
		newConfigCmd(), newHistoryCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Simulate 600 frames with the default 2.5ms budget
  framebatch run --frames 600

  # Fail a CI job when any frame overruns a 1ms budget
  framebatch run --frames 300 --budget-ms 1 --fail-on-overrun --exit-code 3

  # Watch the scheduler in real time
  framebatch monitor

  # Serve the gRPC health endpoint while the scheduler runs
  framebatch serve --grpc-addr 127.0.0.1:50551

  # Initialize configuration
  framebatch config init

  # List recent runs
  framebatch history list --limit 10`

// loadConfig reads the config file, merges the --config overlay, re-applies
// environment overrides, and installs the result as the global config.
func loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	overlay, _ := cmd.Flags().GetString("config")
	if overlay != "" {
		if mergeErr := config.ShallowMergeYAML(cfg, overlay); mergeErr != nil {
			return mergeErr
		}
		// Environment variables win over the overlay file.
		if envErr := cfg.ApplyEnv(); envErr != nil {
			return envErr
		}
	}

	config.SetGlobalConfig(cfg)
	return nil
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd(), NewConfigShowCmd())
	return cmd
}

// newHistoryCmd creates the history command group for saved run reports.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Saved run report commands"}
	cmd.AddCommand(NewHistoryListCmd(), NewHistoryShowCmd(), NewHistoryPruneCmd())
	return cmd
}
