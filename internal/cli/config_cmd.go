package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/framebatch/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// It writes the default configuration to ~/.framebatch/config.yaml, or to
// $FRAMEBATCH_HOME/config.yaml when that variable is set, and creates the log
// and history directories the effective configuration points at.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values, including the five
simulated engine subsystems as the workload.`,
		Example: `  # Create configuration
  framebatch config init

  # Create configuration, overwriting existing
  framebatch config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			if !force {
				_, statErr := os.Stat(path)
				if statErr == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(statErr) {
					return fmt.Errorf("cannot access config path %s: %w", path, statErr)
				}
			}

			if err = config.EnsureSubDirs(); err != nil {
				return err
			}
			if err = config.New().Save(path); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			cmd.Printf("Configuration initialized successfully\n")
			cmd.Printf("Configuration file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: ~/.framebatch/config.yaml, merged with
the --config overlay and FRAMEBATCH_* environment overrides.

This includes:
- Schema version compatibility
- Budget, frame rate, and adaptive budget bounds
- Monitor thresholds and history retention
- Every workload producer
- Logging level and format`,
		Example: `  # Validate current configuration
  framebatch config validate

  # Validate with an overlay and show a summary
  framebatch config validate --config ci.yaml --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			cmd.Printf("Configuration is valid\n")
			if verbose {
				source := cfg.Path()
				if source == "" {
					source = "(defaults)"
				}
				cmd.Printf("\nSource: %s\n", source)
				cmd.Printf("Budget: %.3fms\n", cfg.Batch.BudgetMs)
				cmd.Printf("Frame rate: %g fps\n", cfg.Frame.FPS)
				cmd.Printf("Adaptive budget: %t\n", cfg.Batch.Adaptive.Enabled)
				cmd.Printf("Producers: %d\n", len(cfg.Workload.Producers))
				cmd.Printf("History: %t\n", cfg.History.Enabled)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show a summary of the effective configuration")

	return cmd
}

// NewConfigShowCmd creates the config show command, which prints the
// effective configuration.
func NewConfigShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Example: `  # Show as YAML
  framebatch config show

  # Show as JSON
  framebatch config show --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2) //nolint:mnd // YAML indentation
				if err := enc.Encode(cfg); err != nil {
					return fmt.Errorf("encoding config: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("unsupported format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")

	return cmd
}
