package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/framebatch/internal/cli/pagination"
	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/engine/history"
	"github.com/rshade/framebatch/internal/tui"
)

// hoursPerDay converts retention days to a duration.
const hoursPerDay = 24

// historyListOutput is the JSON shape of history list.
type historyListOutput struct {
	Reports    []history.RunReport `json:"reports"`
	Pagination pagination.Meta     `json:"pagination"`
}

// NewHistoryListCmd creates the history list command.
func NewHistoryListCmd() *cobra.Command {
	var (
		params pagination.Params
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved run reports",
		Example: `  # Ten most recent runs
  framebatch history list --limit 10

  # Worst overrun rates first, as JSON
  framebatch history list --sort overruns:desc --output json

  # Second page of 5
  framebatch history list --page 2 --page-size 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := params.Validate(); err != nil {
				return err
			}
			field, order, err := pagination.ParseSort(params.Sort)
			if err != nil {
				return err
			}
			sorter := pagination.NewReportSorter()
			if !sorter.IsValidField(field) {
				return fmt.Errorf("%w: %q (valid: %v)", pagination.ErrInvalidSortField, field, sorter.ValidFields())
			}

			store, err := openHistoryStore(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			all, err := store.List(0)
			if reportHistoryDisabled(cmd, err) {
				return nil
			}
			if err != nil {
				return err
			}
			sorted, err := sorter.Sort(all, field, order)
			if err != nil {
				return err
			}
			page := pagination.Apply(params, sorted)

			switch output {
			case outputJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(historyListOutput{Reports: page, Pagination: pagination.NewMeta(params, len(sorted))})
			case outputTable:
				if len(page) == 0 {
					cmd.Printf("No run reports found\n")
					return nil
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderReportTable(page))
				return err
			default:
				return fmt.Errorf("unsupported output format %q (want table or json)", output)
			}
		},
	}

	params.AddFlags(cmd)
	cmd.Flags().StringVar(&output, "output", outputTable, "output format: table or json")

	return cmd
}

// NewHistoryShowCmd creates the history show command.
func NewHistoryShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			report, err := store.Get(args[0])
			if reportHistoryDisabled(cmd, err) {
				return nil
			}
			if err != nil {
				return err
			}

			switch output {
			case outputJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			case outputTable:
				_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(report))
				return err
			default:
				return fmt.Errorf("unsupported output format %q (want table or json)", output)
			}
		},
	}

	cmd.Flags().StringVar(&output, "output", outputTable, "output format: table or json")

	return cmd
}

// NewHistoryPruneCmd creates the history prune command.
func NewHistoryPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old run reports",
		Long: `Deletes run reports that finished longer ago than --older-than. Without the
flag, history.retention_days from the configuration is used.`,
		Example: `  # Apply the configured retention
  framebatch history prune

  # Keep only the last day
  framebatch history prune --older-than 24h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			age := olderThan
			if !cmd.Flags().Changed("older-than") {
				age = time.Duration(cfg.History.RetentionDays) * hoursPerDay * time.Hour
			}

			store, err := openHistoryStore(cfg)
			if err != nil {
				return err
			}
			removed, err := store.Prune(age, time.Now())
			if reportHistoryDisabled(cmd, err) {
				return nil
			}
			if err != nil {
				return err
			}

			logger.Info().Ctx(cmd.Context()).Int("removed", removed).Dur("older_than", age).Msg("history pruned")
			cmd.Printf("Removed %d run report(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "remove reports that finished longer ago than this")

	return cmd
}

// reportHistoryDisabled prints a notice and reports true when err means
// history is turned off.
func reportHistoryDisabled(cmd *cobra.Command, err error) bool {
	if !errors.Is(err, history.ErrHistoryDisabled) {
		return false
	}
	cmd.Printf("Run history is disabled\n")
	return true
}
