package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/history"
	"github.com/rshade/framebatch/internal/tui"
)

// Output formats accepted by --output.
const (
	outputTable  = "table"
	outputJSON   = "json"
	outputNDJSON = "ndjson"
)

// defaultRunFrames is ten seconds of frames at the default frame rate.
const defaultRunFrames = 600

// runParams holds the flags of the run command.
type runParams struct {
	frames        int
	budgetMs      float64
	budgetSet     bool
	output        string
	failOnOverrun bool
	exitCode      int
	save          bool
}

// ndjsonRecord is one line of --output ndjson.
type ndjsonRecord struct {
	Type   string             `json:"type"`
	Frame  *batch.FrameStats  `json:"frame,omitempty"`
	Report *history.RunReport `json:"report,omitempty"`
}

// NewRunCmd creates the run command, which simulates a fixed number of frames
// on a deterministic clock.
func NewRunCmd() *cobra.Command {
	var params runParams

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate frames against the batch scheduler",
		Long: `Runs the configured workload through the batch scheduler for a fixed number
of frames on a simulated clock. Job durations are charged to the simulated clock,
so results are reproducible for a given workload seed.

With --fail-on-overrun the command exits with --exit-code when any frame took
longer than its budget.`,
		Example: `  # Simulate ten seconds at 60 fps
  framebatch run --frames 600

  # Emit every frame as JSON lines
  framebatch run --frames 120 --output ndjson

  # Gate a CI job on a 1ms budget
  framebatch run --budget-ms 1 --fail-on-overrun --exit-code 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.budgetSet = cmd.Flags().Changed("budget-ms")
			return executeRun(cmd, params)
		},
	}

	cmd.Flags().IntVar(&params.frames, "frames", defaultRunFrames, "number of frames to simulate")
	cmd.Flags().Float64Var(&params.budgetMs, "budget-ms", 0,
		"per-frame budget in milliseconds (overrides batch.budget_ms)")
	cmd.Flags().StringVar(&params.output, "output", outputTable, "output format: table, json, or ndjson")
	cmd.Flags().BoolVar(&params.failOnOverrun, "fail-on-overrun", false,
		"exit with --exit-code when any frame exceeds its budget")
	cmd.Flags().IntVar(&params.exitCode, "exit-code", DefaultOverrunExitCode,
		"exit code to use when --fail-on-overrun triggers (0-255)")
	cmd.Flags().BoolVar(&params.save, "save", true, "save the run report to history")

	return cmd
}

func executeRun(cmd *cobra.Command, params runParams) error {
	if params.frames <= 0 {
		return fmt.Errorf("--frames must be positive, got %d", params.frames)
	}
	switch params.output {
	case outputTable, outputJSON, outputNDJSON:
	default:
		return fmt.Errorf("unsupported output format %q (want table, json, or ndjson)", params.output)
	}
	if err := validateExitCode(params.exitCode); err != nil {
		return err
	}

	cfg := config.GetGlobalConfig()
	if params.budgetSet {
		cfg.Batch.BudgetMs = params.budgetMs
	}

	clock := batch.NewManualClock(time.Now())
	rt, err := newRuntime(cfg, logger, runtimeOptions{Mode: history.ModeStep, Clock: clock})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	last, err := stepFrames(ctx, rt, clock, params.frames, func(stats batch.FrameStats) error {
		if params.output != outputNDJSON {
			return nil
		}
		return writeJSONLine(out, ndjsonRecord{Type: "frame", Frame: &stats})
	})
	if err != nil {
		return err
	}
	report := rt.finish()

	logger.Info().Ctx(ctx).
		Str("report_id", report.ID).
		Uint64("frames", report.Frames).
		Uint64("overrun_frames", report.OverrunFrames).
		Float64("mean_utilization", report.MeanUtilization).
		Msg("run finished")

	if params.save {
		saved, saveErr := saveReport(cfg, report)
		if saveErr != nil {
			return saveErr
		}
		if saved && params.output == outputTable {
			cmd.PrintErrf("Run report saved: %s\n", report.ID)
		}
	}

	if renderErr := renderRun(out, params.output, last, rt, report); renderErr != nil {
		return renderErr
	}

	if params.failOnOverrun && report.OverrunFrames > 0 {
		return &OverrunExitError{
			ExitCode: params.exitCode,
			Reason: fmt.Sprintf("%d of %d frames exceeded the %s budget",
				report.OverrunFrames, report.Frames, tui.FormatMillis(report.BudgetMs)),
		}
	}
	return nil
}

// stepFrames steps n frames on clock, holding each frame to the loop
// interval, and returns the last frame's stats. It stops early when ctx is
// done.
func stepFrames(
	ctx context.Context,
	rt *schedulerRuntime,
	clock *batch.ManualClock,
	n int,
	onFrame func(batch.FrameStats) error,
) (batch.FrameStats, error) {
	var last batch.FrameStats
	interval := rt.loop.Interval()
	for range n {
		if ctx.Err() != nil {
			break
		}
		start := clock.Now()
		last = rt.loop.Step(ctx)
		if onFrame != nil {
			if err := onFrame(last); err != nil {
				return last, err
			}
		}
		if idle := interval - clock.Now().Sub(start); idle > 0 {
			clock.Advance(idle)
		}
	}
	return last, nil
}

func renderRun(w io.Writer, format string, last batch.FrameStats, rt *schedulerRuntime, report *history.RunReport) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputNDJSON:
		return writeJSONLine(w, ndjsonRecord{Type: "report", Report: report})
	default:
		_, err := fmt.Fprint(w, tui.RenderSummary(last, report.Totals))
		if err != nil {
			return err
		}
		if alerts := tui.RenderAlerts(rt.monitor.Snapshot()); alerts != "" {
			if _, err = fmt.Fprintf(w, "alerts: %s\n", alerts); err != nil {
				return err
			}
		}
		_, err = fmt.Fprint(w, "\n"+tui.RenderReport(report))
		return err
	}
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
