package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/frame"
	"github.com/rshade/framebatch/internal/engine/history"
	"github.com/rshade/framebatch/internal/tui"
)

// feedBuffer is how many frames the display may lag before frames are dropped.
const feedBuffer = 8

// monitorParams holds the flags of the monitor command.
type monitorParams struct {
	duration time.Duration
	every    int
	plain    bool
	save     bool
}

// NewMonitorCmd creates the monitor command, which runs the scheduler in real
// time and shows the performance overlay.
func NewMonitorCmd() *cobra.Command {
	var params monitorParams

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the scheduler in real time with a live overlay",
		Long: `Runs the frame loop at the configured frame rate with producers submitting
work concurrently, and shows per-category queue depths, budget utilization and
alerts. When stdout is not a terminal (or with --plain) a text summary is
printed every --every frames instead.

Keys: q quits, p pauses the display.`,
		Example: `  # Watch the scheduler until q is pressed
  framebatch monitor

  # Print a summary every second for 30 seconds
  framebatch monitor --plain --duration 30s --every 60`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeMonitor(cmd, params)
		},
	}

	cmd.Flags().DurationVar(&params.duration, "duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().IntVar(&params.every, "every", int(config.DefaultFPS), "frames between plain-text summaries")
	cmd.Flags().BoolVar(&params.plain, "plain", false, "print text summaries even on a terminal")
	cmd.Flags().BoolVar(&params.save, "save", true, "save the run report to history")

	return cmd
}

func executeMonitor(cmd *cobra.Command, params monitorParams) error {
	if params.every <= 0 {
		return fmt.Errorf("--every must be positive, got %d", params.every)
	}
	if params.duration < 0 {
		return fmt.Errorf("--duration cannot be negative, got %s", params.duration)
	}

	interactive := !params.plain && isTerminal(os.Stdout)
	base := logger
	if interactive {
		// Keep stderr logging from tearing the overlay.
		base = logger.Level(max(logger.GetLevel(), zerolog.ErrorLevel))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if params.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := make(chan tui.FrameMsg, feedBuffer)
	var rt *schedulerRuntime
	publish := frame.ObserverFunc(func(stats batch.FrameStats) {
		msg := tui.FrameMsg{Stats: stats, Totals: rt.ctrl.Totals(), Snapshot: rt.monitor.Snapshot()}
		select {
		case feed <- msg:
		default:
		}
	})

	cfg := config.GetGlobalConfig()
	rt, err := newRuntime(cfg, base, runtimeOptions{
		Mode:      history.ModeRealtime,
		Observers: []frame.Observer{publish},
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if err = rt.workload.Start(gctx, g, rt.loop.Inbox(), rt.loop.Interval()); err != nil {
		return err
	}
	g.Go(func() error {
		defer close(feed)
		return rt.loop.Run(gctx)
	})

	var displayErr error
	if interactive {
		p := tea.NewProgram(tui.NewMonitorModel(feed), tea.WithOutput(cmd.OutOrStdout()), tea.WithAltScreen())
		_, displayErr = p.Run()
	} else {
		displayErr = printSummaries(cmd.OutOrStdout(), feed, params.every)
	}
	cancel()

	if err = g.Wait(); err != nil {
		return err
	}
	if displayErr != nil {
		return fmt.Errorf("monitor display: %w", displayErr)
	}

	report := rt.finish()
	logger.Info().Ctx(cmd.Context()).
		Str("report_id", report.ID).
		Uint64("frames", report.Frames).
		Uint64("overrun_frames", report.OverrunFrames).
		Msg("monitor finished")

	if params.save {
		if _, err = saveReport(cfg, report); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), "\n"+tui.RenderReport(report))
	return err
}

// printSummaries writes a text summary every n frames until feed closes.
func printSummaries(w io.Writer, feed <-chan tui.FrameMsg, n int) error {
	for msg := range feed {
		if msg.Stats.Frame%uint64(n) != 0 { //nolint:gosec // n is validated positive
			continue
		}
		if _, err := fmt.Fprint(w, tui.RenderSummary(msg.Stats, msg.Totals)); err != nil {
			return err
		}
		if alerts := tui.RenderAlerts(msg.Snapshot); alerts != "" {
			if _, err := fmt.Fprintf(w, "alerts: %s\n", alerts); err != nil {
				return err
			}
		}
	}
	return nil
}
