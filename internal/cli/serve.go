package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/frame"
	"github.com/rshade/framebatch/internal/engine/history"
	"github.com/rshade/framebatch/internal/logging"
	"github.com/rshade/framebatch/internal/telemetry"
)

// tracingShutdownTimeout bounds the final span flush on exit.
const tracingShutdownTimeout = 5 * time.Second

// serveParams holds the flags of the serve command.
type serveParams struct {
	grpcAddr string
	duration time.Duration
	save     bool
}

// NewServeCmd creates the serve command, which runs the scheduler headless
// behind a gRPC health endpoint.
func NewServeCmd() *cobra.Command {
	var params serveParams

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler headless with a gRPC health endpoint",
		Long: `Runs the frame loop in real time and serves the standard gRPC health
service. The framebatch.Scheduler service reports NOT_SERVING while frames keep
overrunning their budget or a category is starving.

Dispatch spans are exported over OTLP/HTTP when telemetry.otlp_endpoint or
FRAMEBATCH_OTEL_ENDPOINT is set.`,
		Example: `  # Serve health on the configured address
  framebatch serve

  # Probe it with grpc-health-probe
  grpc-health-probe -addr 127.0.0.1:50551 -service framebatch.Scheduler`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeServe(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.grpcAddr, "grpc-addr", "", "health server address (overrides telemetry.grpc_addr)")
	cmd.Flags().DurationVar(&params.duration, "duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().BoolVar(&params.save, "save", true, "save the run report to history")

	return cmd
}

func executeServe(cmd *cobra.Command, params serveParams) error {
	if params.duration < 0 {
		return fmt.Errorf("--duration cannot be negative, got %s", params.duration)
	}
	cfg := config.GetGlobalConfig()
	addr := cfg.Telemetry.GRPCAddr
	if params.grpcAddr != "" {
		addr = params.grpcAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if params.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.duration)
		defer cancel()
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownTimeout)
		defer cancel()
		if shutdownErr := shutdownTracing(flushCtx); shutdownErr != nil {
			logger.Warn().Err(shutdownErr).Msg("trace exporter shutdown failed")
		}
	}()

	// The loop notifies the monitor before the reporter, so the reporter reads
	// the verdict for the frame it is observing.
	monitor := batch.NewMonitor(cfg.Monitor, logging.ComponentLogger(logger, "monitor"))
	reporter := telemetry.NewHealthReporter(monitor, logging.ComponentLogger(logger, "health"))
	rt, err := newRuntime(cfg, logger, runtimeOptions{
		Mode:      history.ModeRealtime,
		Monitor:   monitor,
		Observers: []frame.Observer{reporter},
	})
	if err != nil {
		return err
	}

	srv, err := telemetry.Listen(addr, reporter, logging.ComponentLogger(logger, "grpc"))
	if err != nil {
		return err
	}
	cmd.PrintErrf("Health service listening on %s\n", srv.Addr())

	g, gctx := errgroup.WithContext(ctx)
	if err = rt.workload.Start(gctx, g, rt.loop.Inbox(), rt.loop.Interval()); err != nil {
		return err
	}
	g.Go(func() error { return rt.loop.Run(gctx) })
	g.Go(func() error { return srv.Serve(gctx) })

	if err = g.Wait(); err != nil {
		return err
	}

	report := rt.finish()
	logger.Info().Ctx(cmd.Context()).
		Str("report_id", report.ID).
		Uint64("frames", report.Frames).
		Uint64("overrun_frames", report.OverrunFrames).
		Msg("serve finished")

	if params.save {
		if _, err = saveReport(cfg, report); err != nil {
			return err
		}
	}
	return nil
}
