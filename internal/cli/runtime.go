package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/frame"
	"github.com/rshade/framebatch/internal/engine/history"
	"github.com/rshade/framebatch/internal/logging"
	"github.com/rshade/framebatch/internal/simulate"
	"github.com/rshade/framebatch/internal/telemetry"
)

// runtimeOptions selects how a scheduler runtime is assembled.
type runtimeOptions struct {
	// Mode is history.ModeStep or history.ModeRealtime. In step mode the
	// workload produces synchronously at the start of each frame; in realtime
	// mode the caller starts it against the loop inbox.
	Mode  string
	Clock batch.Clock

	// Monitor is used instead of a fresh one when set, so callers can wire
	// it into other components first.
	Monitor *batch.Monitor

	// Observers run after the monitor and the recorder, in order.
	Observers []frame.Observer
}

// schedulerRuntime is a controller, monitor, workload, and frame loop built
// from one configuration. Only the loop goroutine may touch ctrl.
type schedulerRuntime struct {
	cfg      *config.Config
	clock    batch.Clock
	ctrl     *batch.Controller
	monitor  *batch.Monitor
	workload *simulate.Workload
	recorder *history.Recorder
	loop     *frame.Loop
}

func newRuntime(cfg *config.Config, base zerolog.Logger, opts runtimeOptions) (*schedulerRuntime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = batch.SystemClock{}
	}

	ctrlOpts, err := cfg.ControllerOptions()
	if err != nil {
		return nil, err
	}
	ctrlOpts = append(ctrlOpts,
		batch.WithClock(clock),
		batch.WithLogger(logging.ComponentLogger(base, "batch")),
		batch.WithTracer(telemetry.Tracer()),
	)
	ctrl, err := batch.NewController(ctrlOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating controller: %w", err)
	}

	interval, err := frame.IntervalFromFPS(cfg.Frame.FPS)
	if err != nil {
		return nil, err
	}

	monitor := opts.Monitor
	if monitor == nil {
		monitor = batch.NewMonitor(cfg.Monitor, logging.ComponentLogger(base, "monitor"))
	}
	workload, err := simulate.NewWorkload(cfg.Workload.Producers, clock, cfg.Workload.Seed,
		logging.ComponentLogger(base, "workload"))
	if err != nil {
		return nil, fmt.Errorf("creating workload: %w", err)
	}
	recorder := history.NewRecorder(opts.Mode, ctrl.Budget(), producerNames(workload.Specs()), clock.Now())

	loopOpts := []frame.LoopOption{
		frame.WithInterval(interval),
		frame.WithLoopClock(clock),
		frame.WithLoopLogger(logging.ComponentLogger(base, "frame")),
		frame.WithObserver(monitor, recorder),
		frame.WithObserver(opts.Observers...),
	}
	switch opts.Mode {
	case history.ModeStep:
		loopOpts = append(loopOpts, frame.WithProducer(workload))
	case history.ModeRealtime:
	default:
		return nil, fmt.Errorf("unknown run mode %q", opts.Mode)
	}

	loop, err := frame.NewLoop(ctrl, frame.NewInbox(logging.ComponentLogger(base, "inbox")), loopOpts...)
	if err != nil {
		return nil, err
	}

	return &schedulerRuntime{
		cfg:      cfg,
		clock:    clock,
		ctrl:     ctrl,
		monitor:  monitor,
		workload: workload,
		recorder: recorder,
		loop:     loop,
	}, nil
}

// finish closes the run report. Call it only after the loop has stopped.
func (r *schedulerRuntime) finish() *history.RunReport {
	return r.recorder.Finish(r.ctrl.Totals(), r.clock.Now())
}

// openHistoryStore opens the run history store described by cfg.
func openHistoryStore(cfg *config.Config) (*history.FileStore, error) {
	if !cfg.History.Enabled {
		return history.NewFileStore("", false)
	}
	dir, err := cfg.GetHistoryDir()
	if err != nil {
		return nil, err
	}
	return history.NewFileStore(dir, true)
}

// saveReport persists report unless history is disabled. It returns whether
// the report was written.
func saveReport(cfg *config.Config, report *history.RunReport) (bool, error) {
	store, err := openHistoryStore(cfg)
	if err != nil {
		return false, err
	}
	if err = store.Save(report); err != nil {
		if errors.Is(err, history.ErrHistoryDisabled) {
			logger.Debug().Str("report_id", report.ID).Msg("history disabled, run report not saved")
			return false, nil
		}
		return false, fmt.Errorf("saving run report: %w", err)
	}
	logger.Debug().Str("report_id", report.ID).Str("dir", store.Dir()).Msg("run report saved")
	return true, nil
}

func producerNames(specs []simulate.ProducerSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	return names
}
