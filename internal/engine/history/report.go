package history

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// Run modes.
const (
	ModeStep     = "step"
	ModeRealtime = "realtime"
)

// RunReport summarizes one scheduler run.
type RunReport struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// BudgetMs is the configured per-frame budget.
	BudgetMs float64 `json:"budget_ms"`

	// Workload lists the producer names that fed the run.
	Workload []string `json:"workload,omitempty"`

	Frames          uint64        `json:"frames"`
	OverrunFrames   uint64        `json:"overrun_frames"`
	ExhaustedFrames uint64        `json:"exhausted_frames"`
	WorstElapsed    time.Duration `json:"worst_elapsed_ns"`
	MeanUtilization float64       `json:"mean_utilization"`
	WorstHealth     batch.Health  `json:"worst_health"`

	Totals batch.Totals `json:"totals"`
}

// Duration returns the wall-clock length of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// OverrunRate returns the fraction of frames that overran.
func (r *RunReport) OverrunRate() float64 {
	if r.Frames == 0 {
		return 0
	}
	return float64(r.OverrunFrames) / float64(r.Frames)
}

// NewID returns a ULID whose timestamp is t.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Recorder builds a RunReport from the frames it observes. It is safe for
// concurrent use.
type Recorder struct {
	mu      sync.Mutex
	report  RunReport
	utilSum float64
}

// NewRecorder starts a report for a run beginning at startedAt.
func NewRecorder(mode string, budget time.Duration, workload []string, startedAt time.Time) *Recorder {
	return &Recorder{
		report: RunReport{
			ID:        NewID(startedAt),
			Mode:      mode,
			StartedAt: startedAt,
			BudgetMs:  float64(budget) / float64(time.Millisecond),
			Workload:  append([]string(nil), workload...),
		},
	}
}

// ObserveFrame folds a frame into the report.
func (r *Recorder) ObserveFrame(stats batch.FrameStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Frames++
	r.utilSum += stats.Utilization
	r.report.WorstElapsed = max(r.report.WorstElapsed, stats.Elapsed)
	r.report.WorstHealth = batch.AggregateHealth(r.report.WorstHealth, stats.Health())
	if stats.Overrun() {
		r.report.OverrunFrames++
	}
	if stats.Exhausted() {
		r.report.ExhaustedFrames++
	}
}

// Finish completes the report with the controller totals.
func (r *Recorder) Finish(totals batch.Totals, finishedAt time.Time) *RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.report
	out.FinishedAt = finishedAt
	out.Totals = totals
	if out.Frames > 0 {
		out.MeanUtilization = r.utilSum / float64(out.Frames)
	}
	out.Workload = append([]string(nil), r.report.Workload...)
	return &out
}
