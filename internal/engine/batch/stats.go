package batch

import "time"

// StopReason records why a dispatch pass ended.
type StopReason uint8

// Dispatch stop reasons.
const (
	// StopDrained means every queue was emptied within the budget.
	StopDrained StopReason = iota
	// StopBudget means the frame deadline was reached with jobs still queued.
	StopBudget
	// StopJobCap means the per-frame job cap was reached.
	StopJobCap
	// StopCanceled means the dispatch context was done.
	StopCanceled
)

func (r StopReason) String() string {
	switch r {
	case StopDrained:
		return "drained"
	case StopBudget:
		return "budget"
	case StopJobCap:
		return "job_cap"
	case StopCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// CategoryStats is the per-category slice of a FrameStats snapshot.
type CategoryStats struct {
	Category Category `json:"category"`

	// QueuedAtStart is the queue depth when the pass began.
	QueuedAtStart int `json:"queued_at_start"`

	// Processed is the number of jobs executed this frame.
	Processed int `json:"processed"`

	// Deferred is the number of jobs left queued after the pass.
	Deferred int `json:"deferred"`

	// PeakDepth is the high-water mark of the queue since the controller was created.
	PeakDepth int `json:"peak_depth"`

	// CostProcessed sums the advisory cost of executed jobs.
	CostProcessed float64 `json:"cost_processed"`

	// OldestWait is how long the job now at the head of the queue has waited.
	OldestWait time.Duration `json:"oldest_wait_ns"`
}

// FrameStats is the value snapshot returned by one dispatch pass.
type FrameStats struct {
	Frame         uint64        `json:"frame"`
	StartedAt     time.Time     `json:"started_at"`
	Budget        time.Duration `json:"budget_ns"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	Utilization   float64       `json:"utilization"`
	Processed     int           `json:"processed"`
	Deferred      int           `json:"deferred"`
	Panics        int           `json:"panics"`
	StopReason    StopReason    `json:"stop_reason"`
	AvgJobTime    time.Duration `json:"avg_job_time_ns"`
	CostProcessed float64       `json:"cost_processed"`

	Categories [NumCategories]CategoryStats `json:"categories"`
}

// Exhausted reports whether the pass stopped with work still queued.
func (s FrameStats) Exhausted() bool {
	return s.StopReason != StopDrained
}

// Overrun reports whether the pass took longer than its budget. Because the
// budget is only checked between jobs, the last job of a pass may overrun.
func (s FrameStats) Overrun() bool {
	return s.Elapsed > s.Budget
}

// ElapsedMillis returns Elapsed in fractional milliseconds.
func (s FrameStats) ElapsedMillis() float64 {
	return durationMillis(s.Elapsed)
}

// BudgetMillis returns Budget in fractional milliseconds.
func (s FrameStats) BudgetMillis() float64 {
	return durationMillis(s.Budget)
}

// Health classifies the pass by budget utilization.
func (s FrameStats) Health() Health {
	if s.Budget <= 0 {
		return HealthUnspecified
	}
	return HealthFromUtilization(s.Utilization)
}

// Category returns the stats for cat.
func (s FrameStats) Category(cat Category) CategoryStats {
	if !cat.Valid() {
		return CategoryStats{}
	}
	return s.Categories[cat]
}

// CategoryTotals are cumulative per-category counters.
type CategoryTotals struct {
	Category       Category `json:"category"`
	Enqueued       uint64   `json:"enqueued"`
	Processed      uint64   `json:"processed"`
	DeferredFrames uint64   `json:"deferred_frames"`
	PeakDepth      int      `json:"peak_depth"`
}

// Totals are cumulative counters over the lifetime of a Controller.
type Totals struct {
	Frames       uint64 `json:"frames"`
	Enqueued     uint64 `json:"enqueued"`
	Processed    uint64 `json:"processed"`
	Removed      uint64 `json:"removed"`
	ClampedCosts uint64 `json:"clamped_costs"`
	Panics       uint64 `json:"panics"`
	Overruns     uint64 `json:"overruns"`
	PeakDepth    int    `json:"peak_depth"`

	Categories [NumCategories]CategoryTotals `json:"categories"`
}

// Balanced reports whether every enqueued job is accounted for, given the
// number of jobs still queued.
func (t Totals) Balanced(queued int) bool {
	return t.Enqueued == t.Processed+t.Removed+uint64(queued) //nolint:gosec // queue depth is non-negative
}

// OverrunRate returns the fraction of frames that overran their budget.
func (t Totals) OverrunRate() float64 {
	if t.Frames == 0 {
		return 0
	}
	return float64(t.Overruns) / float64(t.Frames)
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
