package batch

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Default scheduling configuration.
const (
	// DefaultBudget is the per-frame dispatch budget.
	DefaultBudget = 2500 * time.Microsecond

	// tracerName is the instrumentation scope for dispatch spans.
	tracerName = "github.com/rshade/framebatch/internal/engine/batch"
)

// Controller configuration errors.
var (
	ErrInvalidBudget  = errors.New("batch budget must be a finite, positive duration")
	ErrInvalidJobsCap = errors.New("max jobs per frame cannot be negative")
)

// Controller owns the category queues, the per-frame budget and the dispatch
// statistics. One Controller serves a whole running engine; it is not safe for
// concurrent use.
type Controller struct {
	budget   time.Duration
	maxJobs  int
	adaptive *adaptiveState

	queues QueueSet
	nextID JobID
	frame  uint64

	last   FrameStats
	totals Totals

	clock  Clock
	logger zerolog.Logger
	tracer trace.Tracer
}

// Option configures a Controller.
type Option func(*Controller)

// WithBudget sets the per-frame budget.
func WithBudget(budget time.Duration) Option {
	return func(c *Controller) { c.budget = budget }
}

// WithClock sets the clock used for budget accounting.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger for misuse warnings and job panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) { c.tracer = tracer }
}

// WithMaxJobsPerFrame caps the number of jobs a single pass may execute.
// Zero means no cap.
func WithMaxJobsPerFrame(n int) Option {
	return func(c *Controller) { c.maxJobs = n }
}

// WithAdaptiveBudget enables utilization-driven budget scaling.
func WithAdaptiveBudget(cfg AdaptiveConfig) Option {
	return func(c *Controller) {
		if cfg.Enabled {
			c.adaptive = newAdaptiveState(cfg)
		} else {
			c.adaptive = nil
		}
	}
}

// NewController creates a controller with empty queues and the default budget.
func NewController(opts ...Option) (*Controller, error) {
	c := &Controller{
		budget: DefaultBudget,
		clock:  SystemClock{},
		logger: zerolog.Nop(),
		tracer: noop.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := validateBudget(c.budget); err != nil {
		return nil, err
	}
	if c.maxJobs < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidJobsCap, c.maxJobs)
	}
	if c.adaptive != nil {
		if err := c.adaptive.cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}

	for _, cat := range Categories() {
		c.totals.Categories[cat].Category = cat
	}
	return c, nil
}

// Budget returns the configured per-frame budget.
func (c *Controller) Budget() time.Duration {
	return c.budget
}

// minEffectiveBudget keeps adaptive scaling of a tiny budget from reaching zero.
const minEffectiveBudget = time.Nanosecond

// EffectiveBudget returns the budget after adaptive scaling.
func (c *Controller) EffectiveBudget() time.Duration {
	if c.adaptive == nil {
		return c.budget
	}
	return max(time.Duration(float64(c.budget)*c.adaptive.factor), minEffectiveBudget)
}

// AdaptiveFactor returns the current adaptive scale, or 1 when disabled.
func (c *Controller) AdaptiveFactor() float64 {
	if c.adaptive == nil {
		return 1
	}
	return c.adaptive.factor
}

// SetBudget replaces the per-frame budget. Zero or negative budgets are rejected.
func (c *Controller) SetBudget(budget time.Duration) error {
	if err := validateBudget(budget); err != nil {
		return err
	}
	c.budget = budget
	return nil
}

// SetBudgetMillis replaces the budget from a millisecond value, as loaded from
// configuration. NaN, infinite, zero and negative values are rejected.
func (c *Controller) SetBudgetMillis(ms float64) error {
	d, err := BudgetFromMillis(ms)
	if err != nil {
		return err
	}
	c.budget = d
	return nil
}

// BudgetFromMillis converts a millisecond budget into a duration.
func BudgetFromMillis(ms float64) (time.Duration, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return 0, fmt.Errorf("%w: got %v ms", ErrInvalidBudget, ms)
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if err := validateBudget(d); err != nil {
		return 0, err
	}
	return d, nil
}

// Enqueue appends work to the tail of cat's queue and returns its ID.
//
// Cost weights outside [0,1] are clamped (see ClampCost) and logged as a
// warning; they never cause a rejection. An invalid category or nil work
// returns an error and leaves the controller unchanged.
func (c *Controller) Enqueue(cat Category, work Work, cost float64) (JobID, error) {
	if !cat.Valid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCategory, uint8(cat))
	}
	if work == nil {
		return 0, ErrNilWork
	}

	clamped, changed := ClampCost(cost)
	if changed {
		c.totals.ClampedCosts++
		c.logger.Warn().
			Str("operation", "enqueue").
			Str("category", cat.String()).
			Float64("cost", cost).
			Float64("clamped", clamped).
			Msg("job cost outside [0,1], clamped")
	}

	c.nextID++
	job := Job{
		ID:         c.nextID,
		Category:   cat,
		Cost:       clamped,
		EnqueuedAt: c.clock.Now(),
		work:       work,
	}
	if err := c.queues.Push(job); err != nil {
		return 0, err
	}

	ct := &c.totals.Categories[cat]
	ct.Enqueued++
	ct.PeakDepth = max(ct.PeakDepth, c.queues.Len(cat))
	c.totals.Enqueued++
	c.totals.PeakDepth = max(c.totals.PeakDepth, c.queues.Total())

	return job.ID, nil
}

// EnqueueFunc is Enqueue for a plain function.
func (c *Controller) EnqueueFunc(cat Category, fn func(), cost float64) (JobID, error) {
	if fn == nil {
		return 0, ErrNilWork
	}
	return c.Enqueue(cat, WorkFunc(fn), cost)
}

// Dequeue removes the next job in priority order without executing it.
// The job is counted as removed, not processed.
func (c *Controller) Dequeue() (Job, bool) {
	job, ok := c.queues.PopNext()
	if ok {
		c.totals.Removed++
	}
	return job, ok
}

// Clear drops every queued job, typically at shutdown, and returns the count.
func (c *Controller) Clear() int {
	n := c.queues.Clear()
	c.totals.Removed += uint64(n) //nolint:gosec // n is non-negative
	return n
}

// QueueDepth returns the number of jobs waiting in cat.
func (c *Controller) QueueDepth(cat Category) int {
	return c.queues.Len(cat)
}

// TotalQueued returns the number of jobs waiting across all categories.
func (c *Controller) TotalQueued() int {
	return c.queues.Total()
}

// Stats returns the snapshot of the most recent dispatch pass.
func (c *Controller) Stats() FrameStats {
	return c.last
}

// Totals returns the cumulative counters.
func (c *Controller) Totals() Totals {
	return c.totals
}

func validateBudget(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidBudget, d)
	}
	return nil
}
