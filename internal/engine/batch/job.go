package batch

import (
	"errors"
	"math"
	"time"
)

// Cost weight bounds.
const (
	MinCost = 0.0
	MaxCost = 1.0
)

// ErrNilWork is returned when a job is enqueued without a work handle.
var ErrNilWork = errors.New("batch job work cannot be nil")

// JobID identifies a job for diagnostic correlation. IDs are assigned in enqueue
// order, starting at 1, and are unique per Controller.
type JobID uint64

// Work is a deferred, bounded unit of work.
type Work interface {
	Execute()
}

// WorkFunc adapts a plain function to Work.
type WorkFunc func()

// Execute calls f.
func (f WorkFunc) Execute() {
	f()
}

// Job is a queued unit of work. Jobs are never mutated after enqueue.
type Job struct {
	// ID is the enqueue sequence number; it orders jobs inside a category.
	ID JobID `json:"id"`

	// Category is the priority bucket the job was enqueued into.
	Category Category `json:"category"`

	// Cost is the caller's estimate of relative execution cost, clamped to [0,1].
	// It feeds statistics only and never influences scheduling.
	Cost float64 `json:"cost"`

	// EnqueuedAt is when the job entered its queue.
	EnqueuedAt time.Time `json:"enqueued_at"`

	work Work
}

// Work returns the job's work handle.
func (j Job) Work() Work {
	return j.work
}

// ClampCost applies the cost weight policy: values are clamped into [0,1],
// +Inf becomes 1 and both -Inf and NaN become 0. The second result reports
// whether the input had to be changed.
func ClampCost(cost float64) (float64, bool) {
	switch {
	case math.IsNaN(cost):
		return MinCost, true
	case cost < MinCost:
		return MinCost, true
	case cost > MaxCost:
		return MaxCost, true
	default:
		return cost, false
	}
}
