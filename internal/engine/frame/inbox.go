package frame

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// Sink accepts job submissions from producers.
type Sink interface {
	Submit(cat batch.Category, work batch.Work, cost float64)
}

// Enqueuer is the part of the controller the inbox flushes into.
type Enqueuer interface {
	Enqueue(cat batch.Category, work batch.Work, cost float64) (batch.JobID, error)
}

type submission struct {
	cat  batch.Category
	work batch.Work
	cost float64
}

// Inbox stages submissions from any goroutine until the frame loop flushes them
// into the controller, which only the loop goroutine touches.
type Inbox struct {
	mu      sync.Mutex
	pending []submission
	logger  zerolog.Logger
}

// NewInbox creates an empty inbox.
func NewInbox(logger zerolog.Logger) *Inbox {
	return &Inbox{logger: logger}
}

// Submit stages a job. It is safe for concurrent use and never blocks on dispatch.
// Validation happens at Flush.
func (in *Inbox) Submit(cat batch.Category, work batch.Work, cost float64) {
	in.mu.Lock()
	in.pending = append(in.pending, submission{cat: cat, work: work, cost: cost})
	in.mu.Unlock()
}

// SubmitFunc stages a plain function.
func (in *Inbox) SubmitFunc(cat batch.Category, fn func(), cost float64) {
	var work batch.Work
	if fn != nil {
		work = batch.WorkFunc(fn)
	}
	in.Submit(cat, work, cost)
}

// Pending returns the number of staged submissions.
func (in *Inbox) Pending() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

// Flush moves every staged submission into q in arrival order and returns how
// many were accepted. Rejected submissions are logged and their errors joined;
// they do not stop the rest of the flush.
func (in *Inbox) Flush(q Enqueuer) (int, error) {
	in.mu.Lock()
	staged := in.pending
	in.pending = nil
	in.mu.Unlock()

	var errs []error
	accepted := 0
	for i, s := range staged {
		if _, err := q.Enqueue(s.cat, s.work, s.cost); err != nil {
			in.logger.Warn().
				Err(err).
				Str("operation", "flush").
				Str("category", s.cat.String()).
				Msg("rejected job submission")
			errs = append(errs, fmt.Errorf("submission %d: %w", i, err))
			continue
		}
		accepted++
	}
	return accepted, errors.Join(errs...)
}
