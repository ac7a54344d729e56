// Package simulate stands in for the engine subsystems that feed the batch
// scheduler. Each producer submits synthetic jobs whose execution time is
// modelled on the injected clock.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/frame"
)

// ErrInvalidProducer is returned for producer specs that cannot generate work.
var ErrInvalidProducer = errors.New("invalid producer spec")

// ProducerSpec describes one simulated subsystem.
type ProducerSpec struct {
	// Name identifies the subsystem in logs and reports.
	Name string `yaml:"name" json:"name"`

	// Category is the batch category the subsystem submits into.
	Category batch.Category `yaml:"category" json:"category"`

	// JobsPerFrame is the number of jobs submitted each frame.
	JobsPerFrame int `yaml:"jobs_per_frame" json:"jobs_per_frame"`

	// Cost is the advisory cost weight attached to each job.
	Cost float64 `yaml:"cost" json:"cost"`

	// Duration is the nominal execution time of each job.
	Duration time.Duration `yaml:"duration" json:"duration"`

	// Jitter varies Duration by up to this fraction in either direction.
	Jitter float64 `yaml:"jitter" json:"jitter"`
}

// Validate checks the spec. Cost is not checked; the controller clamps it.
func (p ProducerSpec) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProducer)
	case !p.Category.Valid():
		return fmt.Errorf("%w: %s: got category %d", ErrInvalidProducer, p.Name, uint8(p.Category))
	case p.JobsPerFrame < 0:
		return fmt.Errorf("%w: %s: jobs_per_frame cannot be negative, got %d", ErrInvalidProducer, p.Name, p.JobsPerFrame)
	case p.Duration < 0:
		return fmt.Errorf("%w: %s: duration cannot be negative, got %s", ErrInvalidProducer, p.Name, p.Duration)
	case p.Jitter < 0 || p.Jitter > 1:
		return fmt.Errorf("%w: %s: jitter must be in [0,1], got %v", ErrInvalidProducer, p.Name, p.Jitter)
	}
	return nil
}

// DefaultWorkload returns the five engine subsystems at a load that roughly
// fills a 2.5ms budget.
func DefaultWorkload() []ProducerSpec {
	return []ProducerSpec{
		{Name: "transform-sync", Category: batch.CategoryTransform, JobsPerFrame: 8, Cost: 0.1, Duration: 50 * time.Microsecond, Jitter: 0.2},
		{Name: "visibility-cull", Category: batch.CategoryVisibility, JobsPerFrame: 4, Cost: 0.3, Duration: 120 * time.Microsecond, Jitter: 0.3},
		{Name: "physics-step", Category: batch.CategoryPhysics, JobsPerFrame: 3, Cost: 0.5, Duration: 200 * time.Microsecond, Jitter: 0.4},
		{Name: "lod-update", Category: batch.CategoryLOD, JobsPerFrame: 4, Cost: 0.2, Duration: 80 * time.Microsecond, Jitter: 0.3},
		{Name: "npc-ai", Category: batch.CategoryAI, JobsPerFrame: 6, Cost: 0.6, Duration: 150 * time.Microsecond, Jitter: 0.5},
	}
}

// Workload drives a set of producer specs.
type Workload struct {
	specs  []ProducerSpec
	clock  batch.Clock
	seed   uint64
	rng    *rand.Rand
	logger zerolog.Logger

	submitted atomic.Uint64
}

// NewWorkload validates specs and builds a workload. Synthetic jobs spend their
// duration on clock; a seed of zero still gives a deterministic sequence.
func NewWorkload(specs []ProducerSpec, clock batch.Clock, seed uint64, logger zerolog.Logger) (*Workload, error) {
	var errs []error
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = batch.SystemClock{}
	}
	return &Workload{
		specs:  append([]ProducerSpec(nil), specs...),
		clock:  clock,
		seed:   seed,
		rng:    newRand(seed, 0),
		logger: logger,
	}, nil
}

// Specs returns a copy of the producer specs.
func (w *Workload) Specs() []ProducerSpec {
	return append([]ProducerSpec(nil), w.specs...)
}

// Submitted returns the number of jobs submitted so far.
func (w *Workload) Submitted() uint64 {
	return w.submitted.Load()
}

// Produce submits one frame of work from every producer, in spec order.
// It implements frame.Producer and must only be called from one goroutine.
func (w *Workload) Produce(_ uint64, sink frame.Sink) {
	for _, s := range w.specs {
		w.submit(s, w.rng, sink)
	}
}

// Start launches one goroutine per producer in g, each submitting a frame of
// work every interval until ctx is done. sink must be safe for concurrent use.
func (w *Workload) Start(ctx context.Context, g *errgroup.Group, sink frame.Sink, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: got %s", frame.ErrInvalidInterval, interval)
	}
	for i, s := range w.specs {
		rng := newRand(w.seed, uint64(i)+1) //nolint:gosec // index is non-negative
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			w.logger.Debug().Str("producer", s.Name).Str("category", s.Category.String()).Msg("producer started")
			for {
				select {
				case <-ctx.Done():
					w.logger.Debug().Str("producer", s.Name).Msg("producer stopped")
					return nil
				case <-ticker.C:
					w.submit(s, rng, sink)
				}
			}
		})
	}
	return nil
}

func (w *Workload) submit(s ProducerSpec, rng *rand.Rand, sink frame.Sink) {
	for range s.JobsPerFrame {
		d := jittered(s.Duration, s.Jitter, rng)
		sink.Submit(s.Category, SyntheticJob(w.clock, d), s.Cost)
		w.submitted.Add(1)
	}
}

// jittered scales d by a random factor in [1-jitter, 1+jitter].
func jittered(d time.Duration, jitter float64, rng *rand.Rand) time.Duration {
	if jitter == 0 || d == 0 {
		return d
	}
	factor := 1 + jitter*(2*rng.Float64()-1)
	return time.Duration(float64(d) * factor)
}

func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream)) //nolint:gosec // simulation, not security
}
