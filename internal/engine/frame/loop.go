package frame

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// DefaultFPS is the default frame rate of the loop.
const DefaultFPS = 60

// maxBehindFrames is how many intervals the loop may fall behind before it
// resynchronizes instead of running catch-up frames.
const maxBehindFrames = 2

// Loop errors.
var (
	ErrNilController   = errors.New("frame loop requires a batch controller")
	ErrInvalidInterval = errors.New("frame interval must be positive")
)

// Observer receives the snapshot of every dispatched frame.
type Observer interface {
	ObserveFrame(stats batch.FrameStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stats batch.FrameStats)

// ObserveFrame calls f.
func (f ObserverFunc) ObserveFrame(stats batch.FrameStats) {
	f(stats)
}

// Producer submits the work a subsystem generates for one frame.
type Producer interface {
	Produce(frame uint64, sink Sink)
}

// Loop drives one controller on a fixed frame interval: producers run, the inbox
// is flushed, the controller dispatches, and observers see the result.
type Loop struct {
	ctrl      *batch.Controller
	inbox     *Inbox
	interval  time.Duration
	observers []Observer
	producers []Producer
	clock     batch.Clock
	logger    zerolog.Logger

	frames uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithInterval sets the frame interval.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.interval = d }
}

// WithObserver registers observers, notified in registration order.
func WithObserver(obs ...Observer) LoopOption {
	return func(l *Loop) { l.observers = append(l.observers, obs...) }
}

// WithProducer registers producers, run in registration order at frame start.
func WithProducer(p ...Producer) LoopOption {
	return func(l *Loop) { l.producers = append(l.producers, p...) }
}

// WithLoopClock sets the clock used for frame pacing.
func WithLoopClock(c batch.Clock) LoopOption {
	return func(l *Loop) { l.clock = c }
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(logger zerolog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// IntervalFromFPS converts a frame rate to a frame interval.
func IntervalFromFPS(fps float64) (time.Duration, error) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0, fmt.Errorf("%w: got %v fps", ErrInvalidInterval, fps)
	}
	d := time.Duration(float64(time.Second) / fps)
	if d <= 0 {
		return 0, fmt.Errorf("%w: got %v fps", ErrInvalidInterval, fps)
	}
	return d, nil
}

// NewLoop creates a loop around ctrl. A nil inbox gets a fresh one.
func NewLoop(ctrl *batch.Controller, inbox *Inbox, opts ...LoopOption) (*Loop, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}
	l := &Loop{
		ctrl:     ctrl,
		inbox:    inbox,
		interval: time.Second / DefaultFPS,
		clock:    batch.SystemClock{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.interval <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, l.interval)
	}
	if l.inbox == nil {
		l.inbox = NewInbox(l.logger)
	}
	if l.clock == nil {
		l.clock = batch.SystemClock{}
	}
	return l, nil
}

// Inbox returns the loop's submission inbox.
func (l *Loop) Inbox() *Inbox {
	return l.inbox
}

// Interval returns the frame interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Frames returns the number of frames stepped so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Step runs a single frame.
func (l *Loop) Step(ctx context.Context) batch.FrameStats {
	l.frames++
	for _, p := range l.producers {
		p.Produce(l.frames, l.inbox)
	}

	if _, err := l.inbox.Flush(l.ctrl); err != nil {
		l.logger.Debug().Err(err).Uint64("frame", l.frames).Msg("inbox flush had rejected submissions")
	}

	stats := l.ctrl.Dispatch(ctx)
	for _, obs := range l.observers {
		obs.ObserveFrame(stats)
	}
	return stats
}

// RunFrames steps n frames back to back, ignoring the interval. It stops early
// when ctx is done and returns the number of frames run.
func (l *Loop) RunFrames(ctx context.Context, n int) int {
	for i := range n {
		if ctx.Err() != nil {
			return i
		}
		l.Step(ctx)
	}
	return n
}

// Run steps frames on the configured interval until ctx is done. It returns nil
// on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().Dur("interval", l.interval).Msg("frame loop started")
	defer l.logger.Info().Uint64("frames", l.frames).Msg("frame loop stopped")

	next := l.clock.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		l.Step(ctx)

		now := l.clock.Now()
		var resynced bool
		next, resynced = nextDeadline(next, now, l.interval)
		if resynced {
			l.logger.Debug().Uint64("frame", l.frames).Msg("frame loop fell behind, resynchronizing")
		}
		timer.Reset(max(next.Sub(now), 0))
	}
}

// nextDeadline advances the frame deadline by one interval. When the loop is
// more than maxBehindFrames intervals late the deadline restarts from now.
func nextDeadline(prev, now time.Time, interval time.Duration) (time.Time, bool) {
	next := prev.Add(interval)
	if now.Sub(next) > interval*maxBehindFrames {
		return now.Add(interval), true
	}
	return next, false
}
