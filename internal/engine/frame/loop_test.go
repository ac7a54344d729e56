package frame

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/framebatch/internal/engine/batch"
)

type producerFunc func(frame uint64, sink Sink)

func (f producerFunc) Produce(frame uint64, sink Sink) { f(frame, sink) }

func TestNewLoop_Validation(t *testing.T) {
	_, err := NewLoop(nil, nil)
	require.ErrorIs(t, err, ErrNilController)

	ctrl, err := batch.NewController()
	require.NoError(t, err)

	_, err = NewLoop(ctrl, nil, WithInterval(0))
	require.ErrorIs(t, err, ErrInvalidInterval)

	l, err := NewLoop(ctrl, nil)
	require.NoError(t, err)
	assert.NotNil(t, l.Inbox())
	assert.Equal(t, time.Second/DefaultFPS, l.Interval())
}

func TestIntervalFromFPS(t *testing.T) {
	d, err := IntervalFromFPS(50)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, d)

	for _, bad := range []float64{0, -30} {
		_, err := IntervalFromFPS(bad)
		require.ErrorIs(t, err, ErrInvalidInterval)
	}
}

func TestLoop_StepOrder(t *testing.T) {
	ctrl, err := batch.NewController(batch.WithBudget(time.Second))
	require.NoError(t, err)

	var events []string
	producer := producerFunc(func(frame uint64, sink Sink) {
		events = append(events, "produce")
		sink.Submit(batch.CategoryAI, batch.WorkFunc(func() { events = append(events, "ai") }), 0.4)
		sink.Submit(batch.CategoryTransform, batch.WorkFunc(func() { events = append(events, "transform") }), 0.4)
	})
	observer := ObserverFunc(func(stats batch.FrameStats) {
		events = append(events, "observe")
		assert.Equal(t, 2, stats.Processed)
	})

	l, err := NewLoop(ctrl, nil, WithProducer(producer), WithObserver(observer))
	require.NoError(t, err)

	stats := l.Step(context.Background())
	assert.Equal(t, uint64(1), stats.Frame)
	assert.Equal(t, uint64(1), l.Frames())
	assert.Equal(t, []string{"produce", "transform", "ai", "observe"}, events)
}

func TestLoop_RunFrames(t *testing.T) {
	clock := batch.NewManualClock(time.Unix(0, 0))
	ctrl, err := batch.NewController(batch.WithClock(clock), batch.WithBudget(2*time.Millisecond))
	require.NoError(t, err)

	producer := producerFunc(func(_ uint64, sink Sink) {
		for range 3 {
			sink.Submit(batch.CategoryPhysics, batch.WorkFunc(func() { clock.Advance(time.Millisecond) }), 0.5)
		}
	})

	var seen []batch.FrameStats
	l, err := NewLoop(ctrl, nil,
		WithProducer(producer),
		WithObserver(ObserverFunc(func(s batch.FrameStats) { seen = append(seen, s) })),
		WithLoopLogger(zerolog.Nop()),
	)
	require.NoError(t, err)

	ran := l.RunFrames(context.Background(), 10)
	assert.Equal(t, 10, ran)
	require.Len(t, seen, 10)

	// Three 1ms jobs arrive per frame but only two fit, so the backlog grows by one.
	for i, s := range seen {
		assert.Equal(t, uint64(i+1), s.Frame)
		assert.Equal(t, 2, s.Processed)
		assert.Equal(t, i+1, s.Deferred)
	}
	assert.True(t, ctrl.Totals().Balanced(ctrl.TotalQueued()))
}

func TestLoop_RunFramesCanceled(t *testing.T) {
	ctrl, err := batch.NewController()
	require.NoError(t, err)
	l, err := NewLoop(ctrl, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, l.RunFrames(ctx, 5))
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	ctrl, err := batch.NewController()
	require.NoError(t, err)

	frames := make(chan uint64, 1024)
	l, err := NewLoop(ctrl, nil,
		WithInterval(time.Millisecond),
		WithObserver(ObserverFunc(func(s batch.FrameStats) {
			select {
			case frames <- s.Frame:
			default:
			}
		})),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not step")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestNextDeadline(t *testing.T) {
	base := time.Unix(100, 0)
	interval := 10 * time.Millisecond

	next, resynced := nextDeadline(base, base.Add(5*time.Millisecond), interval)
	assert.False(t, resynced)
	assert.Equal(t, base.Add(interval), next)

	// Slightly late frames keep the fixed cadence.
	next, resynced = nextDeadline(base, base.Add(25*time.Millisecond), interval)
	assert.False(t, resynced)
	assert.Equal(t, base.Add(interval), next)

	// More than two intervals behind restarts from now.
	now := base.Add(45 * time.Millisecond)
	next, resynced = nextDeadline(base, now, interval)
	assert.True(t, resynced)
	assert.Equal(t, now.Add(interval), next)
}
