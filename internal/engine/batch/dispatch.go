package batch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatch runs one frame's worth of queued jobs and returns the frame snapshot.
//
// Categories are drained in priority order, FIFO within each category. Before
// each job starts the clock is checked; once the budget deadline has been
// reached, ctx is done, or the job cap is hit, the pass stops and every job
// still queued, in every category, stays where it is for the next call.
//
// A panicking job is recovered and counted; Dispatch itself never panics.
func (c *Controller) Dispatch(ctx context.Context) FrameStats {
	if ctx == nil {
		ctx = context.Background()
	}

	budget := c.EffectiveBudget()
	start := c.clock.Now()
	deadline := start.Add(budget)
	c.frame++

	ctx, span := c.tracer.Start(ctx, "batch.dispatch", trace.WithAttributes(
		attribute.Int64("batch.frame", int64(c.frame)), //nolint:gosec // frame counts stay far below MaxInt64
		attribute.Int64("batch.budget_us", budget.Microseconds()),
		attribute.Int("batch.queued", c.queues.Total()),
	))
	defer span.End()

	stats := FrameStats{
		Frame:      c.frame,
		StartedAt:  start,
		Budget:     budget,
		StopReason: StopDrained,
	}
	for _, cat := range Categories() {
		stats.Categories[cat].Category = cat
		stats.Categories[cat].QueuedAtStart = c.queues.Len(cat)
	}

drain:
	for _, cat := range Categories() {
		cs := &stats.Categories[cat]
		for c.queues.Len(cat) > 0 {
			if reason, stop := c.shouldStop(ctx, deadline, stats.Processed); stop {
				stats.StopReason = reason
				break drain
			}

			job, _ := c.queues.PopFront(cat)
			if c.execute(job) {
				stats.Panics++
			}
			cs.Processed++
			cs.CostProcessed += job.Cost
			stats.Processed++
			stats.CostProcessed += job.Cost
		}
	}

	end := c.clock.Now()
	stats.Elapsed = end.Sub(start)
	if budget > 0 {
		stats.Utilization = float64(stats.Elapsed) / float64(budget)
	}
	if stats.Processed > 0 {
		stats.AvgJobTime = stats.Elapsed / time.Duration(stats.Processed)
	}

	c.finishFrame(&stats, end)

	span.SetAttributes(
		attribute.Int("batch.processed", stats.Processed),
		attribute.Int("batch.deferred", stats.Deferred),
		attribute.Int64("batch.elapsed_us", stats.Elapsed.Microseconds()),
		attribute.String("batch.stop_reason", stats.StopReason.String()),
	)

	if stats.Exhausted() {
		c.logger.Debug().
			Str("operation", "dispatch").
			Uint64("frame", stats.Frame).
			Str("stop_reason", stats.StopReason.String()).
			Int("processed", stats.Processed).
			Int("deferred", stats.Deferred).
			Float64("elapsed_ms", stats.ElapsedMillis()).
			Msg("dispatch stopped with jobs deferred")
	}

	c.last = stats
	return stats
}

// shouldStop decides, between jobs, whether the pass must end.
func (c *Controller) shouldStop(ctx context.Context, deadline time.Time, processed int) (StopReason, bool) {
	if ctx.Err() != nil {
		return StopCanceled, true
	}
	if c.maxJobs > 0 && processed >= c.maxJobs {
		return StopJobCap, true
	}
	if !c.clock.Now().Before(deadline) {
		return StopBudget, true
	}
	return StopDrained, false
}

// execute runs a job, recovering from panics. It reports whether the job panicked.
func (c *Controller) execute(job Job) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			c.logger.Error().
				Str("operation", "dispatch").
				Uint64("job_id", uint64(job.ID)).
				Str("category", job.Category.String()).
				Interface("panic", r).
				Msg("batch job panicked")
		}
	}()
	job.work.Execute()
	return false
}

// finishFrame fills deferred counts and folds the frame into the totals.
func (c *Controller) finishFrame(stats *FrameStats, end time.Time) {
	for _, cat := range Categories() {
		cs := &stats.Categories[cat]
		ct := &c.totals.Categories[cat]

		cs.Deferred = c.queues.Len(cat)
		cs.PeakDepth = ct.PeakDepth
		if head, ok := c.queues.Front(cat); ok {
			cs.OldestWait = end.Sub(head.EnqueuedAt)
		}
		stats.Deferred += cs.Deferred

		ct.Processed += uint64(cs.Processed) //nolint:gosec // counts are non-negative
		if cs.Deferred > 0 {
			ct.DeferredFrames++
		}
	}

	c.totals.Frames++
	c.totals.Processed += uint64(stats.Processed) //nolint:gosec // counts are non-negative
	c.totals.Panics += uint64(stats.Panics)       //nolint:gosec // counts are non-negative
	if stats.Overrun() {
		c.totals.Overruns++
	}

	if c.adaptive != nil {
		c.adaptive.update(stats.Utilization)
	}
}
